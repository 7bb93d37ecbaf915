package badger

import "github.com/poiesic/docent/storage"

// NewMemoryRepository creates an in-memory chunk repository for testing.
// Closing the repository closes its backend.
func NewMemoryRepository() (storage.ChunkRepository, error) {
	return openOwned("", true)
}
