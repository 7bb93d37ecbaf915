package storage

import (
	"context"

	"github.com/poiesic/docent/core"
)

// ChunkRepository is a persistent, namespace-isolated similarity index over
// embedded chunks. Implementations must be thread-safe and support concurrent
// access from multiple sessions.
//
// Similarity is cosine: vectors are L2 normalised on write and on query and
// the score is their dot product, in [-1, 1].
type ChunkRepository interface {
	// Upsert appends chunks with their embeddings to a namespace in a single
	// durable write, creating the namespace if needed. Every embedding must
	// match the namespace's established dimension (set by its first write).
	// Returns ErrCountMismatch when the slices differ in length,
	// ErrDimensionMismatch on a dimension disagreement and an error wrapping
	// core.ErrInvalidNamespace for an unusable key. Nothing becomes visible on
	// error, whatever the size of the write.
	Upsert(ctx context.Context, ns core.Namespace, chunks []core.Chunk, embeddings [][]float32) ([]*core.ChunkRecord, error)

	// ReplaceSource swaps every record of ns that came from source for the
	// given chunks in one visible step and reports how many records it
	// removed. Every chunk must carry source (ErrSourceMismatch otherwise).
	// Other errors are those of Upsert; the old records stay on error.
	ReplaceSource(ctx context.Context, ns core.Namespace, source string, chunks []core.Chunk, embeddings [][]float32) ([]*core.ChunkRecord, int, error)

	// DeleteSource removes every record of ns that came from source and
	// returns how many were removed.
	DeleteSource(ctx context.Context, ns core.Namespace, source string) (int, error)

	// Query returns up to k records nearest to vector, nearest first, ties in
	// insertion order. Unknown or empty namespaces and k <= 0 give an empty
	// result. A vector whose dimension differs from the namespace's returns
	// ErrDimensionMismatch.
	Query(ctx context.Context, ns core.Namespace, vector []float32, k int) ([]*core.SearchResult, error)

	// Clear deletes every chunk of a namespace together with its metadata.
	// Clearing a namespace that does not exist is not an error.
	Clear(ctx context.Context, ns core.Namespace) error

	// ListNamespaces returns the existing namespace keys starting with prefix, sorted.
	ListNamespaces(ctx context.Context, prefix string) ([]core.Namespace, error)

	// Count returns the number of chunks stored in a namespace.
	Count(ctx context.Context, ns core.Namespace) (int, error)

	// Info returns the namespace's bookkeeping record, or ErrNotFound.
	Info(ctx context.Context, ns core.Namespace) (*core.NamespaceInfo, error)

	// Chunks returns every record of a namespace in insertion order.
	Chunks(ctx context.Context, ns core.Namespace) ([]*core.ChunkRecord, error)

	// ReplaceVectors rewrites the vectors of existing records in one visible
	// step. The records keep their order but may be reissued under new IDs.
	// All new vectors must share one dimension; it may differ from the
	// namespace's current dimension only when records cover the whole
	// namespace, in which case it becomes the new dimension.
	ReplaceVectors(ctx context.Context, ns core.Namespace, records []*core.ChunkRecord) error

	// Close releases resources held by the repository.
	Close() error
}
