package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
	"github.com/stretchr/testify/require"
)

// mockEmbedder for testing
type mockEmbedder struct {
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedTextsFunc != nil {
		return m.embedTextsFunc(ctx, texts)
	}
	// Default: a new model with a different dimension
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1.0, 2.0, 2.0, 0.0}
	}
	return result, nil
}

func setupTestRepository(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// seedChunks stores n chunks in ns with 3-dimensional vectors.
func seedChunks(t *testing.T, repo storage.ChunkRepository, ns core.Namespace, n int) []*core.ChunkRecord {
	t.Helper()
	chunks := make([]core.Chunk, n)
	vectors := make([][]float32, n)
	for i := range n {
		chunks[i] = core.Chunk{Text: fmt.Sprintf("chunk %d", i), Source: "doc.txt", Index: i}
		vectors[i] = []float32{1, 0, 0}
	}
	records, err := repo.Upsert(context.Background(), ns, chunks, vectors)
	require.NoError(t, err)
	return records
}
