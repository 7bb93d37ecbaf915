package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func chunksOf(source string, texts ...string) []core.Chunk {
	out := make([]core.Chunk, len(texts))
	for i, text := range texts {
		out[i] = core.Chunk{Text: text, Source: source, Index: i}
	}
	return out
}

func TestUpsert_AssignsIDsAndMetadata(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	records, err := repo.Upsert(ctx, "user_1", chunksOf("doc.txt", "alpha", "beta"),
		[][]float32{{1, 0}, {0, 2}})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.NotZero(t, records[0].Id)
	assert.Greater(t, records[1].Id, records[0].Id)
	assert.Equal(t, records[0].DocumentId, records[1].DocumentId)
	assert.NotZero(t, records[0].DocumentId)
	assert.Equal(t, core.Namespace("user_1"), records[0].Namespace)
	assert.Equal(t, "doc.txt", records[1].Source)
	assert.Equal(t, 1, records[1].Index)
	assert.False(t, records[0].InsertedAt.IsZero())
	// stored normalised
	assert.InDelta(t, 1.0, records[1].Vector[1], 1e-6)

	count, err := repo.Count(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	info, err := repo.Info(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Dimension)
	assert.Equal(t, 2, info.Chunks)
}

func TestUpsert_CountMismatch(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Upsert(context.Background(), "user_1", chunksOf("d", "a", "b"), [][]float32{{1}})
	require.ErrorIs(t, err, storage.ErrCountMismatch)

	count, err := repo.Count(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("within one call", func(t *testing.T) {
		_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "a", "b"), [][]float32{{1, 0}, {1, 0, 0}})
		require.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})

	t.Run("against established dimension", func(t *testing.T) {
		_, err := repo.Upsert(ctx, "user_2", chunksOf("d", "a"), [][]float32{{1, 0, 0}})
		require.NoError(t, err)

		_, err = repo.Upsert(ctx, "user_2", chunksOf("d", "b"), [][]float32{{1, 0}})
		require.ErrorIs(t, err, storage.ErrDimensionMismatch)

		count, err := repo.Count(ctx, "user_2")
		require.NoError(t, err)
		assert.Equal(t, 1, count, "failed upsert must not write")
	})

	t.Run("empty vector", func(t *testing.T) {
		_, err := repo.Upsert(ctx, "user_3", chunksOf("d", "a"), [][]float32{{}})
		require.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})
}

func TestUpsert_InvalidNamespace(t *testing.T) {
	repo := newTestRepo(t)
	for _, ns := range []core.Namespace{"", "user:1", "user 1", "a/b"} {
		_, err := repo.Upsert(context.Background(), ns, chunksOf("d", "a"), [][]float32{{1}})
		assert.ErrorIs(t, err, core.ErrInvalidNamespace, "namespace %q", ns)
	}
}

func TestUpsert_EmptySourceRejected(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Upsert(context.Background(), "user_1", chunksOf("", "a"), [][]float32{{1}})
	require.ErrorIs(t, err, core.ErrEmptySource)
}

func TestUpsert_Empty(t *testing.T) {
	repo := newTestRepo(t)
	records, err := repo.Upsert(context.Background(), "user_1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	namespaces, err := repo.ListNamespaces(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, namespaces)
}

func TestUpsert_AppendsDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "same"), [][]float32{{1, 1}})
		require.NoError(t, err)
	}
	count, err := repo.Count(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQuery_NearestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "far", "near", "mid"),
		[][]float32{{0, 0, 1}, {1, 0, 0}, {0.9, 0.1, 0}})
	require.NoError(t, err)

	results, err := repo.Query(ctx, "user_1", []float32{2, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Record.Contents)
	assert.Equal(t, "mid", results[1].Record.Contents)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, "d", results[0].Record.Source)
}

func TestQuery_FewerThanK(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "a", "b"), [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	results, err := repo.Query(ctx, "user_1", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "first", "second", "third"),
		[][]float32{{1, 0}, {1, 0}, {1, 0}})
	require.NoError(t, err)

	results, err := repo.Query(ctx, "user_1", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Record.Contents)
	assert.Equal(t, "second", results[1].Record.Contents)
	assert.Equal(t, "third", results[2].Record.Contents)
}

func TestQuery_EmptyCases(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "a"), [][]float32{{1, 0}})
	require.NoError(t, err)

	tests := []struct {
		name string
		ns   core.Namespace
		k    int
	}{
		{"unknown namespace", "user_404", 4},
		{"invalid namespace", "no such:ns", 4},
		{"zero k", "user_1", 0},
		{"negative k", "user_1", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := repo.Query(ctx, tt.ns, []float32{1, 0}, tt.k)
			require.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestQuery_DimensionMismatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "a"), [][]float32{{1, 0}})
	require.NoError(t, err)

	_, err = repo.Query(ctx, "user_1", []float32{1, 0, 0}, 4)
	require.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestNamespaceIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("a.txt", "one in A"), [][]float32{{1, 0}})
	require.NoError(t, err)
	// user_10 shares a string prefix with user_1
	_, err = repo.Upsert(ctx, "user_10", chunksOf("b.txt", "one in B", "two in B"), [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	resultsA, err := repo.Query(ctx, "user_1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, resultsA, 1)
	assert.Equal(t, "one in A", resultsA[0].Record.Contents)

	require.NoError(t, repo.Clear(ctx, "user_1"))

	resultsB, err := repo.Query(ctx, "user_10", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, resultsB, 2)

	count, err := repo.Count(ctx, "user_10")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestClear_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "a", "b"), [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	require.NoError(t, repo.Clear(ctx, "user_1"))
	require.NoError(t, repo.Clear(ctx, "user_1"))
	require.NoError(t, repo.Clear(ctx, "never_existed"))
	require.NoError(t, repo.Clear(ctx, "bad key!"))

	results, err := repo.Query(ctx, "user_1", []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = repo.Info(ctx, "user_1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	chunks, err := repo.Chunks(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestClear_ResetsDimension(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "a"), [][]float32{{1, 0}})
	require.NoError(t, err)
	require.NoError(t, repo.Clear(ctx, "user_1"))

	_, err = repo.Upsert(ctx, "user_1", chunksOf("d", "a"), [][]float32{{1, 0, 0}})
	require.NoError(t, err)
}

func TestListNamespaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, ns := range []core.Namespace{"user_2", "user_10", "user_1", "team_1"} {
		_, err := repo.Upsert(ctx, ns, chunksOf("d", "x"), [][]float32{{1}})
		require.NoError(t, err)
	}

	all, err := repo.ListNamespaces(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []core.Namespace{"team_1", "user_1", "user_10", "user_2"}, all)

	users, err := repo.ListNamespaces(ctx, core.UserNamespacePrefix)
	require.NoError(t, err)
	assert.Equal(t, []core.Namespace{"user_1", "user_10", "user_2"}, users)

	none, err := repo.ListNamespaces(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChunks_InsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("a", "a0", "a1"), [][]float32{{1}, {1}})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "user_1", chunksOf("b", "b0"), [][]float32{{1}})
	require.NoError(t, err)

	chunks, err := repo.Chunks(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a0", chunks[0].Contents)
	assert.Equal(t, "a1", chunks[1].Contents)
	assert.Equal(t, "b0", chunks[2].Contents)
	assert.NotEqual(t, chunks[0].DocumentId, chunks[2].DocumentId)
}

func TestReplaceVectors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "user_1", chunksOf("d", "a", "b"), [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	chunks, err := repo.Chunks(ctx, "user_1")
	require.NoError(t, err)

	t.Run("partial dimension change rejected", func(t *testing.T) {
		rec := *chunks[0]
		rec.Vector = []float32{1, 0, 0}
		err := repo.ReplaceVectors(ctx, "user_1", []*core.ChunkRecord{&rec})
		require.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})

	t.Run("full replacement changes dimension", func(t *testing.T) {
		updated := make([]*core.ChunkRecord, len(chunks))
		for i, c := range chunks {
			rec := *c
			rec.Vector = []float32{0, 0, float32(i + 1)}
			updated[i] = &rec
		}
		require.NoError(t, repo.ReplaceVectors(ctx, "user_1", updated))

		info, err := repo.Info(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, 3, info.Dimension)

		results, err := repo.Query(ctx, "user_1", []float32{0, 0, 1}, 4)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})

	t.Run("unknown record", func(t *testing.T) {
		err := repo.ReplaceVectors(ctx, "user_1", []*core.ChunkRecord{{Id: 999999, Vector: []float32{1, 0, 0}}})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("unknown namespace", func(t *testing.T) {
		err := repo.ReplaceVectors(ctx, "user_404", []*core.ChunkRecord{{Id: 1, Vector: []float32{1}}})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestConcurrentNamespaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns := core.NamespaceForUser(int64(i))
			for j := 0; j < 5; j++ {
				_, err := repo.Upsert(ctx, ns, chunksOf("d", fmt.Sprintf("chunk %d", j)), [][]float32{{1, float32(j)}})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		count, err := repo.Count(ctx, core.NamespaceForUser(int64(i)))
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewRepository(dir)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "user_1", chunksOf("d", "durable"), [][]float32{{1, 0}})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewRepository(dir)
	require.NoError(t, err)
	defer repo.Close()

	results, err := repo.Query(ctx, "user_1", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "durable", results[0].Record.Contents)

	records, err := repo.Upsert(ctx, "user_1", chunksOf("d", "later"), [][]float32{{0, 1}})
	require.NoError(t, err)
	assert.Greater(t, records[0].Id, results[0].Record.Id)
}
