package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkIterator_Batches(t *testing.T) {
	repo := setupTestRepository(t)
	seeded := seedChunks(t, repo, "user_1", 10)

	it := NewChunkIterator(repo, 3)
	var sizes []int
	var seen []core.ID
	err := it.ForEach(context.Background(), "user_1", func(records []*core.ChunkRecord) error {
		sizes = append(sizes, len(records))
		for _, r := range records {
			seen = append(seen, r.Id)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3, 1}, sizes)

	want := make([]core.ID, len(seeded))
	for i, r := range seeded {
		want[i] = r.Id
	}
	assert.Equal(t, want, seen, "insertion order")
}

func TestChunkIterator_DefaultBatchSize(t *testing.T) {
	it := NewChunkIterator(setupTestRepository(t), 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

func TestChunkIterator_EmptyNamespace(t *testing.T) {
	it := NewChunkIterator(setupTestRepository(t), 3)
	called := false
	err := it.ForEach(context.Background(), "user_1", func([]*core.ChunkRecord) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	repo := setupTestRepository(t)
	seedChunks(t, repo, "user_1", 10)

	boom := errors.New("boom")
	calls := 0
	err := NewChunkIterator(repo, 2).ForEach(context.Background(), "user_1", func([]*core.ChunkRecord) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_Cancellation(t *testing.T) {
	repo := setupTestRepository(t)
	seedChunks(t, repo, "user_1", 10)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewChunkIterator(repo, 2).ForEach(ctx, "user_1", func([]*core.ChunkRecord) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
