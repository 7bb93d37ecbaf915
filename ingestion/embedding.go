package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// embeddingProcessor embeds chunk texts in fixed-size batches on a worker pool.
type embeddingProcessor struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

func newEmbeddingProcessor(embedder ai.Embedder, pool *ants.Pool, batchSize int, logger *slog.Logger) (*embeddingProcessor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if pool == nil {
		return nil, fmt.Errorf("worker pool required")
	}
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder:  embedder,
		pool:      pool,
		batchSize: batchSize,
		logger:    logger.With("processor", "embeddings"),
	}, nil
}

// process returns one embedding per text, in input order. All batches must
// succeed; failures are joined and wrapped in core.ErrEmbedding. If ctx
// ends first, process returns ctx.Err() without waiting for running batches,
// whose results are then dropped.
func (ep *embeddingProcessor) process(ctx context.Context, texts []string) ([][]float32, error) {
	nBatches := (len(texts) + ep.batchSize - 1) / ep.batchSize
	ep.logger.Debug("embedding texts", "texts", len(texts), "batches", nBatches)

	vectors := make([][]float32, len(texts))
	errs := make([]error, nBatches)
	done := make(chan struct{})

	// Submission runs in its own goroutine because Submit blocks while the
	// pool is saturated, and the caller must still observe ctx.
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for b := 0; b < nBatches; b++ {
			if err := ctx.Err(); err != nil {
				errs[b] = err
				continue
			}
			start := b * ep.batchSize
			end := min(start+ep.batchSize, len(texts))
			batch := texts[start:end]

			wg.Add(1)
			err := ep.pool.Submit(func() {
				defer wg.Done()
				embeddings, err := ep.embedder.EmbedTexts(ctx, batch)
				if err == nil && len(embeddings) != len(batch) {
					err = fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(embeddings))
				}
				if err != nil {
					errs[b] = err
					return
				}
				// batches write disjoint ranges
				copy(vectors[start:end], embeddings)
			})
			if err != nil {
				wg.Done()
				errs[b] = err
			}
		}
		wg.Wait()
	}()

	select {
	case <-ctx.Done():
		ep.logger.Debug("embedding abandoned", "err", ctx.Err())
		return nil, ctx.Err()
	case <-done:
	}

	if err := errors.Join(errs...); err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		if errors.Is(err, core.ErrEmbedding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, err)
	}
	return vectors, nil
}
