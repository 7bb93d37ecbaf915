package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// BatchProcessor generates fresh embeddings for batches of chunk records.
type BatchProcessor struct {
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the contents of records and returns copies carrying the
// new vectors. The input records are not modified and nothing is written.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.ChunkRecord) ([]*core.ChunkRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Contents
	}

	var embeddings [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(records) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", core.ErrEmbedding, len(records), len(embeddings))
	}

	updated := make([]*core.ChunkRecord, len(records))
	for i, record := range records {
		if len(embeddings[i]) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for chunk %d", core.ErrEmbedding, record.Id)
		}
		clone := *record
		clone.Vector = embeddings[i]
		updated[i] = &clone
	}
	return updated, nil
}
