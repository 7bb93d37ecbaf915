package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// DefaultK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultK = 4

// Retriever finds the stored chunks most similar to a question.
type Retriever struct {
	repository storage.ChunkRepository
	embedder   ai.Embedder
	defaultK   int
	logger     *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithDefaultK sets the number of results used when Retrieve gets k <= 0.
// Default is 4.
func WithDefaultK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return fmt.Errorf("default k must be positive, got %d", k)
		}
		r.defaultK = k
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(repository storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		repository: repository,
		embedder:   embedder,
		defaultK:   DefaultK,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")

	return r, nil
}

// DefaultK returns the number of results used when Retrieve gets k <= 0.
func (r *Retriever) DefaultK() int {
	return r.defaultK
}

// Retrieve returns up to k chunks of ns nearest to question, nearest first.
func (r *Retriever) Retrieve(ctx context.Context, ns core.Namespace, question string, k int) ([]*core.SearchResult, error) {
	return r.RetrieveWithMonitor(ctx, ns, question, k, nil)
}

// RetrieveWithMonitor is Retrieve with monitoring. The monitor receives
// callbacks at each stage of the retrieval.
//
// A namespace without chunks yields an empty result and no embedding call.
// Embedding failures are returned wrapping core.ErrEmbedding.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, ns core.Namespace, question string, k int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if k <= 0 {
		k = r.defaultK
	}

	monitor.Start(ns, question)

	count, err := r.repository.Count(ctx, ns)
	if err != nil {
		r.logger.Error("error counting chunks", "namespace", ns, "err", err)
		return nil, err
	}
	if count == 0 {
		r.logger.Debug("namespace is empty", "namespace", ns)
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	vector, err := r.embedder.EmbedText(ctx, question)
	if err != nil {
		r.logger.Error("error generating embedding for question", "namespace", ns, "err", err)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, wrapEmbedding(err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty question embedding", core.ErrEmbedding)
	}
	monitor.AfterEmbedding(vector)

	results, err := r.repository.Query(ctx, ns, vector, k)
	if err != nil {
		r.logger.Error("error querying for similar chunks", "namespace", ns, "err", err)
		return nil, err
	}
	monitor.AfterQuery(results)

	r.logger.Debug("retrieved chunks", "namespace", ns, "k", k, "results", len(results))
	monitor.Finish(results)
	return results, nil
}
