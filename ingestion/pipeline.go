package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/chunker"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

const (
	// DefaultBatchSize is the number of chunks sent to the embedder per call.
	DefaultBatchSize = 32

	// DefaultSource names documents ingested without a source name.
	DefaultSource = "untitled"
)

// Pipeline turns document text into stored, embedded chunks:
// chunk, embed on a worker pool, then upsert in a single write.
type Pipeline struct {
	repository    storage.ChunkRepository
	embedder      ai.Embedder
	splitter      *chunker.Splitter
	embeddingPool *ants.Pool
	embeddingProc *embeddingProcessor
	batchSize     int
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithChunking sets the chunk size limit and overlap, in characters.
// Default is 1000 and 200.
func WithChunking(maxSize, overlap int) Option {
	return func(p *Pipeline) error {
		splitter, err := chunker.New(maxSize, overlap)
		if err != nil {
			return err
		}
		p.splitter = splitter
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per embedder call.
// Default is 32.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.ChunkRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	splitter, err := chunker.New(chunker.DefaultMaxSize, chunker.DefaultOverlap)
	if err != nil {
		embeddingPool.Release()
		return nil, err
	}

	p := &Pipeline{
		repository:    repository,
		embedder:      provider.Embedder(),
		splitter:      splitter,
		embeddingPool: embeddingPool,
		batchSize:     DefaultBatchSize,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Created after options are applied so it sees the final pool and batch size
	p.embeddingProc, err = newEmbeddingProcessor(p.embedder, p.embeddingPool, p.batchSize, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Result describes a completed ingestion.
type Result struct {
	Namespace  core.Namespace
	Source     string
	Chunks     int
	// Removed counts earlier chunks of the source dropped by Replace.
	Removed    int
	DocumentId core.ID
	Duration   time.Duration
}

// Ingest splits text into chunks, embeds them and stores them in ns.
//
// The write is all-or-nothing: if any embedding fails, nothing is stored.
// Text with no non-space content yields a Result with zero chunks and no
// write. Failures are returned as *StageError; cancellation of ctx is
// returned as ctx.Err() as soon as it is observed.
func (p *Pipeline) Ingest(ctx context.Context, ns core.Namespace, text, source string) (*Result, error) {
	return p.run(ctx, ns, text, source, false)
}

// Replace is Ingest for a document that may have been ingested before: the
// chunks previously stored under source are swapped for the new ones in the
// same write. Blank text removes the source's chunks.
func (p *Pipeline) Replace(ctx context.Context, ns core.Namespace, text, source string) (*Result, error) {
	return p.run(ctx, ns, text, source, true)
}

func (p *Pipeline) run(ctx context.Context, ns core.Namespace, text, source string, replace bool) (*Result, error) {
	started := time.Now()
	if err := core.ValidateNamespace(ns); err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	if source == "" {
		source = DefaultSource
	}
	result := &Result{Namespace: ns, Source: source}
	if strings.TrimSpace(text) == "" {
		if replace {
			removed, err := p.repository.DeleteSource(ctx, ns, source)
			if err != nil {
				return nil, &StageError{Stage: StageStore, Err: err}
			}
			result.Removed = removed
		}
		p.logger.Debug("nothing to ingest", "namespace", ns, "source", source, "removed", result.Removed)
		return result, nil
	}

	texts := p.splitter.Split(text)
	chunks := make([]core.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = core.Chunk{Text: t, Source: source, Index: i}
	}
	p.logger.Debug("document chunked", "namespace", ns, "source", source, "chunks", len(chunks))

	vectors, err := p.embeddingProc.process(ctx, texts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &StageError{Stage: StageEmbed, Err: err}
	}
	// Work finished but the caller already gave up; nothing is written.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*core.ChunkRecord
	if replace {
		records, result.Removed, err = p.repository.ReplaceSource(ctx, ns, source, chunks, vectors)
	} else {
		records, err = p.repository.Upsert(ctx, ns, chunks, vectors)
	}
	if err != nil {
		return nil, &StageError{Stage: StageStore, Err: err}
	}

	result.Chunks = len(records)
	if len(records) > 0 {
		result.DocumentId = records[0].DocumentId
	}
	result.Duration = time.Since(started)
	p.logger.Info("document ingested", "namespace", ns, "source", source,
		"chunks", result.Chunks, "replaced", result.Removed, "duration", result.Duration)
	return result, nil
}

// Splitter returns the chunker used by the pipeline.
func (p *Pipeline) Splitter() *chunker.Splitter {
	return p.splitter
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
