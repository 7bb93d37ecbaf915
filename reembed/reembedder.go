// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to embed per call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarises the reembedding of one namespace.
type Result struct {
	Namespace    core.Namespace
	Chunks       int
	OldDimension int
	NewDimension int
	Duration     time.Duration
}

// Reembedder rebuilds the vectors of whole namespaces with a new embedder.
type Reembedder struct {
	repo      storage.ChunkRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr, may be nil)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(repo, config.BatchSize),
		logger:    slog.Default().With("component", "reembed"),
	}, nil
}

// Run reembeds every chunk of ns. New vectors are collected for the whole
// namespace first and swapped in with one ReplaceVectors call, so a failure
// part way through leaves the namespace exactly as it was.
func (r *Reembedder) Run(ctx context.Context, ns core.Namespace) (*Result, error) {
	info, err := r.repo.Info(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to read namespace %s: %w", ns, err)
	}

	result := &Result{Namespace: ns, OldDimension: info.Dimension}
	if info.Chunks == 0 {
		fmt.Fprintf(r.progress, "No chunks found in %s\n", ns)
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks in %s (batch size: %d)\n",
		info.Chunks, ns, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, string(ns), info.Chunks, r.config.ReportInterval)
	tracker.Start()

	updated := make([]*core.ChunkRecord, 0, info.Chunks)
	err = r.iterator.ForEach(ctx, ns, func(records []*core.ChunkRecord) error {
		batch, err := r.processor.Process(ctx, records)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		updated = append(updated, batch...)
		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding aborted", "namespace", ns, "err", err)
		return nil, err
	}

	if err := r.repo.ReplaceVectors(ctx, ns, updated); err != nil {
		return nil, fmt.Errorf("failed to store vectors: %w", err)
	}
	tracker.Finish()

	elapsed := tracker.Snapshot().Elapsed
	result.Chunks = len(updated)
	result.NewDimension = len(updated[0].Vector)
	result.Duration = elapsed
	fmt.Fprintf(r.progress, "Reembedding of %s complete. Processed %d chunks in %v (dimension %d -> %d)\n",
		ns, result.Chunks, elapsed.Round(time.Millisecond), result.OldDimension, result.NewDimension)
	r.logger.Info("namespace reembedded", "namespace", ns, "chunks", result.Chunks,
		"old_dimension", result.OldDimension, "new_dimension", result.NewDimension)

	return result, nil
}

// RunAll reembeds every namespace whose key starts with prefix. It stops at
// the first failing namespace; namespaces already done keep their new vectors.
func (r *Reembedder) RunAll(ctx context.Context, prefix string) ([]*Result, error) {
	namespaces, err := r.repo.ListNamespaces(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	results := make([]*Result, 0, len(namespaces))
	for _, ns := range namespaces {
		result, err := r.Run(ctx, ns)
		if err != nil {
			return results, fmt.Errorf("namespace %s: %w", ns, err)
		}
		results = append(results, result)
	}
	return results, nil
}
