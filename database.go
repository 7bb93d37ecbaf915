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

// Package docent is a per-user document knowledge base with grounded,
// multi-turn question answering.
//
// A Database opens the chunk store and the AI provider once per process and
// hands them to the ingestion, retrieval and chat pipelines. An Assistant
// ties those pipelines to per-user sessions for front ends such as the CLI
// and the HTTP API.
package docent

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/openai"
	"github.com/poiesic/docent/chat"
	"github.com/poiesic/docent/chunker"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/reembed"
	"github.com/poiesic/docent/search"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
)

type Database struct {
	backend  *badger.Backend
	repo     *badger.ChunkRepository
	provider ai.AIProvider
	options  *databaseOptions
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	logger       *slog.Logger
	inMemory     bool
	chunkMaxSize int
	chunkOverlap int
	batchSize    int
	poolSize     int
	retrievalK   int
	defaultModel string
}

// WithAIConfig configures the OpenAI-compatible provider the database opens.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider uses provider instead of opening one from the AI config.
// The database does not close a provider it was given.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// WithInMemory keeps the store in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithChunking sets the chunk size limit and overlap used for ingestion.
func WithChunking(maxSize, overlap int) DatabaseOption {
	return func(o *databaseOptions) {
		o.chunkMaxSize = maxSize
		o.chunkOverlap = overlap
	}
}

// WithEmbedBatchSize sets how many chunks are embedded per call.
func WithEmbedBatchSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.batchSize = size
	}
}

// WithPoolSize sets the embedding worker pool size. Zero keeps the
// ingestion default.
func WithPoolSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.poolSize = size
	}
}

// WithRetrievalK sets how many chunks are retrieved per question.
func WithRetrievalK(k int) DatabaseOption {
	return func(o *databaseOptions) {
		o.retrievalK = k
	}
}

// WithDefaultModel sets the generation model new sessions start with.
func WithDefaultModel(model string) DatabaseOption {
	return func(o *databaseOptions) {
		o.defaultModel = model
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig:     ai.DefaultConfig(),
		logger:       slog.Default(),
		chunkMaxSize: chunker.DefaultMaxSize,
		chunkOverlap: chunker.DefaultOverlap,
		batchSize:    ingestion.DefaultBatchSize,
		retrievalK:   search.DefaultK,
		defaultModel: ai.DefaultModel,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if _, err := chunker.New(options.chunkMaxSize, options.chunkOverlap); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		repo:     repo,
		provider: provider,
		options:  options,
		logger:   options.logger,
	}, nil
}

func (db *Database) Close() error {
	var errs []error
	// Close AI provider first
	if db.options.provider == nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		errs = append(errs, err)
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (db *Database) Repository() storage.ChunkRepository {
	return db.repo
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// DefaultModel returns the generation model new sessions start with.
func (db *Database) DefaultModel() string {
	return db.options.defaultModel
}

// NewIngestionPipeline creates an ingestion pipeline configured from the
// database options; opts are applied after them.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithChunking(db.options.chunkMaxSize, db.options.chunkOverlap),
		ingestion.WithBatchSize(db.options.batchSize),
		ingestion.WithLogger(db.logger),
	}
	if db.options.poolSize > 0 {
		base = append(base, ingestion.WithPoolSize(db.options.poolSize))
	}
	return ingestion.NewPipeline(db.repo, db.provider, append(base, opts...)...)
}

func (db *Database) NewRetriever(opts ...search.Option) (*search.Retriever, error) {
	base := []search.Option{
		search.WithDefaultK(db.options.retrievalK),
		search.WithLogger(db.logger),
	}
	return search.NewRetriever(db.repo, db.provider.Embedder(), append(base, opts...)...)
}

func (db *Database) NewChatPipeline(opts ...chat.Option) (*chat.Pipeline, error) {
	retriever, err := db.NewRetriever()
	if err != nil {
		return nil, err
	}
	base := []chat.Option{
		chat.WithK(db.options.retrievalK),
		chat.WithLogger(db.logger),
	}
	return chat.NewPipeline(retriever, db.provider.Generator(), append(base, opts...)...)
}

// NewSummarizer creates a whole-document summarizer over the provider's
// generator.
func (db *Database) NewSummarizer() (*chat.Summarizer, error) {
	return chat.NewSummarizer(db.provider.Generator(), db.logger)
}

// NewReembedder creates a reembedder that rebuilds vectors with the
// database's current embedder.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.repo, db.provider.Embedder(), config, progress)
}
