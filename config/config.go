// Package config loads the docent configuration file and .env secrets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/chunker"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/search"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIKeyEnv names the environment variable holding the generation API key.
	DefaultAPIKeyEnv = "OPENROUTER_API_KEY"

	DefaultDatabasePath  = "docent-data"
	DefaultServerAddress = ":8080"
)

// AIConfig configures the embedding and generation backends.
type AIConfig struct {
	EmbeddingHost   string        `yaml:"embedding_host"`
	GenerationHost  string        `yaml:"generation_host"`
	EmbeddingModel  string        `yaml:"embedding_model"`
	GenerationModel string        `yaml:"generation_model"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

// ChunkingConfig configures how documents are split.
type ChunkingConfig struct {
	MaxSize int `yaml:"chunk_max_size"`
	Overlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig configures question answering.
type RetrievalConfig struct {
	K int `yaml:"retrieval_k"`
}

// IngestionConfig configures the embedding worker pool.
type IngestionConfig struct {
	BatchSize int `yaml:"embed_batch_size"`
	PoolSize  int `yaml:"pool_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// File is the root configuration structure.
type File struct {
	DatabasePath string          `yaml:"database_path"`
	AI           AIConfig        `yaml:"ai"`
	Chunking     ChunkingConfig  `yaml:"chunking"`
	Retrieval    RetrievalConfig `yaml:"retrieval"`
	Ingestion    IngestionConfig `yaml:"ingestion"`
	Server       ServerConfig    `yaml:"server"`
}

// Default returns the configuration used when no file exists.
func Default() *File {
	aiDefaults := ai.DefaultConfig()
	return &File{
		DatabasePath: DefaultDatabasePath,
		AI: AIConfig{
			EmbeddingHost:   aiDefaults.EmbeddingHost,
			GenerationHost:  aiDefaults.GenerationHost,
			EmbeddingModel:  aiDefaults.EmbeddingModel,
			GenerationModel: aiDefaults.GenerationModel,
			APIKeyEnv:       DefaultAPIKeyEnv,
			MaxRetries:      aiDefaults.MaxRetries,
			RetryDelay:      aiDefaults.RetryDelay,
		},
		Chunking: ChunkingConfig{
			MaxSize: chunker.DefaultMaxSize,
			Overlap: chunker.DefaultOverlap,
		},
		Retrieval: RetrievalConfig{K: search.DefaultK},
		Ingestion: IngestionConfig{BatchSize: ingestion.DefaultBatchSize},
		Server:    ServerConfig{Address: DefaultServerAddress},
	}
}

// Load reads a config from path. If the file does not exist, defaults are
// returned. Zero values in the file are replaced by defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultPath returns ~/.config/docent/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docent", "config.yaml"), nil
}

// ApplyDefaults fills zero values with defaults.
func (f *File) ApplyDefaults() {
	def := Default()
	if f.DatabasePath == "" {
		f.DatabasePath = def.DatabasePath
	}
	if f.AI.EmbeddingHost == "" {
		f.AI.EmbeddingHost = def.AI.EmbeddingHost
	}
	if f.AI.GenerationHost == "" {
		f.AI.GenerationHost = def.AI.GenerationHost
	}
	if f.AI.EmbeddingModel == "" {
		f.AI.EmbeddingModel = def.AI.EmbeddingModel
	}
	if f.AI.GenerationModel == "" {
		f.AI.GenerationModel = def.AI.GenerationModel
	}
	if f.AI.APIKeyEnv == "" {
		f.AI.APIKeyEnv = def.AI.APIKeyEnv
	}
	if f.AI.MaxRetries == 0 {
		f.AI.MaxRetries = def.AI.MaxRetries
	}
	if f.AI.RetryDelay == 0 {
		f.AI.RetryDelay = def.AI.RetryDelay
	}
	// Overlap 0 is a legitimate choice, so it is only defaulted together
	// with the size.
	if f.Chunking.MaxSize == 0 {
		f.Chunking.MaxSize = def.Chunking.MaxSize
		if f.Chunking.Overlap == 0 {
			f.Chunking.Overlap = def.Chunking.Overlap
		}
	}
	if f.Retrieval.K == 0 {
		f.Retrieval.K = def.Retrieval.K
	}
	if f.Ingestion.BatchSize == 0 {
		f.Ingestion.BatchSize = def.Ingestion.BatchSize
	}
	if f.Server.Address == "" {
		f.Server.Address = def.Server.Address
	}
}

// Validate reports settings that would fail later at component construction.
func (f *File) Validate() error {
	if _, err := chunker.New(f.Chunking.MaxSize, f.Chunking.Overlap); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	if f.Retrieval.K < 1 {
		return fmt.Errorf("retrieval_k must be positive, got %d", f.Retrieval.K)
	}
	if f.Ingestion.BatchSize < 1 {
		return fmt.Errorf("embed_batch_size must be positive, got %d", f.Ingestion.BatchSize)
	}
	if f.Ingestion.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative, got %d", f.Ingestion.PoolSize)
	}
	return nil
}

// AIOptions translates the AI section into ai.Config options. The API key is
// read from the environment variable named by APIKeyEnv.
func (f *File) AIOptions() []ai.ConfigOption {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(f.AI.EmbeddingHost),
		ai.WithGenerationHost(f.AI.GenerationHost),
		ai.WithEmbeddingModel(f.AI.EmbeddingModel),
		ai.WithGenerationModel(f.AI.GenerationModel),
		ai.WithMaxRetries(f.AI.MaxRetries),
		ai.WithRetryDelay(f.AI.RetryDelay),
	}
	if f.AI.APIKeyEnv != "" {
		opts = append(opts, ai.WithAPIKey(os.Getenv(f.AI.APIKeyEnv)))
	}
	return opts
}

// LoadEnv loads variables from .env files into the process environment.
// With no paths it reads ./.env. Missing files are ignored; variables that
// are already set are not overridden.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}
