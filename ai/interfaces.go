package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error wrapping core.ErrEmbedding if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains exactly one non-empty embedding per input,
	// in input order. A short or malformed backend response is an error,
	// never padded with zero vectors.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// MessageRole identifies the author of a Message.
type MessageRole int

const (
	RoleSystem MessageRole = iota + 1
	RoleHuman
	RoleAssistant
)

func (r MessageRole) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleHuman:
		return "human"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Message is one entry of a chat completion request.
type Message struct {
	Role    MessageRole
	Content string
}

// Generator produces text completions from a sequence of chat messages.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the model's reply to messages. An empty model selects
	// the provider's configured default. The model identifier is passed
	// through to the backend without validation.
	Generate(ctx context.Context, model string, messages []Message) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
