package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	embedCalls atomic.Int32
	chatCalls  atomic.Int32
	// dropVector makes the embeddings endpoint return one vector too few
	dropVector bool
	failChat   bool
	lastModel  atomic.Value
	lastChat   atomic.Value // []map[string]any
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/embeddings"):
		f.embedCalls.Add(1)
		inputs, _ := body["input"].([]any)
		n := len(inputs)
		if f.dropVector && n > 0 {
			n--
		}
		data := make([]map[string]any, n)
		for i := range data {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i + 1), 0.5, 0.25},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  body["model"],
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		f.chatCalls.Add(1)
		if f.failChat {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
			return
		}
		f.lastModel.Store(body["model"])
		if msgs, ok := body["messages"].([]any); ok {
			var chat []map[string]any
			for _, m := range msgs {
				chat = append(chat, m.(map[string]any))
			}
			f.lastChat.Store(chat)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Paris."},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestConfig(url string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(url),
		ai.WithMaxRetries(1),
		ai.WithRetryDelay(time.Millisecond),
	)
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	embedder, err := NewEmbedder(newTestConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 3)

	vec, err := embedder.EmbedText(context.Background(), "single")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}

func TestEmbedder_EmptyInput(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	embedder, err := NewEmbedder(newTestConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Equal(t, int32(0), backend.embedCalls.Load())
}

func TestEmbedder_MalformedResponse(t *testing.T) {
	backend := &fakeBackend{dropVector: true}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	embedder, err := NewEmbedder(newTestConfig(srv.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(context.Background(), []string{"one", "two"})
	require.ErrorIs(t, err, core.ErrEmbedding)
}

func TestEmbedder_BackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	embedder, err := NewEmbedder(newTestConfig(url))
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(context.Background(), []string{"one"})
	require.ErrorIs(t, err, core.ErrEmbedding)
}

func TestGenerator_Generate(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	gen, err := NewGenerator(newTestConfig(srv.URL))
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), "openai/gpt-4o-mini", []ai.Message{
		{Role: ai.RoleSystem, Content: "be brief"},
		{Role: ai.RoleHuman, Content: "capital of France?"},
		{Role: ai.RoleAssistant, Content: "earlier reply"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", reply)
	assert.Equal(t, "openai/gpt-4o-mini", backend.lastModel.Load())
	chat, _ := backend.lastChat.Load().([]map[string]any)
	require.Len(t, chat, 3)
	assert.Equal(t, "system", chat[0]["role"])
	assert.Equal(t, "user", chat[1]["role"])
	assert.Equal(t, "assistant", chat[2]["role"])
}

func TestGenerator_DefaultModel(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	gen, err := NewGenerator(newTestConfig(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "", []ai.Message{{Role: ai.RoleHuman, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultModel, backend.lastModel.Load())
}

func TestGenerator_Failure(t *testing.T) {
	backend := &fakeBackend{failChat: true}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	cfg.MaxRetries = 2
	gen, err := NewGenerator(cfg)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "", []ai.Message{{Role: ai.RoleHuman, Content: "hi"}})
	require.Error(t, err)
	assert.GreaterOrEqual(t, backend.chatCalls.Load(), int32(2))
}

func TestGenerator_RejectsUnknownRole(t *testing.T) {
	gen, err := NewGenerator(newTestConfig("http://localhost:1"))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "", []ai.Message{{Role: ai.MessageRole(42), Content: "?"}})
	require.Error(t, err)
}

func TestProvider(t *testing.T) {
	provider, err := NewProvider(newTestConfig("http://localhost:1"))
	require.NoError(t, err)
	assert.NotNil(t, provider.Embedder())
	assert.NotNil(t, provider.Generator())
	assert.NoError(t, provider.Close())
}

func TestProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{})
	require.Error(t, err)
}
