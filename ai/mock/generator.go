package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docent/ai"
)

// GenerateCall records one Generate invocation.
type GenerateCall struct {
	Model    string
	Messages []ai.Message
}

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set. If nil, Generate replies
	// with Reply, or echoes the last message when Reply is empty.
	GenerateFunc func(ctx context.Context, model string, messages []ai.Message) (string, error)

	// Reply is the canned default answer.
	Reply string

	mu    sync.Mutex
	calls []GenerateCall
}

// NewMockGenerator creates a mock generator with default echo behaviour.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the call and returns the scripted reply.
func (m *MockGenerator) Generate(ctx context.Context, model string, messages []ai.Message) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{
		Model:    model,
		Messages: append([]ai.Message(nil), messages...),
	})
	fn := m.GenerateFunc
	reply := m.Reply
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, messages)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reply != "" {
		return reply, nil
	}
	if len(messages) == 0 {
		return "", ai.ErrEmptyResponse
	}
	return messages[len(messages)-1].Content, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent call and whether there was one.
func (m *MockGenerator) LastCall() (GenerateCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return GenerateCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and scripted behaviour.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.GenerateFunc = nil
	m.Reply = ""
}
