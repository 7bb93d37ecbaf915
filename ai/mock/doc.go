// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder, MockGenerator and MockProvider let tests run without
// external AI services while keeping behaviour deterministic.
//
// # Usage in Tests
//
//	provider := mock.NewMockProvider()
//	gen := provider.GetMockGenerator()
//	gen.GenerateFunc = func(ctx context.Context, model string, msgs []ai.Message) (string, error) {
//	    return "", errors.New("backend down")
//	}
//
//	// later
//	assert.Equal(t, 1, gen.CallCount())
//
// # Default Behavior
//
//   - MockEmbedder: hashed bag-of-words vectors, so shared vocabulary means
//     higher cosine similarity
//   - MockGenerator: returns Reply, or echoes the last message content
//   - MockProvider: aggregates both
package mock
