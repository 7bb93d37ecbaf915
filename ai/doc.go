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

// Package ai provides abstractions for the AI services docent depends on.
//
// The core pipelines see two capabilities only:
//
//   - Embedder: maps text to fixed-dimension vectors
//   - Generator: completes a chat message sequence with a named model
//
// AIProvider bundles both for initialization and lifecycle management.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//     (Ollama for embeddings and OpenRouter for generation by default)
//   - ai/mock: deterministic test doubles
//
// Public constructors in ai/openai return interface types. The mock
// constructors return concrete types so tests can script behaviour and
// inspect recorded calls.
//
// # Retries
//
// Transient backend failures are retried inside the implementations with
// RetryWithBackoff, bounded by Config.MaxRetries. Callers of Embedder and
// Generator never retry.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENROUTER_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	reply, err := provider.Generator().Generate(ctx, ai.DefaultModel, []ai.Message{
//	    {Role: ai.RoleHuman, Content: "Hello"},
//	})
package ai
