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

package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client       llms.Model
	defaultModel string
	config       *ai.Config
	logger       *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.Token()),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:       client,
		defaultModel: config.GenerationModel,
		config:       config,
		logger:       slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate sends messages to model and returns the first choice's content.
func (g *Generator) Generate(ctx context.Context, model string, messages []ai.Message) (string, error) {
	if model == "" {
		model = g.defaultModel
	}
	content, err := toMessageContent(messages)
	if err != nil {
		return "", err
	}

	var reply string
	err = ai.RetryWithBackoff(ctx, func() error {
		response, err := g.client.GenerateContent(ctx, content, llms.WithModel(model), llms.WithTemperature(0.0))
		if err != nil {
			g.logger.Warn("failed to generate content", "model", model, "err", err)
			return err
		}
		if len(response.Choices) < 1 {
			return ai.ErrEmptyResponse
		}
		reply = response.Choices[0].Content
		return nil
	}, g.config.MaxRetries, g.config.RetryDelay)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ai.ErrEmptyResponse
	}

	g.logger.Debug("generated reply", "model", model, "messages", len(messages), "length", len(reply))
	return reply, nil
}

func toMessageContent(messages []ai.Message) ([]llms.MessageContent, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case ai.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.RoleHuman:
			role = llms.ChatMessageTypeHuman
		case ai.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			return nil, fmt.Errorf("unsupported message role %d", m.Role)
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}
	return content, nil
}
