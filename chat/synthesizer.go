package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// Synthesizer produces answers grounded in retrieved chunks.
type Synthesizer struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewSynthesizer creates a synthesizer backed by generator.
func NewSynthesizer(generator ai.Generator, logger *slog.Logger) (*Synthesizer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{generator: generator, logger: logger.With("component", "synthesizer")}, nil
}

// Synthesize answers question from chunks, which are presented to the model
// in the given order. The generator output is returned verbatim. With no
// chunks the model is still asked, with an explicit empty context.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []*core.SearchResult, model string) (string, error) {
	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: fmt.Sprintf(answerSystemPrompt, FormatContext(chunks))},
		{Role: ai.RoleHuman, Content: question},
	}

	answer, err := s.generator.Generate(ctx, model, messages)
	if err != nil {
		s.logger.Error("error synthesizing answer", "model", model, "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrSynthesis, err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: empty answer", core.ErrSynthesis)
	}
	s.logger.Debug("answer synthesized", "chunks", len(chunks), "model", model)
	return answer, nil
}

// FormatContext renders chunks as numbered, source-tagged blocks separated
// by a horizontal rule.
func FormatContext(chunks []*core.SearchResult) string {
	if len(chunks) == 0 {
		return noContextBlock
	}
	blocks := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if chunk == nil || chunk.Record == nil {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%d] (source: %s)\n%s", i+1, chunk.Record.Source, chunk.Record.Contents))
	}
	if len(blocks) == 0 {
		return noContextBlock
	}
	return strings.Join(blocks, contextDelimiter)
}
