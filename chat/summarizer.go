package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// DefaultSummaryInput caps how many characters of a document are sent to
// the model for a summary.
const DefaultSummaryInput = 100_000

// Summarizer condenses a whole document with one generator call.
type Summarizer struct {
	generator ai.Generator
	maxInput  int
	logger    *slog.Logger
}

// NewSummarizer creates a summarizer backed by generator.
func NewSummarizer(generator ai.Generator, logger *slog.Logger) (*Summarizer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		generator: generator,
		maxInput:  DefaultSummaryInput,
		logger:    logger.With("component", "summarizer"),
	}, nil
}

// Summarize returns a summary of text written by model. Text longer than
// DefaultSummaryInput characters is cut before it is sent.
func (s *Summarizer) Summarize(ctx context.Context, text, model string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if runes := []rune(text); len(runes) > s.maxInput {
		s.logger.Debug("truncating summary input", "chars", len(runes), "limit", s.maxInput)
		text = string(runes[:s.maxInput])
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: summarizeSystemPrompt},
		{Role: ai.RoleHuman, Content: fmt.Sprintf(summarizeUserPrompt, text)},
	}
	summary, err := s.generator.Generate(ctx, model, messages)
	if err != nil {
		s.logger.Error("error summarizing", "model", model, "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrSynthesis, err)
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("%w: empty summary", core.ErrSynthesis)
	}
	s.logger.Debug("text summarized", "chars", len(text), "model", model)
	return summary, nil
}
