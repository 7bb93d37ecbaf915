package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// Rewriter turns a follow-up question into a standalone question.
type Rewriter struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewRewriter creates a rewriter backed by generator.
func NewRewriter(generator ai.Generator, logger *slog.Logger) (*Rewriter, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{generator: generator, logger: logger.With("component", "rewriter")}, nil
}

// Rewrite returns question rephrased to stand on its own given history.
// Empty history returns question unchanged without calling the generator.
// Generator failures and blank output are reported wrapping core.ErrRewrite;
// the raw question is never substituted.
func (r *Rewriter) Rewrite(ctx context.Context, history []core.Turn, question, model string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: rewriteSystemPrompt})
	for _, turn := range history {
		messages = append(messages, ai.Message{Role: messageRole(turn.Role), Content: turn.Text})
	}
	messages = append(messages, ai.Message{Role: ai.RoleHuman, Content: question})

	out, err := r.generator.Generate(ctx, model, messages)
	if err != nil {
		r.logger.Error("error rewriting question", "model", model, "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrRewrite, err)
	}
	standalone := strings.TrimSpace(out)
	if standalone == "" {
		return "", fmt.Errorf("%w: empty rewrite", core.ErrRewrite)
	}
	r.logger.Debug("question rewritten", "question", question, "standalone", standalone)
	return standalone, nil
}

func messageRole(role core.Role) ai.MessageRole {
	if role == core.RoleAssistant {
		return ai.RoleAssistant
	}
	return ai.RoleHuman
}
