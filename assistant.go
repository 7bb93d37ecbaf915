package docent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/docent/chat"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/session"
	"github.com/poiesic/docent/storage"
)

// ErrNothingIngested is returned when a document yields no text to index.
var ErrNothingIngested = errors.New("document contains no text")

// PreviewLimit is the number of characters Preview keeps.
const PreviewLimit = 4000

// Assistant is the session-aware entry point used by front ends. Each user
// has one namespace and one session.
type Assistant struct {
	repo      storage.ChunkRepository
	ingest    *ingestion.Pipeline
	answer    *chat.Pipeline
	summarize *chat.Summarizer
	sessions  *session.Registry
	logger    *slog.Logger
}

// NewAssistant builds an assistant over db. Release must be called when
// the assistant is no longer used.
func (db *Database) NewAssistant() (*Assistant, error) {
	ingest, err := db.NewIngestionPipeline()
	if err != nil {
		return nil, err
	}
	answer, err := db.NewChatPipeline()
	if err != nil {
		ingest.Release()
		return nil, err
	}
	summarize, err := db.NewSummarizer()
	if err != nil {
		ingest.Release()
		return nil, err
	}
	return &Assistant{
		repo:      db.repo,
		ingest:    ingest,
		answer:    answer,
		summarize: summarize,
		sessions:  session.NewRegistry(db.options.defaultModel),
		logger:    db.logger.With("component", "assistant"),
	}, nil
}

// Release frees the ingestion worker pool.
func (a *Assistant) Release() {
	a.ingest.Release()
}

// Session returns the user's session.
func (a *Assistant) Session(userID int64) *session.Session {
	return a.sessions.Get(userID)
}

// IngestDocument indexes text into the user's namespace and binds the
// user's session to it, ready to start a chat.
func (a *Assistant) IngestDocument(ctx context.Context, userID int64, text, source string) (*ingestion.Result, error) {
	ns := core.NamespaceForUser(userID)
	result, err := a.ingest.Ingest(ctx, ns, text, source)
	if err != nil {
		return nil, err
	}
	if result.Chunks == 0 {
		return nil, ErrNothingIngested
	}
	a.sessions.Get(userID).Bind(ns)
	a.logger.Info("document ready", "user", userID, "source", result.Source, "chunks", result.Chunks)
	return result, nil
}

// StartChat moves the user's session into chatting with a fresh history.
func (a *Assistant) StartChat(userID int64) error {
	return a.sessions.Get(userID).StartChat()
}

// Ask answers a question in the user's chat and records the turn.
func (a *Assistant) Ask(ctx context.Context, userID int64, question string) (*chat.Turn, error) {
	return a.answer.Answer(ctx, a.sessions.Get(userID), question)
}

// Summarize condenses a whole document with the model of the user's
// session. It does not touch the user's namespace or chat.
func (a *Assistant) Summarize(ctx context.Context, userID int64, text string) (string, error) {
	model := a.sessions.Get(userID).Model()
	summary, err := a.summarize.Summarize(ctx, text, model)
	if errors.Is(err, chat.ErrEmptyText) {
		return "", ErrNothingIngested
	}
	if err != nil {
		return "", &chat.StageError{Stage: chat.StageSummarize, Err: err}
	}
	a.logger.Info("document summarized", "user", userID, "model", model, "chars", len(text))
	return summary, nil
}

// SelectModel changes the generation model of the user's session.
func (a *Assistant) SelectModel(userID int64, model string) {
	a.sessions.Get(userID).SelectModel(model)
}

// EndChat ends the user's chat. Stored documents are kept.
func (a *Assistant) EndChat(userID int64) {
	a.sessions.Get(userID).End()
}

// ClearDocuments deletes the user's namespace and ends the session.
func (a *Assistant) ClearDocuments(ctx context.Context, userID int64) error {
	if err := a.repo.Clear(ctx, core.NamespaceForUser(userID)); err != nil {
		return err
	}
	a.sessions.Get(userID).End()
	return nil
}

// Namespaces lists stored namespaces starting with prefix.
func (a *Assistant) Namespaces(ctx context.Context, prefix string) ([]core.Namespace, error) {
	return a.repo.ListNamespaces(ctx, prefix)
}

// Preview returns the first PreviewLimit characters of a document's text,
// marking the cut when there is one.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return text
	}
	return string(runes[:PreviewLimit]) +
		fmt.Sprintf("\n\n[... content too long, showing the first %d characters ...]", PreviewLimit)
}
