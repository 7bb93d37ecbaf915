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

package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/session"
)

// Retriever finds the chunks of a namespace nearest to a question.
// *search.Retriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, ns core.Namespace, question string, k int) ([]*core.SearchResult, error)
}

// Turn is the outcome of one answered question.
type Turn struct {
	Question   string
	Standalone string
	Chunks     []*core.SearchResult
	Answer     string
	Duration   time.Duration
}

// Pipeline runs rewrite, retrieve and synthesize in sequence.
type Pipeline struct {
	rewriter    *Rewriter
	retriever   Retriever
	synthesizer *Synthesizer
	k           int
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithK sets how many chunks are retrieved per question. Values <= 0 leave
// the choice to the retriever's default.
func WithK(k int) Option {
	return func(p *Pipeline) error {
		p.k = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an answer pipeline.
func NewPipeline(retriever Retriever, generator ai.Generator, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	p := &Pipeline{
		retriever: retriever,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "chat")

	var err error
	if p.rewriter, err = NewRewriter(generator, p.logger); err != nil {
		return nil, err
	}
	if p.synthesizer, err = NewSynthesizer(generator, p.logger); err != nil {
		return nil, err
	}
	return p, nil
}

// Answer answers question within sess and records the turn.
//
// The session must be Chatting. The pipeline works on a snapshot, so the
// session is not locked while the model runs; the turn is recorded only if
// the session still holds the snapshot's history. On any failure the
// history is left untouched and the session stays Chatting.
func (p *Pipeline) Answer(ctx context.Context, sess *session.Session, question string) (*Turn, error) {
	snap := sess.Snapshot()
	if snap.State != session.Chatting || snap.Namespace == "" {
		return nil, &StageError{Stage: StageSession, Err: session.ErrNotChatting}
	}

	turn, err := p.Ask(ctx, snap.Namespace, snap.History, question, snap.Model)
	if err != nil {
		return nil, err
	}

	if err := sess.RecordFor(snap, question, turn.Answer); err != nil {
		p.logger.Warn("answer not recorded", "namespace", snap.Namespace, "err", err)
		return nil, &StageError{Stage: StageRecord, Err: err}
	}
	return turn, nil
}

// Ask answers question against ns given an explicit history and model. It
// has no side effects on any session.
func (p *Pipeline) Ask(ctx context.Context, ns core.Namespace, history []core.Turn, question, model string) (*Turn, error) {
	started := time.Now()
	if strings.TrimSpace(question) == "" {
		return nil, &StageError{Stage: StageSession, Err: ErrEmptyQuestion}
	}

	standalone, err := p.rewriter.Rewrite(ctx, history, question, model)
	if err != nil {
		return nil, p.stageError(ctx, StageRewrite, err)
	}

	chunks, err := p.retriever.Retrieve(ctx, ns, standalone, p.k)
	if err != nil {
		return nil, p.stageError(ctx, StageRetrieve, err)
	}

	answer, err := p.synthesizer.Synthesize(ctx, standalone, chunks, model)
	if err != nil {
		return nil, p.stageError(ctx, StageSynthesize, err)
	}

	turn := &Turn{
		Question:   question,
		Standalone: standalone,
		Chunks:     chunks,
		Answer:     answer,
		Duration:   time.Since(started),
	}
	p.logger.Info("question answered", "namespace", ns, "model", model,
		"chunks", len(chunks), "duration", turn.Duration)
	return turn, nil
}

func (p *Pipeline) stageError(ctx context.Context, stage Stage, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	return &StageError{Stage: stage, Err: err}
}
