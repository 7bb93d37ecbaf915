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

// Package session tracks the conversational state of one user: the bound
// namespace, the turn history and the selected generation model.
//
// A Session moves through three states:
//
//	Idle ──Bind──▶ Ready ──StartChat──▶ Chatting ──End──▶ Idle
//
// Bind is valid from any state and replaces the namespace. Every transition
// that changes the bound namespace or starts a chat resets the history.
// Sessions are kept in memory only.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/poiesic/docent/core"
)

var (
	// ErrNotChatting is returned when a turn is recorded or answered
	// outside the Chatting state.
	ErrNotChatting = errors.New("session is not chatting")

	// ErrNoNamespace is returned when a chat is started before any
	// document has been ingested.
	ErrNoNamespace = errors.New("session has no namespace")

	// ErrSessionChanged is returned by RecordFor when the session was reset
	// after the snapshot was taken.
	ErrSessionChanged = errors.New("session changed since snapshot")
)

// State is the lifecycle state of a Session.
type State int

const (
	Idle State = iota
	Ready
	Chatting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Chatting:
		return "chatting"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of a session's state.
type Snapshot struct {
	State     State
	Namespace core.Namespace
	History   []core.Turn
	Model     string
	// Generation increases on every reset; it identifies the history a
	// snapshot was taken from.
	Generation uint64
}

// Session is safe for concurrent use; every mutation is atomic.
type Session struct {
	mu         sync.Mutex
	state      State
	namespace  core.Namespace
	history    []core.Turn
	model      string
	generation uint64
}

// New returns an Idle session using model for generation.
func New(model string) *Session {
	return &Session{model: model}
}

// Bind attaches ns after a successful ingestion and moves to Ready.
func (s *Session) Bind(ns core.Namespace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespace = ns
	s.state = Ready
	s.resetLocked()
}

// StartChat enters Chatting with an empty history. Calling it while
// already chatting restarts the chat.
func (s *Session) StartChat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle || s.namespace == "" {
		return ErrNoNamespace
	}
	s.state = Chatting
	s.resetLocked()
	return nil
}

// Record appends a question and its answer to the history.
func (s *Session) Record(question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Chatting {
		return ErrNotChatting
	}
	s.appendLocked(question, answer)
	return nil
}

// RecordFor appends a question and answer only if the session still holds
// the history snap was taken from.
func (s *Session) RecordFor(snap Snapshot, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Chatting {
		return ErrNotChatting
	}
	if s.generation != snap.Generation || s.namespace != snap.Namespace {
		return fmt.Errorf("%w: generation %d, now %d", ErrSessionChanged, snap.Generation, s.generation)
	}
	s.appendLocked(question, answer)
	return nil
}

// End returns to Idle, discarding history and the namespace binding. The
// model choice is kept.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.namespace = ""
	s.resetLocked()
}

// SelectModel sets the generation model. The choice survives resets.
func (s *Session) SelectModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		Namespace:  s.namespace,
		History:    slices.Clone(s.history),
		Model:      s.model,
		Generation: s.generation,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Namespace returns the bound namespace, empty when Idle.
func (s *Session) Namespace() core.Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namespace
}

// Model returns the selected generation model.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// History returns a copy of the turns recorded so far.
func (s *Session) History() []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

func (s *Session) resetLocked() {
	s.history = nil
	s.generation++
}

func (s *Session) appendLocked(question, answer string) {
	s.history = append(s.history,
		core.Turn{Role: core.RoleHuman, Text: question},
		core.Turn{Role: core.RoleAssistant, Text: answer},
	)
}
