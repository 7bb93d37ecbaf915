package session

import "sync"

// Registry holds one Session per user.
type Registry struct {
	mu           sync.Mutex
	sessions     map[int64]*Session
	defaultModel string
}

// NewRegistry returns an empty registry whose new sessions use defaultModel.
func NewRegistry(defaultModel string) *Registry {
	return &Registry{
		sessions:     make(map[int64]*Session),
		defaultModel: defaultModel,
	}
}

// Get returns the user's session, creating an Idle one on first use.
func (r *Registry) Get(userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		s = New(r.defaultModel)
		r.sessions[userID] = s
	}
	return s
}

// Lookup returns the user's session if one exists.
func (r *Registry) Lookup(userID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Drop forgets the user's session.
func (r *Registry) Drop(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
