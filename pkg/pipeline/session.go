package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the session lifecycle state.
type SessionState int

const (
	SessionCreated SessionState = iota
	SessionActive
	SessionPaused
	SessionCompleted
	SessionError
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case SessionCreated:
		return "Created"
	case SessionActive:
		return "Active"
	case SessionPaused:
		return "Paused"
	case SessionCompleted:
		return "Completed"
	case SessionError:
		return "Error"
	default:
		return "Unknown"
	}
}

// terminal reports whether the state rejects further transitions.
func (s SessionState) terminal() bool {
	return s == SessionCompleted || s == SessionError
}

// Session tracks one processing session's lifecycle:
// Created -> Active -> (Paused <-> Active) -> Completed | Error.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	state SessionState
}

// NewSession creates a session in Created.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		state:     SessionCreated,
	}
}

// State returns the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition applies a guarded state change.
func (s *Session) transition(from []SessionState, to SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.terminal() {
		return NewError(KindShutdown, "session is terminal").
			With("session_id", s.ID).
			With("state", s.state.String())
	}
	for _, f := range from {
		if s.state == f {
			s.state = to
			return nil
		}
	}
	return NewError(KindInvalidInput, "invalid session transition").
		With("session_id", s.ID).
		With("from", s.state.String()).
		With("to", to.String())
}

// Start activates a created session.
func (s *Session) Start() error {
	return s.transition([]SessionState{SessionCreated}, SessionActive)
}

// Pause suspends an active session.
func (s *Session) Pause() error {
	return s.transition([]SessionState{SessionActive}, SessionPaused)
}

// Resume reactivates a paused session.
func (s *Session) Resume() error {
	return s.transition([]SessionState{SessionPaused}, SessionActive)
}

// Complete terminates the session normally.
func (s *Session) Complete() error {
	return s.transition([]SessionState{SessionCreated, SessionActive, SessionPaused}, SessionCompleted)
}

// Fail terminates the session with an error.
func (s *Session) Fail() error {
	return s.transition([]SessionState{SessionCreated, SessionActive, SessionPaused}, SessionError)
}
