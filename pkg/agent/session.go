package agent

import (
	"github.com/google/uuid"
)

// Status reports where a session ended up.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Step is one recorded tool invocation: what was asked, what came back.
// Failures are stored as text so the next reasoning step can read them.
type Step struct {
	Tool      string
	Arguments map[string]any
	Output    string
	Failed    bool
}

// Session is the mutable record threaded through one routing call. It is
// request-scoped: created at entry, discarded after the response.
type Session struct {
	ID         string
	UserID     string
	Input      string
	HandlerID  string
	Transcript []Step
	Result     string
	Status     Status
	Err        error
}

// NewSession starts a pending session for the given input. userID scopes
// user-owned resources such as uploaded documents; it may be empty.
func NewSession(handlerID, userID, input string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Input:     input,
		HandlerID: handlerID,
		Status:    StatusPending,
	}
}

func (s *Session) succeed(result string) {
	s.Result = result
	s.Status = StatusSucceeded
}

func (s *Session) fail(err error, bestEffort string) {
	s.Err = err
	s.Result = bestEffort
	s.Status = StatusFailed
}

// LastOutput returns the most recent successful tool output, if any.
func (s *Session) LastOutput() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if !s.Transcript[i].Failed {
			return s.Transcript[i].Output
		}
	}
	return ""
}
