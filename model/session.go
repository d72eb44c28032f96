package model

import "github.com/google/uuid"

// Phase of a wizard session
type Phase int

const (
	PhaseEntering Phase = iota
	PhaseAwaitingInput
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseAwaitingInput:
		return "awaiting_input"
	case PhaseExiting:
		return "exiting"
	}
	return "unknown"
}

// SessionState is one user's in-progress traversal of a questionnaire.
// It lives in memory only and is reset on exit.
type SessionState struct {
	ID     string
	UserID int64
	ChatID int64

	Phase   Phase
	Step    int
	Answers map[int]string

	PendingMessageID int // ephemeral preset prompt awaiting cleanup, 0 if none
	MenuMessageID    int // menu the session was started from
	OriginToken      string
	Active           bool
}

// NewSessionState returns an inactive state bound to a user and chat.
func NewSessionState(userID, chatID int64) *SessionState {
	return &SessionState{
		UserID:  userID,
		ChatID:  chatID,
		Answers: make(map[int]string),
	}
}

// Start (re)initialises the traversal for the given origin.
func (s *SessionState) Start(origin string) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Phase = PhaseEntering
	s.Step = 0
	s.Answers = make(map[int]string)
	s.OriginToken = origin
	s.Active = true
}

// HasPending reports whether an ephemeral message is outstanding.
func (s *SessionState) HasPending() bool {
	return s.PendingMessageID != 0
}

// Reset discards everything but the user and chat binding.
func (s *SessionState) Reset() {
	*s = SessionState{UserID: s.UserID, ChatID: s.ChatID, Answers: make(map[int]string)}
}
