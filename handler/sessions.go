package handler

import (
	"QuizBot/model"
	"sync"
)

type session struct {
	mu    sync.Mutex
	state *model.SessionState
}

// sessionRegistry holds live sessions keyed by user id. A session is locked
// for the whole handling of one update, so updates of one user never interleave.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[int64]*session)}
}

// acquire returns the user's session locked, creating an inactive one if needed.
func (r *sessionRegistry) acquire(userID, chatID int64) *session {
	for {
		r.mu.Lock()
		sess, ok := r.sessions[userID]
		if !ok {
			sess = &session{state: model.NewSessionState(userID, chatID)}
			r.sessions[userID] = sess
		}
		r.mu.Unlock()

		sess.mu.Lock()
		r.mu.Lock()
		current := r.sessions[userID] == sess
		r.mu.Unlock()
		if current {
			if !sess.state.Active {
				sess.state.ChatID = chatID
			}
			return sess
		}
		// released and dropped while we waited
		sess.mu.Unlock()
	}
}

// release unlocks the session and forgets it once it is no longer active.
func (r *sessionRegistry) release(userID int64, sess *session) {
	if !sess.state.Active {
		r.mu.Lock()
		if r.sessions[userID] == sess {
			delete(r.sessions, userID)
		}
		r.mu.Unlock()
	}
	sess.mu.Unlock()
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
