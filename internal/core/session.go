package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talentpipe/importer/internal/schema"
)

// State is an import session's position in the pipeline.
type State string

const (
	StateUpload   State = "upload"
	StateMapping  State = "mapping"
	StateReview   State = "review"
	StateComplete State = "complete"
)

// transitions is the explicit table of legal forward/backward moves.
// Reset (any state back to upload) is handled separately and is the only
// supported cancel.
var transitions = map[State][]State{
	StateUpload:   {StateMapping},
	StateMapping:  {StateReview},
	StateReview:   {StateMapping, StateComplete},
	StateComplete: {},
}

// Session is one import session: one file, one mapping, one result, owned
// by the operator who initiated it. All mutation goes through the owning
// Service; sessions are not shared between operators.
type Session struct {
	ID       string
	Entity   schema.EntityType
	FileName string

	mu       sync.Mutex
	state    State
	raw      []byte // uploaded file bytes; discarded on reset
	preview  *PreviewDataset
	mapping  Mapping
	result   *ImportResult
	touched  time.Time
}

// SessionView is the externally visible snapshot of a session.
type SessionView struct {
	ID       string            `json:"id"`
	Entity   schema.EntityType `json:"entityType"`
	FileName string            `json:"fileName"`
	State    State             `json:"state"`
	Preview  *PreviewDataset   `json:"preview,omitempty"`
	Mapping  Mapping           `json:"mapping,omitempty"`
	Complete bool              `json:"mappingComplete"`
	Result   *ImportResult     `json:"result,omitempty"`
}

// State returns the session's current pipeline state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// view snapshots the session. Caller must hold s.mu.
func (s *Session) viewLocked(ent schema.Entity) SessionView {
	return SessionView{
		ID:       s.ID,
		Entity:   s.Entity,
		FileName: s.FileName,
		State:    s.state,
		Preview:  s.preview,
		Mapping:  s.mapping,
		Complete: s.mapping.IsComplete(ent),
		Result:   s.result,
	}
}

// transitionLocked moves the session to a new state, enforcing the
// transition table. Caller must hold s.mu.
func (s *Session) transitionLocked(to State) error {
	for _, allowed := range transitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: illegal transition %s -> %s", ErrInvalidState, s.state, to)
}

// resetLocked discards all in-flight session data and returns to upload.
// Legal from any state. Caller must hold s.mu.
func (s *Session) resetLocked() {
	s.state = StateUpload
	s.raw = nil
	s.preview = nil
	s.mapping = NewMapping()
	s.result = nil
}

// sessionManager tracks live sessions with an idle expiry sweep.
type sessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func newSessionManager(ttl time.Duration) *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (sm *sessionManager) create(entity schema.EntityType, fileName string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Entity:   entity,
		FileName: fileName,
		state:    StateUpload,
		mapping:  NewMapping(),
		touched:  time.Now(),
	}

	sm.mu.Lock()
	sm.sessions[s.ID] = s
	sm.mu.Unlock()
	return s
}

func (sm *sessionManager) get(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

func (sm *sessionManager) touch(s *Session) {
	s.mu.Lock()
	s.touched = time.Now()
	s.mu.Unlock()
}

// Sweep removes idle sessions until ctx is cancelled. Run it once from
// main.
func (sm *sessionManager) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sm.ttl)
			sm.mu.Lock()
			for id, s := range sm.sessions {
				s.mu.Lock()
				idle := s.touched.Before(cutoff)
				s.mu.Unlock()
				if idle {
					delete(sm.sessions, id)
				}
			}
			sm.mu.Unlock()
		}
	}
}
