package service

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// SessionService observes session presence and hands out each owner's editor session
type SessionService interface {
	// Begin returns the owner's editor session, starting it and loading owner data
	// if the owner was not signed in. The returned error reports a failed load.
	Begin(ctx context.Context, session entity.Session) (*EditorSession, error)
	// Lookup returns the active editor session of ownerID
	Lookup(ownerID string) (*EditorSession, error)
	// End signs ownerID out and clears its local state
	End(ownerID string)
	// ActiveCount returns the number of signed-in owners
	ActiveCount() int
}

type sessionServiceImpl struct {
	gateways Gateways
	now      func() time.Time
	logger   Logger

	mu       sync.Mutex
	sessions map[string]*EditorSession
}

// NewSessionService creates a new SessionService
func NewSessionService(gateways Gateways, now func() time.Time, logger Logger) SessionService {
	if now == nil {
		now = time.Now
	}
	return &sessionServiceImpl{
		gateways: gateways,
		now:      now,
		logger:   logger,
		sessions: make(map[string]*EditorSession),
	}
}

func (s *sessionServiceImpl) Begin(ctx context.Context, session entity.Session) (*EditorSession, error) {
	s.mu.Lock()
	editor, ok := s.sessions[session.OwnerID]
	if ok && editor.Active() {
		s.mu.Unlock()
		return editor, nil
	}
	if !ok {
		editor = NewEditorSession(s.gateways, s.now, s.logger)
		s.sessions[session.OwnerID] = editor
	}
	editor.start(session)
	s.mu.Unlock()

	if err := editor.Load(ctx); err != nil {
		return editor, err
	}
	return editor, nil
}

func (s *sessionServiceImpl) Lookup(ownerID string) (*EditorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	editor, ok := s.sessions[ownerID]
	if !ok || !editor.Active() {
		return nil, ErrNoSession
	}
	return editor, nil
}

func (s *sessionServiceImpl) End(ownerID string) {
	s.mu.Lock()
	editor, ok := s.sessions[ownerID]
	delete(s.sessions, ownerID)
	s.mu.Unlock()

	if ok {
		editor.End()
	}
}

func (s *sessionServiceImpl) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
