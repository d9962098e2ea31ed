package in_memory

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"sync"
	"time"
)

var (
	ErrSessionAlreadyExists = errors.New("session already exists")
)

type SessionStorage struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[uuid.UUID]*model.Session),
	}
}

func (s *SessionStorage) CreateSession(_ context.Context, session model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.SessionID]; ok {
		return ErrSessionAlreadyExists
	}
	stored := session.Clone()
	stored.UpdatedAt = time.Now()
	s.sessions[session.SessionID] = &stored
	return nil
}

func (s *SessionStorage) GetSession(_ context.Context, sessionID uuid.UUID) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, model.ErrSessionDoesNotExist
	}
	return session.Clone(), nil
}

// UpdateSession applies update to a copy of the session under the storage lock and
// stores the copy only when update succeeds.
func (s *SessionStorage) UpdateSession(
	_ context.Context,
	sessionID uuid.UUID,
	update func(*model.Session) error,
) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, model.ErrSessionDoesNotExist
	}
	updated := session.Clone()
	if err := update(&updated); err != nil {
		return session.Clone(), err
	}
	updated.UpdatedAt = time.Now()
	s.sessions[sessionID] = &updated
	return updated.Clone(), nil
}

func (s *SessionStorage) DeleteSession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return model.ErrSessionDoesNotExist
	}
	delete(s.sessions, sessionID)
	return nil
}
