package storage

import (
	"sort"
	"sync"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
)

type MemoryStorage struct {
	sessions map[string]*model.Session
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]*model.Session),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Backup() error {
	return nil
}

func (m *MemoryStorage) CreateSession(session *model.Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidData
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return ErrSessionExists
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemoryStorage) GetSession(sessionID string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *MemoryStorage) UpdateSession(session *model.Session) error {
	if session == nil {
		return ErrInvalidData
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; !exists {
		return ErrSessionNotFound
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemoryStorage) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

// ListSessions 按最近活跃时间倒序
func (m *MemoryStorage) ListSessions() ([]SessionIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]SessionIndex, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, indexOf(session))
	}
	sortByActivity(sessions)
	return sessions, nil
}

func (m *MemoryStorage) AddMessage(sessionID string, message *model.Message) error {
	if message == nil {
		return ErrInvalidData
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return ErrSessionNotFound
	}
	msg := *message
	msg.SessionID = sessionID
	session.Messages = append(session.Messages, msg)
	if msg.Timestamp.After(session.LastActivity) {
		session.LastActivity = msg.Timestamp
	}
	return nil
}

func (m *MemoryStorage) GetMessages(sessionID string) ([]*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return messagePointers(session.Messages), nil
}

func messagePointers(src []model.Message) []*model.Message {
	messages := make([]*model.Message, len(src))
	for i := range src {
		msg := src[i]
		messages[i] = &msg
	}
	return messages
}

func sortByActivity(sessions []SessionIndex) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
}
