package session

import "sync"

// Memory is the default session table: a process-local map. Sessions are
// lost on restart, which silently aborts any interrupted flow.
type Memory struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[int64]Session)}
}

func (m *Memory) Get(userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := sess
	return &copied, nil
}

func (m *Memory) Set(userID int64, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = *sess
	return nil
}

func (m *Memory) Clear(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
