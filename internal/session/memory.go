package session

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/pkg/apiclient"
)

type memoryEntry struct {
	tokens apiclient.Tokens
	user   *auth.User
	search []string
}

// MemoryStore keeps session state in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*memoryEntry{}}
}

func (m *MemoryStore) entry(sessionID string) *memoryEntry {
	e, ok := m.sessions[sessionID]
	if !ok {
		e = &memoryEntry{}
		m.sessions[sessionID] = e
	}
	return e
}

func (m *MemoryStore) Tokens(_ context.Context, sessionID string) (apiclient.Tokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.sessions[sessionID]; ok {
		return e.tokens, nil
	}
	return apiclient.Tokens{}, nil
}

func (m *MemoryStore) SaveTokens(_ context.Context, sessionID string, tokens apiclient.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(sessionID).tokens = tokens
	return nil
}

func (m *MemoryStore) ClearTokens(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[sessionID]; ok {
		e.tokens = apiclient.Tokens{}
		e.user = nil
	}
	return nil
}

func (m *MemoryStore) User(_ context.Context, sessionID string) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	if !ok || e.user == nil {
		return nil, nil
	}
	user := *e.user
	return &user, nil
}

func (m *MemoryStore) SaveUser(_ context.Context, sessionID string, user auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(sessionID).user = &user
	return nil
}

func (m *MemoryStore) RecordSearch(_ context.Context, sessionID, query string) error {
	query = normalizeQuery(query)
	if query == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(sessionID)
	next := make([]string, 0, SearchHistoryLimit)
	next = append(next, query)
	for _, q := range e.search {
		if q != query && len(next) < SearchHistoryLimit {
			next = append(next, q)
		}
	}
	e.search = next
	return nil
}

func (m *MemoryStore) SearchHistory(_ context.Context, sessionID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return []string{}, nil
	}
	return append([]string{}, e.search...), nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
