package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
)

// MemoryStore is the in-process store used for local runs and the CLI.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*narrative.Session
	locks    map[string]struct{}
}

var _ narrative.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*narrative.Session),
		locks:    make(map[string]struct{}),
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*narrative.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", narrative.ErrSessionNotFound, id)
	}
	return sess.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, sess *narrative.Session) error {
	if sess == nil || strings.TrimSpace(sess.ID) == "" {
		return narrative.ErrMissingSessionIdentity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess.Clone()
	return nil
}

func (m *MemoryStore) Lock(_ context.Context, id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return nil, fmt.Errorf("%w: %s", narrative.ErrSessionBusy, id)
	}
	m.locks[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locks, id)
			m.mu.Unlock()
		})
	}, nil
}
