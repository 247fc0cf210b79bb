package lock

import (
	"context"
	"sync"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/google/uuid"
)

// KeyedMutex serializes operations per case within a single process.
// Each case ID maps to its own mutex; unused entries are dropped once
// the last holder releases them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	ch      chan struct{}
	waiters int
}

// NewKeyedMutex creates a new in-process case locker
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[uuid.UUID]*lockEntry),
	}
}

// Lock blocks until the case lock is acquired or the context is done.
// The returned function releases the lock.
func (m *KeyedMutex) Lock(ctx context.Context, caseID uuid.UUID) (func(), error) {
	m.mu.Lock()
	entry, ok := m.locks[caseID]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		m.locks[caseID] = entry
	}
	entry.waiters++
	m.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			m.release(caseID, entry)
		}, nil
	case <-ctx.Done():
		m.release(caseID, entry)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(caseID uuid.UUID, entry *lockEntry) {
	m.mu.Lock()
	entry.waiters--
	if entry.waiters == 0 {
		delete(m.locks, caseID)
	}
	m.mu.Unlock()
}

// Ensure KeyedMutex implements CaseLocker
var _ auditapp.CaseLocker = (*KeyedMutex)(nil)
