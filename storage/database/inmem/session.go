package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/eduatipico/portal/core/session"
)

type sessionEntry struct {
	value     []byte
	expiresAt time.Time // zero: never
}

// SessionBackend keeps persisted session records in process memory.
type SessionBackend struct {
	mutex   sync.RWMutex
	entries map[string]sessionEntry
	nowFunc func() time.Time
}

var _ session.Backend = (*SessionBackend)(nil)

func NewSessionBackend() *SessionBackend {
	return &SessionBackend{entries: make(map[string]sessionEntry), nowFunc: time.Now}
}

func (b *SessionBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	entry, ok := b.entries[key]
	if !ok || (!entry.expiresAt.IsZero() && !b.nowFunc().Before(entry.expiresAt)) {
		return nil, session.ErrNoRecord
	}
	return append([]byte(nil), entry.value...), nil
}

func (b *SessionBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	entry := sessionEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = b.nowFunc().Add(ttl)
	}
	b.entries[key] = entry
	return nil
}

func (b *SessionBackend) Delete(_ context.Context, key string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.entries, key)
	return nil
}
