package session

import (
	"context"
	"time"
)

// KeyPrefix namespaces the persisted session record of each client.
const KeyPrefix = "eduatipico_user:"

type (
	// Storage is the durable slot holding one client's session record.
	Storage interface {
		// Load returns ErrNoRecord when nothing is persisted.
		Load(ctx context.Context) ([]byte, error)
		Save(ctx context.Context, data []byte) error
		// Clear is a no-op when nothing is persisted.
		Clear(ctx context.Context) error
	}

	// Backend is a key-value store shared by all clients.
	Backend interface {
		// Get returns ErrNoRecord when key is absent or expired.
		Get(ctx context.Context, key string) ([]byte, error)
		// Set stores value under key; a zero ttl never expires.
		Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
		Delete(ctx context.Context, key string) error
	}
)

// Key is the Backend key of clientID's session record.
func Key(clientID string) string {
	return KeyPrefix + clientID
}

type backendStorage struct {
	backend Backend
	key     string
	ttl     time.Duration
}

// NewBackendStorage returns the Storage of clientID inside backend.
func NewBackendStorage(backend Backend, clientID string, ttl time.Duration) Storage {
	return &backendStorage{backend: backend, key: Key(clientID), ttl: ttl}
}

func (bs *backendStorage) Load(ctx context.Context) ([]byte, error) {
	return bs.backend.Get(ctx, bs.key)
}

func (bs *backendStorage) Save(ctx context.Context, data []byte) error {
	return bs.backend.Set(ctx, bs.key, data, bs.ttl)
}

func (bs *backendStorage) Clear(ctx context.Context) error {
	return bs.backend.Delete(ctx, bs.key)
}
