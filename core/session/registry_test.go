package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapBackend() *mapBackend {
	return &mapBackend{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (b *mapBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.data[key]; ok {
		return v, nil
	}
	return nil, ErrNoRecord
}

func (b *mapBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	b.ttls[key] = ttl
	return nil
}

func (b *mapBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	backend := newMapBackend()
	reg := NewRegistry(backend, singleUser, new(recLogger), RegistryOptions{TTL: time.Hour})

	store := reg.Get(ctx, "c1")
	assert.Same(t, store, reg.Get(ctx, "c1"))
	assert.NotSame(t, store, reg.Get(ctx, "c2"))
	assert.Equal(t, 2, reg.Len())
	assert.False(t, store.Snapshot().Loading, "Get restores new stores")

	ok, err := store.Login(ctx, "a@x.com", "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, backend.data, "eduatipico_user:c1")
	assert.Equal(t, time.Hour, backend.ttls["eduatipico_user:c1"])
	assert.NotContains(t, backend.data, "eduatipico_user:c2")

	// evicted stores are restored from the backend
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, reg.Sweep(time.Millisecond))
	_, ok = reg.Peek("c1")
	assert.False(t, ok)

	again := reg.Get(ctx, "c1")
	assert.NotSame(t, store, again)
	require.NotNil(t, again.Snapshot().Identity)
	assert.Equal(t, student, *again.Snapshot().Identity)
	assert.Equal(t, 0, reg.Sweep(time.Hour))
}

func TestRegistry_Run(t *testing.T) {
	reg := NewRegistry(newMapBackend(), singleUser, new(recLogger), RegistryOptions{})
	reg.Get(context.Background(), "c1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

// ctxBackend fails reads whose context is done, and the first failReads reads.
type ctxBackend struct {
	*mapBackend
	failReads int
}

func (b *ctxBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	if b.failReads > 0 {
		b.failReads--
		b.mu.Unlock()
		return nil, errors.New("connection reset")
	}
	b.mu.Unlock()
	return b.mapBackend.Get(ctx, key)
}

func TestRegistry_restoreOutlivesRequest(t *testing.T) {
	backend := &ctxBackend{mapBackend: newMapBackend()}
	require.NoError(t, backend.Set(context.Background(), Key("c1"), marshal(t, student), 0))
	reg := NewRegistry(backend, singleUser, new(recLogger), RegistryOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := reg.Get(ctx, "c1")
	require.NotNil(t, store.Snapshot().Identity, "an aborted request does not abort the restore")
	assert.Equal(t, student, *store.Snapshot().Identity)
	assert.Same(t, store, reg.Get(context.Background(), "c1"))
}

func TestRegistry_restoreRetriedAfterReadFailure(t *testing.T) {
	backend := &ctxBackend{mapBackend: newMapBackend(), failReads: 1}
	require.NoError(t, backend.Set(context.Background(), Key("c1"), marshal(t, student), 0))
	logger := new(recLogger)
	reg := NewRegistry(backend, singleUser, logger, RegistryOptions{})
	ctx := context.Background()

	first := reg.Get(ctx, "c1")
	assert.Equal(t, StateUnauthenticated, first.State())
	assert.Equal(t, 1, logger.count("ERROR"))
	_, ok := reg.Peek("c1")
	assert.False(t, ok, "a store whose restore failed is not kept")
	assert.Contains(t, backend.data, Key("c1"), "the record is untouched")

	second := reg.Get(ctx, "c1")
	assert.NotSame(t, first, second)
	assert.Equal(t, StateAuthenticated, second.State())
	require.NotNil(t, second.Snapshot().Identity)
	assert.Equal(t, student, *second.Snapshot().Identity)
	assert.Equal(t, 1, reg.Len())
}
