package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduatipico/portal/core/user"
)

var student = user.Identity{ID: "s1", Name: "Ana", Email: "a@x.com", Role: user.RoleStudent}

type memStorage struct {
	mu       sync.Mutex
	data     []byte
	loadErr  error
	saveErr  error
	clearErr error
	clears   int
}

func (ms *memStorage) Load(context.Context) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.loadErr != nil {
		return nil, ms.loadErr
	}
	if ms.data == nil {
		return nil, ErrNoRecord
	}
	return ms.data, nil
}

func (ms *memStorage) Save(_ context.Context, data []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.saveErr != nil {
		return ms.saveErr
	}
	ms.data = data
	return nil
}

func (ms *memStorage) Clear(context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.clears++
	if ms.clearErr != nil {
		return ms.clearErr
	}
	ms.data = nil
	return nil
}

func (ms *memStorage) stored() []byte {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.data
}

type recLogger struct {
	mu      sync.Mutex
	entries []string // "LEVEL msg"
}

func (l *recLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+msg)
}

func (l *recLogger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *recLogger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *recLogger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *recLogger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *recLogger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

func (l *recLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.entries {
		if len(e) > len(level) && e[:len(level)+1] == level+" " {
			n++
		}
	}
	return n
}

type authFunc func(ctx context.Context, email, secret string) (user.Identity, error)

func (f authFunc) Authenticate(ctx context.Context, email, secret string) (user.Identity, error) {
	return f(ctx, email, secret)
}

// singleUser accepts a@x.com / s1 only.
var singleUser = authFunc(func(_ context.Context, email, secret string) (user.Identity, error) {
	if email == student.Email && secret == "s1" {
		return student, nil
	}
	return user.Identity{}, user.ErrAuthenticationFailed
})

func marshal(t *testing.T, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal() failed: %v", err)
	}
	return data
}

func newTestStore(storage Storage, auth Authenticator) (*Store, *recLogger) {
	logger := new(recLogger)
	return NewStore(storage, auth, logger, Options{LoginTimeout: time.Second}), logger
}

func TestStore_Restore(t *testing.T) {
	tests := []struct {
		name        string
		storage     *memStorage
		wantState   State
		wantID      *user.Identity
		wantCleared bool
		wantWarns   int
		wantErrors  int
		wantErr     bool
	}{
		{name: "no record", storage: &memStorage{}, wantState: StateUnauthenticated},
		{
			name:      "valid record",
			storage:   &memStorage{data: marshal(t, student)},
			wantState: StateAuthenticated,
			wantID:    &student,
		},
		{
			name:        "malformed json",
			storage:     &memStorage{data: []byte("{not json")},
			wantState:   StateUnauthenticated,
			wantCleared: true,
			wantWarns:   1,
		},
		{
			name:        "unknown role",
			storage:     &memStorage{data: []byte(`{"id":"9","name":"X","email":"x@x.com","role":"Teacher"}`)},
			wantState:   StateUnauthenticated,
			wantCleared: true,
			wantWarns:   1,
		},
		{
			name:       "storage failure",
			storage:    &memStorage{loadErr: errors.New("disk on fire")},
			wantState:  StateUnauthenticated,
			wantErrors: 1,
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, logger := newTestStore(tt.storage, singleUser)
			assert.True(t, store.Snapshot().Loading, "a new store is loading")

			err := store.Restore(context.Background())
			assert.Equal(t, tt.wantErr, err != nil, "Restore() err = %v", err)

			snap := store.Snapshot()
			assert.False(t, snap.Loading)
			assert.Equal(t, tt.wantState, store.State())
			assert.Equal(t, tt.wantID, snap.Identity)
			assert.Equal(t, tt.wantCleared, tt.storage.clears > 0)
			if tt.wantCleared {
				assert.Nil(t, tt.storage.stored())
			}
			assert.Equal(t, tt.wantWarns, logger.count("WARN"))
			assert.Equal(t, tt.wantErrors, logger.count("ERROR"))
		})
	}
}

func TestStore_RestoreOnce(t *testing.T) {
	storage := &memStorage{}
	store, _ := newTestStore(storage, singleUser)
	store.Restore(context.Background())

	storage.data = marshal(t, student)
	store.Restore(context.Background())
	assert.Nil(t, store.Snapshot().Identity, "a second Restore is a no-op")
}

func TestStore_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("initializing", func(t *testing.T) {
		storage := &memStorage{}
		store, _ := newTestStore(storage, singleUser)
		ok, err := store.Login(ctx, "a@x.com", "s1")
		assert.False(t, ok)
		assert.Equal(t, ErrInitializing, err)
		assert.Nil(t, storage.stored())
	})

	tests := []struct {
		name      string
		email     string
		secret    string
		saveErr   error
		wantOK    bool
		wantErr   error
		wantState State
	}{
		{name: "match", email: "a@x.com", secret: "s1", wantOK: true, wantState: StateAuthenticated},
		{name: "wrong secret", email: "a@x.com", secret: "wrong", wantState: StateUnauthenticated},
		{name: "email is case sensitive", email: "A@x.com", secret: "s1", wantState: StateUnauthenticated},
		{name: "secret is case sensitive", email: "a@x.com", secret: "S1", wantState: StateUnauthenticated},
		{name: "empty", wantState: StateUnauthenticated},
		{
			name: "persist failure", email: "a@x.com", secret: "s1", saveErr: errors.New("full"),
			wantErr: ErrUnavailable, wantState: StateUnauthenticated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &memStorage{saveErr: tt.saveErr}
			store, _ := newTestStore(storage, singleUser)
			store.Restore(ctx)

			ok, err := store.Login(ctx, tt.email, tt.secret)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantState, store.State())

			snap := store.Snapshot()
			assert.False(t, snap.Loading)
			if tt.wantOK {
				require.NotNil(t, snap.Identity)
				assert.Equal(t, student, *snap.Identity)
				assert.JSONEq(t, string(marshal(t, student)), string(storage.stored()))
			} else {
				assert.Nil(t, snap.Identity)
				assert.Nil(t, storage.stored())
			}
		})
	}
}

func TestStore_LoginFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{}
	store, _ := newTestStore(storage, singleUser)
	store.Restore(ctx)

	ok, err := store.Login(ctx, "a@x.com", "s1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Login(ctx, "a@x.com", "nope")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateAuthenticated, store.State())
	assert.NotNil(t, storage.stored())
}

func TestStore_LoginTimeout(t *testing.T) {
	blocking := authFunc(func(ctx context.Context, _, _ string) (user.Identity, error) {
		<-ctx.Done()
		return user.Identity{}, ctx.Err()
	})
	storage := &memStorage{}
	store := NewStore(storage, blocking, new(recLogger), Options{LoginTimeout: 20 * time.Millisecond})
	store.Restore(context.Background())

	start := time.Now()
	ok, err := store.Login(context.Background(), "a@x.com", "s1")
	assert.False(t, ok)
	assert.Equal(t, ErrUnavailable, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateUnauthenticated, store.State())
	assert.False(t, store.Snapshot().Loading)
}

func TestStore_LoginLatencyHonoursCancel(t *testing.T) {
	store := NewStore(&memStorage{}, singleUser, new(recLogger), Options{LoginLatency: time.Hour})
	store.Restore(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err := store.Login(ctx, "a@x.com", "s1")
	assert.False(t, ok)
	assert.Equal(t, ErrUnavailable, err)
}

func TestStore_LoadingWhileResolving(t *testing.T) {
	release := make(chan struct{})
	gated := authFunc(func(ctx context.Context, email, secret string) (user.Identity, error) {
		<-release
		return singleUser(ctx, email, secret)
	})
	store, _ := newTestStore(&memStorage{}, gated)
	store.Restore(context.Background())

	done := make(chan bool)
	go func() {
		ok, _ := store.Login(context.Background(), "a@x.com", "s1")
		done <- ok
	}()

	require.Eventually(t, func() bool { return store.Snapshot().Loading }, time.Second, time.Millisecond)
	assert.Equal(t, Pending, Decide(store.Snapshot(), nil))

	close(release)
	assert.True(t, <-done)
	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, Allow, Decide(snap, nil))
}

func TestStore_LogoutSupersedesLogin(t *testing.T) {
	release := make(chan struct{})
	gated := authFunc(func(ctx context.Context, email, secret string) (user.Identity, error) {
		<-release
		return singleUser(ctx, email, secret)
	})
	storage := &memStorage{}
	store, _ := newTestStore(storage, gated)
	store.Restore(context.Background())

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result)
	go func() {
		ok, err := store.Login(context.Background(), "a@x.com", "s1")
		done <- result{ok, err}
	}()
	require.Eventually(t, func() bool { return store.Snapshot().Loading }, time.Second, time.Millisecond)

	store.Logout(context.Background())
	close(release)

	res := <-done
	assert.False(t, res.ok)
	assert.NoError(t, res.err)
	assert.Equal(t, StateUnauthenticated, store.State())
	assert.Nil(t, store.Snapshot().Identity)
	assert.Nil(t, storage.stored())
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{data: marshal(t, student)}
	store, logger := newTestStore(storage, singleUser)
	store.Restore(ctx)
	require.Equal(t, StateAuthenticated, store.State())

	store.Logout(ctx)
	assert.Equal(t, StateUnauthenticated, store.State())
	assert.Nil(t, store.Snapshot().Identity)
	assert.Nil(t, storage.stored())

	// idempotent
	store.Logout(ctx)
	assert.Equal(t, StateUnauthenticated, store.State())
	assert.Equal(t, 0, logger.count("ERROR"))

	// storage failures are reported, never returned
	storage.clearErr = errors.New("read-only")
	store.Logout(ctx)
	assert.Equal(t, StateUnauthenticated, store.State())
	assert.Equal(t, 1, logger.count("ERROR"))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := &memStorage{}
	first, _ := newTestStore(storage, singleUser)
	first.Restore(ctx)
	ok, err := first.Login(ctx, "a@x.com", "s1")
	require.NoError(t, err)
	require.True(t, ok)

	// a new process restores what the previous one persisted
	second, _ := newTestStore(storage, singleUser)
	second.Restore(ctx)
	assert.Equal(t, first.Snapshot(), second.Snapshot())
}
