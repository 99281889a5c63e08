package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/user"
)

// State of a Store.
type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// DefaultLoginTimeout bounds a credential lookup when Options.LoginTimeout is not set.
const DefaultLoginTimeout = 5 * time.Second

type (
	// Authenticator resolves an email and a secret to an Identity.
	// It returns user.ErrAuthenticationFailed when they do not match a credential record.
	Authenticator interface {
		Authenticate(ctx context.Context, email, secret string) (user.Identity, error)
	}

	Options struct {
		LoginTimeout time.Duration
		// LoginLatency delays every credential lookup. Used by demos to show the pending state.
		LoginLatency time.Duration
	}

	// Snapshot is a consistent view of a Store.
	Snapshot struct {
		Identity *user.Identity `json:"identity"`
		Loading  bool           `json:"loading"`
	}

	// Store holds the session of one client and is safe for concurrent use.
	Store struct {
		storage Storage
		auth    Authenticator
		logger  core.Logger
		opts    Options

		mu        sync.Mutex
		state     State
		identity  *user.Identity
		restoring bool
		pending   int    // logins being resolved
		gen       uint64 // bumped by Logout; in-flight work started under an older gen is discarded

		lastUsed atomic.Int64 // unix nano
	}
)

// NewStore returns a Store in the initializing state. Call Restore before anything else.
func NewStore(storage Storage, auth Authenticator, logger core.Logger, opts Options) *Store {
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = DefaultLoginTimeout
	}
	s := &Store{
		storage: storage,
		auth:    auth,
		logger:  logger,
		opts:    opts,
		state:   StateInitializing,
	}
	s.touch()
	return s
}

// Restore loads the persisted session record, once. A missing record leaves the Store unauthenticated;
// an unreadable one is cleared and reported. Loading is false once Restore returns.
// A failed storage read also leaves the Store unauthenticated and is returned, so the owner can
// discard the Store and restore a new one later.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateInitializing || s.restoring {
		s.mu.Unlock()
		return nil
	}
	s.restoring = true
	gen := s.gen
	s.mu.Unlock()

	idt, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoring = false
	s.state = StateUnauthenticated
	if idt != nil && gen == s.gen {
		s.identity = idt
		s.state = StateAuthenticated
	}
	return err
}

func (s *Store) load(ctx context.Context) (*user.Identity, error) {
	data, err := s.storage.Load(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNoRecord {
			return nil, nil
		}
		err = errors.Wrap(err, "loading session record")
		s.logger.Error("session: reading persisted record", err)
		return nil, err
	}

	var idt user.Identity
	if err := json.Unmarshal(data, &idt); err != nil || !idt.Valid() {
		if err == nil {
			err = errors.New("incomplete identity")
		}
		s.logger.Warn("session: malformed persisted record, clearing it", errors.Wrap(err, "decoding session record"))
		if err := s.storage.Clear(ctx); err != nil {
			s.logger.Error("session: clearing malformed record", errors.Wrap(err, "clearing session record"))
		}
		return nil, nil
	}
	return &idt, nil
}

// Login resolves email and secret. On a match the session record is persisted and the Store becomes
// authenticated, in one step; it returns true. A mismatch returns false and leaves the Store as it was.
// A lookup that times out or fails, or a record that cannot be persisted, returns ErrUnavailable.
// A Logout landing while the login resolves wins: the result is dropped and Login returns false.
func (s *Store) Login(ctx context.Context, email, secret string) (bool, error) {
	s.touch()
	s.mu.Lock()
	if s.state == StateInitializing {
		s.mu.Unlock()
		return false, ErrInitializing
	}
	s.pending++
	gen := s.gen
	s.mu.Unlock()

	idt, err := s.resolve(ctx, email, secret)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--

	if gen != s.gen {
		loginsTotal.WithLabelValues("superseded").Inc()
		return false, nil
	}
	if err != nil {
		if errors.Cause(err) == user.ErrAuthenticationFailed {
			loginsTotal.WithLabelValues("failed").Inc()
			return false, nil
		}
		loginsTotal.WithLabelValues("unavailable").Inc()
		s.logger.Error("session: resolving credentials", errors.Wrap(err, "authenticating"))
		return false, ErrUnavailable
	}

	data, err := json.Marshal(idt)
	if err != nil {
		loginsTotal.WithLabelValues("unavailable").Inc()
		s.logger.Error("session: encoding session record", errors.Wrap(err, "encoding identity"), idt)
		return false, ErrUnavailable
	}
	if err := s.storage.Save(ctx, data); err != nil {
		loginsTotal.WithLabelValues("unavailable").Inc()
		s.logger.Error("session: persisting session record", errors.Wrap(err, "saving session record"), idt)
		return false, ErrUnavailable
	}

	s.identity = &idt
	s.state = StateAuthenticated
	loginsTotal.WithLabelValues("success").Inc()
	return true, nil
}

func (s *Store) resolve(ctx context.Context, email, secret string) (user.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LoginTimeout)
	defer cancel()

	if s.opts.LoginLatency > 0 {
		timer := time.NewTimer(s.opts.LoginLatency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return user.Identity{}, ctx.Err()
		}
	}

	type result struct {
		idt user.Identity
		err error
	}
	resc := make(chan result, 1)
	go func() {
		idt, err := s.auth.Authenticate(ctx, email, secret)
		resc <- result{idt, err}
	}()

	select {
	case res := <-resc:
		return res.idt, res.err
	case <-ctx.Done():
		return user.Identity{}, ctx.Err()
	}
}

// Logout clears the session and its persisted record. It never fails and may be called in any state.
func (s *Store) Logout(ctx context.Context) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.identity = nil
	if s.state != StateInitializing {
		s.state = StateUnauthenticated
	}
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Error("session: clearing session record", errors.Wrap(err, "clearing session record"))
	}
}

// Snapshot returns the current identity, nil when unauthenticated, and whether the Store is loading.
func (s *Store) Snapshot() Snapshot {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Loading: s.state == StateInitializing || s.pending > 0}
	if s.identity != nil {
		idt := *s.identity
		snap.Identity = &idt
	}
	return snap
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Store) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}
