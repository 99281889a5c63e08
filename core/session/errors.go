package session

import "github.com/pkg/errors"

var (
	// ErrNoRecord is returned by a Backend or a Storage when no session record is persisted.
	ErrNoRecord = errors.New("no session record")

	// ErrUnavailable means a login could not be resolved: the credential lookup timed out or failed,
	// or the session record could not be persisted. It never says whether the credentials were right.
	ErrUnavailable = errors.New("authentication is temporarily unavailable")

	// ErrInitializing is returned by Store.Login before the Store is restored.
	ErrInitializing = errors.New("session store is still initializing")
)
