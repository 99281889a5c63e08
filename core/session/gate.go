package session

import "github.com/eduatipico/portal/core/user"

// Decision of the access gate for one request.
type Decision int

const (
	// Pending: the session is still loading, show a placeholder and retry.
	Pending Decision = iota
	// Redirect to the login page.
	Redirect
	// Forbidden: authenticated but the role is not allowed.
	Forbidden
	Allow
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	case Forbidden:
		return "forbidden"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Decide maps a Snapshot and the roles allowed on a view to a Decision.
// An empty allowed list admits every authenticated identity.
func Decide(snap Snapshot, allowed []user.Role) Decision {
	d := decide(snap, allowed)
	decisionsTotal.WithLabelValues(d.String()).Inc()
	return d
}

func decide(snap Snapshot, allowed []user.Role) Decision {
	switch {
	case snap.Loading:
		return Pending
	case snap.Identity == nil:
		return Redirect
	case len(allowed) > 0 && !snap.Identity.Role.In(allowed...):
		return Forbidden
	}
	return Allow
}
