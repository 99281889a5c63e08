package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
)

const (
	storeKey    = "sessionStore"
	identityKey = "identity"
)

// sessionMiddleware attaches the Store of the current client to the request scope.
// It must run after clientMiddleware.
func (s *server) sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			clientID := getClientID(ctx)
			if clientID == "" {
				panic("session middleware used without the client middleware")
			}
			ctx.Set(storeKey, s.opts.Registry.Get(ctx.Request().Context(), clientID))
			return next(ctx)
		}
	}
}

// MustStore returns the session Store of the request. It panics outside the session middleware scope.
func MustStore(ctx echo.Context) *session.Store {
	store, ok := ctx.Get(storeKey).(*session.Store)
	if !ok {
		panic("session store requested outside the session middleware scope")
	}
	return store
}

// MustIdentity returns the identity admitted by the gate. It panics outside a gated route.
func MustIdentity(ctx echo.Context) user.Identity {
	idt, ok := ctx.Get(identityKey).(user.Identity)
	if !ok {
		panic("identity requested outside the session middleware scope of a gated route")
	}
	return idt
}
