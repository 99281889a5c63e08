package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Success bool `json:"success"`
	}
)

func registerAPI(g *echo.Group, s *server) {
	sg := g.Group("/session")
	sg.GET("", s.sessionSnapshot)
	sg.POST("", s.sessionLogin)
	sg.DELETE("", s.sessionLogout)

	g.GET("/users", s.userQuery, s.gate(adminOnly...))
}

func (s *server) sessionSnapshot(ctx echo.Context) error {
	ctx.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return ctx.JSON(http.StatusOK, MustStore(ctx).Snapshot())
}

func (s *server) sessionLogin(ctx echo.Context) error {
	data := new(LoginRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	ok, err := MustStore(ctx).Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if err == session.ErrUnavailable || err == session.ErrInitializing {
			return errHttpUnavailable
		}
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Success: ok})
}

func (s *server) sessionLogout(ctx echo.Context) error {
	MustStore(ctx).Logout(ctx.Request().Context())
	return ctx.NoContent(http.StatusNoContent)
}

func (s *server) userQuery(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return err
	}
	filter.Clean()
	if filter.Role != "" && !filter.Role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	users, err := s.opts.UserSvc.Query(*filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	identities := make([]user.Identity, len(users))
	for i, usr := range users {
		identities[i] = usr.Identity
	}
	return ctx.JSON(http.StatusOK, identities)
}
