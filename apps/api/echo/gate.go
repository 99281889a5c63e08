package echoapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
)

var (
	allRoles  []user.Role // any authenticated identity
	adminOnly = []user.Role{user.RoleAdmin}
	staff     = []user.Role{user.RoleAdmin, user.RoleCuidador}
)

// gate admits the request when the session is resolved and its role is one of roles.
// No roles means any authenticated identity.
func (s *server) gate(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			snap := MustStore(ctx).Snapshot()

			switch session.Decide(snap, roles) {
			case session.Pending:
				ctx.Response().Header().Set(echo.HeaderCacheControl, "no-store")
				if wantsJSON(ctx) {
					return ctx.JSON(http.StatusAccepted, echo.Map{"loading": true})
				}
				refresh := s.opts.Conf.Server.PendingRefresh.Seconds()
				if refresh < 1 {
					refresh = 1
				}
				secs := strconv.Itoa(int(refresh))
				ctx.Response().Header().Set("Refresh", secs)
				return s.render(ctx, http.StatusOK, "pending.html", "Carregando", echo.Map{
					"Refresh": secs,
					"URL":     ctx.Request().URL.RequestURI(),
				})
			case session.Redirect:
				if wantsJSON(ctx) {
					return errUnauthorized
				}
				return ctx.Redirect(http.StatusSeeOther, loginURL(ctx.Request().URL.RequestURI()))
			case session.Forbidden:
				return errHttpForbidden
			}

			ctx.Set(identityKey, *snap.Identity)
			return next(ctx)
		}
	}
}

func loginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// safeNext only keeps local paths, so a login never redirects off-site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}
