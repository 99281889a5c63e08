package echoapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const flashCookieName = "eduatipico_flash"

// flash kinds
const (
	flashSuccess = "success"
	flashError   = "error"
)

// notice is a one-time message shown on the next rendered page.
type notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func setFlash(ctx echo.Context, kind, msg string) {
	payload, err := json.Marshal(notice{Kind: kind, Message: msg})
	if err != nil {
		return
	}
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   ctx.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(ctx echo.Context) *notice {
	cookie, err := ctx.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   ctx.IsTLS(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var n notice
	if err := json.Unmarshal(decoded, &n); err != nil || n.Message == "" {
		return nil
	}
	return &n
}
