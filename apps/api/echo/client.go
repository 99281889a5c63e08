package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	clientIDKey    = "clientID"
	clientAudience = "eduatipico-client"
)

var errInvalidClientToken = errors.New("invalid client token")

// clientMiddleware identifies the browser with an opaque client id carried in a signed cookie.
// A missing, expired or tampered cookie gets a fresh client id. A zero session TTL issues a
// token without expiry in a browser-session cookie.
func (s *server) clientMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			conf := s.opts.Conf
			var clientID string
			var expiresAt time.Time

			if cookie, err := ctx.Cookie(conf.Session.CookieName); err == nil {
				clientID, expiresAt, _ = s.parseClientToken(cookie.Value)
			}
			// reissue when new, and refresh once half the lifetime is gone
			ttl := conf.Session.TTL
			if clientID == "" || (ttl > 0 && time.Until(expiresAt) < ttl/2) {
				if clientID == "" {
					clientID = uuid.NewString()
				}
				if err := s.setClientCookie(ctx, clientID); err != nil {
					return errors.Wrap(err, "issuing client cookie")
				}
			}

			ctx.Set(clientIDKey, clientID)
			return next(ctx)
		}
	}
}

func (s *server) newClientToken(clientID string, now time.Time) (string, error) {
	conf := s.opts.Conf
	claims := jwt.RegisteredClaims{
		Issuer:   conf.AppName,
		Subject:  clientID,
		Audience: jwt.ClaimStrings{clientAudience},
		IssuedAt: jwt.NewNumericDate(now),
	}
	if conf.Session.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(conf.Session.TTL))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing client token")
	}
	return ss, nil
}

func (s *server) parseClientToken(raw string) (clientID string, expiresAt time.Time, err error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(clientAudience),
	}
	if s.opts.Conf.Session.TTL > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	claims := new(jwt.RegisteredClaims)
	_, err = jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(s.opts.Conf.SecretKey), nil },
		opts...,
	)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "parsing client token")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", time.Time{}, errInvalidClientToken
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return claims.Subject, expiresAt, nil
}

func (s *server) setClientCookie(ctx echo.Context, clientID string) error {
	conf := s.opts.Conf
	token, err := s.newClientToken(clientID, time.Now())
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(conf.Session.TTL.Seconds()), // 0: session cookie
		HttpOnly: true,
		Secure:   ctx.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func getClientID(ctx echo.Context) string {
	id, _ := ctx.Get(clientIDKey).(string)
	return id
}
