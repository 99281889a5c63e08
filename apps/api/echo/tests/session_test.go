package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
)

func Test_sessionApi(t *testing.T) {
	env := setup(t)
	b := newBrowser(t, env.app)

	admin, err := env.usrRepo.GetUserByEmail(adminEmail)
	require.NoError(t, err)

	anonymous := marchallObj(t, session.Snapshot{})
	authenticated := marchallObj(t, session.Snapshot{Identity: &admin.Identity})

	tests := []httpTest{
		{
			name:     "anonymous",
			method:   http.MethodGet,
			path:     "/api/v1/session",
			wantCode: http.StatusOK,
			wantData: anonymous,
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/api/v1/session",
			body:     []byte(`{"email":"admin@eduatipico.com","password":"nope"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":false}`),
		},
		{
			name:     "unknown email",
			method:   http.MethodPost,
			path:     "/api/v1/session",
			body:     []byte(`{"email":"ghost@eduatipico.com","password":"admin123"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":false}`),
		},
		{
			name:     "still anonymous",
			method:   http.MethodGet,
			path:     "/api/v1/session",
			wantCode: http.StatusOK,
			wantData: anonymous,
		},
		{
			name:     "login",
			method:   http.MethodPost,
			path:     "/api/v1/session",
			body:     []byte(`{"email":"admin@eduatipico.com","password":"admin123"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":true}`),
		},
		{
			name:     "authenticated",
			method:   http.MethodGet,
			path:     "/api/v1/session",
			wantCode: http.StatusOK,
			wantData: authenticated,
		},
		{
			name:     "failed login keeps the session",
			method:   http.MethodPost,
			path:     "/api/v1/session",
			body:     []byte(`{"email":"maria@eduatipico.com","password":"nope"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":false}`),
		},
		{
			name:     "still authenticated",
			method:   http.MethodGet,
			path:     "/api/v1/session",
			wantCode: http.StatusOK,
			wantData: authenticated,
		},
		{
			name:     "logout",
			method:   http.MethodDelete,
			path:     "/api/v1/session",
			wantCode: http.StatusNoContent,
		},
		{
			name:     "anonymous again",
			method:   http.MethodGet,
			path:     "/api/v1/session",
			wantCode: http.StatusOK,
			wantData: anonymous,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.run(t, tt)
		})
	}
}

// the persisted record outlives the server process: a second server sharing the backend restores it.
func Test_sessionApi_restore(t *testing.T) {
	first := setup(t)
	b := first.loggedIn(t, cuidadorEmail)

	second := setup(t, setupOpts{backend: first.backend})
	b.app = second.app

	rec := b.get("/api/v1/session")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"maria@eduatipico.com"`)
	assert.Contains(t, rec.Body.String(), `"loading":false`)
}

type authFunc func(ctx context.Context, email, secret string) (user.Identity, error)

func (f authFunc) Authenticate(ctx context.Context, email, secret string) (user.Identity, error) {
	return f(ctx, email, secret)
}

func Test_sessionApi_unavailable(t *testing.T) {
	env := setup(t, setupOpts{auth: authFunc(func(ctx context.Context, _, _ string) (user.Identity, error) {
		<-ctx.Done()
		return user.Identity{}, ctx.Err()
	}), loginTimeout: 50 * time.Millisecond})
	b := newBrowser(t, env.app)

	start := time.Now()
	b.run(t, httpTest{
		path:     "/api/v1/session",
		body:     []byte(`{"email":"admin@eduatipico.com","password":"admin123"}`),
		wantCode: http.StatusServiceUnavailable,
		wantData: marchallObj(t, httpErr{Error: "authentication is temporarily unavailable, try again"}),
	})
	assert.Less(t, time.Since(start), 5*time.Second)

	b.run(t, httpTest{
		method:   http.MethodGet,
		path:     "/api/v1/session",
		wantCode: http.StatusOK,
		wantData: marchallObj(t, session.Snapshot{}),
	})
}

func Test_gate_pending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	env := setup(t, setupOpts{auth: authFunc(func(ctx context.Context, email, _ string) (user.Identity, error) {
		started <- struct{}{}
		<-release
		return user.Identity{ID: "1", Name: "Admin Sistema", Email: email, Role: user.RoleAdmin}, nil
	}), loginTimeout: 10 * time.Second})
	b := newBrowser(t, env.app)
	b.get("/api/v1/session") // obtain a client id

	req := b.newRequest(http.MethodPost, "/api/v1/session",
		strings.NewReader(`{"email":"admin@eduatipico.com","password":"x"}`), "application/json")
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		env.app.ServeHTTP(rec, req)
		done <- rec
	}()
	<-started

	rec := b.get("/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`)

	rec = b.get("/api/v1/users")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"loading":true}`, rec.Body.String())

	rec = b.get("/api/v1/session")
	assert.Contains(t, rec.Body.String(), `"loading":true`)

	close(release)
	res := <-done
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"success":true}`, res.Body.String())

	rec = b.get("/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Admin Sistema"))
}

func Test_clientCookie(t *testing.T) {
	env := setup(t)
	b := env.loggedIn(t, adminEmail)
	name := env.conf.Session.CookieName
	require.NotNil(t, b.cookies[name])
	issued := b.cookies[name].Value

	// a valid cookie is kept
	rec := b.get("/api/v1/session")
	assert.Contains(t, rec.Body.String(), adminEmail)
	assert.Equal(t, issued, b.cookies[name].Value)

	// a tampered cookie starts a fresh anonymous client
	b.cookies[name].Value = issued[:len(issued)-2] + "xx"
	rec = b.get("/api/v1/session")
	assert.JSONEq(t, string(marchallObj(t, session.Snapshot{})), rec.Body.String())
	assert.NotEqual(t, issued, b.cookies[name].Value)

	c := rec.Result().Cookies()
	require.NotEmpty(t, c)
	assert.True(t, c[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c[0].SameSite)
}

func Test_clientCookie_noTTL(t *testing.T) {
	env := setup(t)
	env.conf.Session.TTL = 0
	name := env.conf.Session.CookieName

	b := env.loggedIn(t, cuidadorEmail)
	require.NotNil(t, b.cookies[name])
	assert.Equal(t, 0, b.cookies[name].MaxAge, "browser-session cookie")
	issued := b.cookies[name].Value

	rec := b.get("/api/v1/session")
	assert.Contains(t, rec.Body.String(), cuidadorEmail)
	assert.Equal(t, issued, b.cookies[name].Value, "token without expiry is kept")

	rec = b.get("/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
}
