package tests

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/eduatipico/portal/apps/api/echo"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	form     url.Values
	wantCode int
	wantData []byte
	wantBody string // substring of an HTML body
	wantLoc  string
}

// browser replays the cookies a real browser would keep between requests.
type browser struct {
	t       *testing.T
	app     Server
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, app Server) *browser {
	return &browser{t: t, app: app, cookies: make(map[string]*http.Cookie)}
}

// newRequest builds a request carrying the current cookies.
func (b *browser) newRequest(method, path string, body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

func (b *browser) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := b.newRequest(method, path, body, contentType)
	rec := httptest.NewRecorder()
	b.app.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil, "")
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (b *browser) postJSON(path string, data []byte) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, strings.NewReader(string(data)), "application/json")
}

func (b *browser) login(email, pwd string) {
	b.t.Helper()
	rec := b.postForm("/login", url.Values{"email": {email}, "password": {pwd}})
	if rec.Code != http.StatusSeeOther {
		b.t.Fatalf("login(%s) failed: code = %v; body %s", email, rec.Code, rec.Body.String())
	}
}

func (b *browser) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	var rec *httptest.ResponseRecorder
	switch {
	case tt.form != nil:
		rec = b.postForm(tt.path, tt.form)
	case tt.body != nil:
		rec = b.postJSON(tt.path, tt.body)
	default:
		rec = b.do(tt.method, tt.path, nil, "")
	}
	checkResponse(t, tt, rec)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantLoc != "" {
		assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
	}
	if tt.wantBody != "" {
		assert.Contains(t, rec.Body.String(), tt.wantBody)
	}
	if tt.wantData != nil {
		ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
		if err != nil {
			t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
		}
		if !ok {
			t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
		}
	}
}
