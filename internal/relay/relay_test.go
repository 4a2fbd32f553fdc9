package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/logging"
)

const cookieName = "todo_session"

// fakeBackend records what reached it and answers with the configured handler.
type fakeBackend struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	handle   http.HandlerFunc
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
	handle := f.handle
	f.mu.Unlock()
	handle(w, r)
}

func (f *fakeBackend) last(t *testing.T) (*http.Request, string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "backend was not called")
	return f.requests[len(f.requests)-1], f.bodies[len(f.bodies)-1]
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

var localCookies = config.RelayConfig{CookieName: cookieName}

func newRelay(t *testing.T, handle http.HandlerFunc) (http.Handler, *fakeBackend) {
	t.Helper()
	return newRelayWith(t, localCookies, handle)
}

func newRelayWith(t *testing.T, cfg config.RelayConfig, handle http.HandlerFunc) (http.Handler, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{handle: handle}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := NewBackendClient(srv.URL, 2*time.Second)
	require.NoError(t, err)
	return NewHandler(client, cfg, logging.Discard()).Routes(), backend
}

// deadRelay points at a backend that is no longer listening.
func deadRelay(t *testing.T) http.Handler {
	t.Helper()
	return deadRelayWith(t, localCookies)
}

func deadRelayWith(t *testing.T, cfg config.RelayConfig) http.Handler {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewBackendClient(url, 2*time.Second)
	require.NoError(t, err)
	return NewHandler(client, cfg, logging.Discard()).Routes()
}

func serve(h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var m message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m.Message
}

func jsonReply(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func TestLogin_RelaysCookies(t *testing.T) {
	h, backend := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", cookieName+"=abc; Path=/; HttpOnly")
		w.Header().Add("Set-Cookie", "other=1; Path=/")
		w.WriteHeader(http.StatusOK)
	})

	rec := serve(h, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"Passw0rd!"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"success"}`, rec.Body.String())
	assert.Equal(t, []string{cookieName + "=abc; Path=/; HttpOnly", "other=1; Path=/"}, rec.Header().Values("Set-Cookie"))

	req, body := backend.last(t)
	assert.Equal(t, "/login", req.URL.Path)
	assert.Equal(t, "true", req.URL.Query().Get("useCookies"))
	assert.Equal(t, "true", req.URL.Query().Get("useSessionCookies"))
	assert.JSONEq(t, `{"email":"a@example.com","password":"Passw0rd!"}`, body)
}

func TestLogin_MissingSetCookie(t *testing.T) {
	h, _ := newRelay(t, jsonReply(http.StatusOK, `{}`))

	rec := serve(h, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"x"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Could not get set-cookie", messageOf(t, rec))
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"flattened errors", 400, `{"errors":{"a":["x"],"b":["y","z"]}}`, "x. y. z"},
		{"message", 401, `{"message":"nope"}`, "nope"},
		{"title", 401, `{"title":"Unauthorized","status":401,"detail":"Failed"}`, "Unauthorized"},
		{"fallback", 401, `{}`, "Login failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newRelay(t, jsonReply(tt.status, tt.body))

			rec := serve(h, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"x"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, messageOf(t, rec))
			assert.Empty(t, rec.Header().Values("Set-Cookie"))
		})
	}
}

func TestLogin_UnparseableFailure(t *testing.T) {
	h, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	rec := serve(h, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, messageOf(t, rec))
}

func TestBackendDown_HidesDialError(t *testing.T) {
	for _, path := range []string{"/api/login", "/api/sign-in"} {
		rec := serve(deadRelay(t), http.MethodPost, path, `{"email":"a@example.com","password":"x"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "Backend unavailable", messageOf(t, rec), path)
		assert.NotContains(t, rec.Body.String(), "127.0.0.1", path)
	}
}

func TestSignIn(t *testing.T) {
	h, backend := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := serve(h, http.MethodPost, "/api/sign-in", `{"email":"b@example.com","password":"Passw0rd!"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"success"}`, rec.Body.String())
	req, _ := backend.last(t)
	assert.Equal(t, "/register", req.URL.Path)
}

func TestSignIn_Failures(t *testing.T) {
	h, _ := newRelay(t, jsonReply(http.StatusBadRequest,
		`{"title":"One or more validation errors occurred.","status":400,"errors":{"PasswordTooShort":["Passwords must be at least 6 characters."],"DuplicateUserName":["Username 'b@example.com' is already taken."]}}`))

	rec := serve(h, http.MethodPost, "/api/sign-in", `{"email":"b@example.com","password":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords must be at least 6 characters.. Username 'b@example.com' is already taken.", messageOf(t, rec))

	h, _ = newRelay(t, jsonReply(http.StatusConflict, `{}`))
	rec = serve(h, http.MethodPost, "/api/sign-in", `{"email":"b@example.com","password":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Registration failed", messageOf(t, rec))
}

func assertCookieCleared(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestLogout(t *testing.T) {
	session := &http.Cookie{Name: cookieName, Value: "abc"}

	t.Run("forwards the cookie", func(t *testing.T) {
		h, backend := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		rec := serve(h, http.MethodPost, "/api/logout", "", session)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Signed out", messageOf(t, rec))
		assertCookieCleared(t, rec)

		req, _ := backend.last(t)
		assert.Equal(t, "/logout", req.URL.Path)
		c, err := req.Cookie(cookieName)
		require.NoError(t, err)
		assert.Equal(t, "abc", c.Value)
	})

	t.Run("backend error still clears", func(t *testing.T) {
		h, _ := newRelay(t, jsonReply(http.StatusInternalServerError, `{"title":"boom"}`))

		rec := serve(h, http.MethodPost, "/api/logout", "", session)

		require.Equal(t, http.StatusOK, rec.Code)
		assertCookieCleared(t, rec)
	})

	t.Run("backend unreachable still clears", func(t *testing.T) {
		rec := serve(deadRelay(t), http.MethodPost, "/api/logout", "", session)

		require.Equal(t, http.StatusOK, rec.Code)
		assertCookieCleared(t, rec)
	})

	t.Run("relays the backend clearing cookie", func(t *testing.T) {
		h, _ := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Set-Cookie", cookieName+"=; Path=/; Domain=example.com; Max-Age=0; HttpOnly; Secure; SameSite=None")
			w.WriteHeader(http.StatusOK)
		})

		rec := serve(h, http.MethodPost, "/api/logout", "", session)

		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookieName, cookies[0].Name)
		assert.Equal(t, "", cookies[0].Value)
		assert.Equal(t, "example.com", cookies[0].Domain)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
	})

	t.Run("fallback clear carries the cookie domain", func(t *testing.T) {
		scoped := config.RelayConfig{CookieName: cookieName, CookieDomain: "example.com", CookieSecure: true}

		for name, h := range map[string]http.Handler{
			"backend error": func() http.Handler {
				h, _ := newRelayWith(t, scoped, jsonReply(http.StatusInternalServerError, `{}`))
				return h
			}(),
			"backend unreachable": deadRelayWith(t, scoped),
		} {
			rec := serve(h, http.MethodPost, "/api/logout", "", session)

			require.Equal(t, http.StatusOK, rec.Code, name)
			assertCookieCleared(t, rec)
			c := rec.Result().Cookies()[0]
			assert.Equal(t, "example.com", c.Domain, name)
			assert.True(t, c.Secure, name)
			assert.Equal(t, http.SameSiteNoneMode, c.SameSite, name)
		}
	})

	t.Run("no cookie skips the backend", func(t *testing.T) {
		h, backend := newRelay(t, jsonReply(http.StatusOK, `{}`))

		rec := serve(h, http.MethodPost, "/api/logout", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assertCookieCleared(t, rec)
		assert.Zero(t, backend.calls())
	})
}

func TestRouteGuard(t *testing.T) {
	session := &http.Cookie{Name: cookieName, Value: "abc"}

	t.Run("live session renders the dashboard", func(t *testing.T) {
		h, backend := newRelay(t, jsonReply(http.StatusOK, `{"email":"dash@example.com","isEmailConfirmed":false}`))

		rec := serve(h, http.MethodGet, "/app", "", session)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "dash@example.com")
		req, _ := backend.last(t)
		assert.Equal(t, "/manage/info", req.URL.Path)
	})

	redirects := []struct {
		name    string
		handle  http.HandlerFunc
		cookies []*http.Cookie
	}{
		{"missing cookie", jsonReply(http.StatusOK, `{"email":"x"}`), nil},
		{"unauthorized", jsonReply(http.StatusUnauthorized, `{}`), []*http.Cookie{session}},
		{"server error", jsonReply(http.StatusInternalServerError, `{}`), []*http.Cookie{session}},
		{"bad json", jsonReply(http.StatusOK, `not json`), []*http.Cookie{session}},
	}
	for _, tt := range redirects {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newRelay(t, tt.handle)

			rec := serve(h, http.MethodGet, "/app", "", tt.cookies...)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
		})
	}

	t.Run("backend unreachable", func(t *testing.T) {
		rec := serve(deadRelay(t), http.MethodGet, "/app", "", session)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestPages(t *testing.T) {
	h, _ := newRelay(t, jsonReply(http.StatusOK, `{}`))

	for _, path := range []string{"/login", "/sign-in"} {
		rec := serve(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "<form", path)
	}

	rec := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app", rec.Header().Get("Location"))
}

func TestProxy(t *testing.T) {
	h, backend := newRelay(t, jsonReply(http.StatusCreated, `{"id":"t1"}`))
	session := &http.Cookie{Name: cookieName, Value: "abc"}

	rec := serve(h, http.MethodPost, "/Todos", `{"name":"x","date":"2025-12-01"}`, session)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"t1"}`, rec.Body.String())
	req, body := backend.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/Todos", req.URL.Path)
	assert.JSONEq(t, `{"name":"x","date":"2025-12-01"}`, body)
	c, err := req.Cookie(cookieName)
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Value)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPatch, "/Todos/complete/t1"},
		{http.MethodDelete, "/Todos/t1"},
		{http.MethodGet, "/manage/info"},
		{http.MethodPost, "/logout"},
	} {
		serve(h, tc.method, tc.path, "", session)
		req, _ := backend.last(t)
		assert.Equal(t, tc.method, req.Method)
		assert.Equal(t, tc.path, req.URL.Path)
	}
}

func TestProxy_BackendDown(t *testing.T) {
	rec := serve(deadRelay(t), http.MethodGet, "/Todos", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestFailureMessage(t *testing.T) {
	msg, err := failureMessage([]byte(`{"errors":{"z":"single","a":["one","two"]}}`), "fallback")
	require.NoError(t, err)
	assert.Equal(t, "single. one. two", msg)

	msg, err = failureMessage([]byte(`{"errors":null,"title":"t"}`), "fallback")
	require.NoError(t, err)
	assert.Equal(t, "t", msg)

	_, err = failureMessage([]byte(`<html>`), "fallback")
	assert.Error(t, err)
}

func TestNewBackendClient_RejectsRelative(t *testing.T) {
	_, err := NewBackendClient("backend:8080", time.Second)
	assert.Error(t, err)
	_, err = NewBackendClient("/relative", time.Second)
	assert.Error(t, err)
}

func TestNewServer_Timeouts(t *testing.T) {
	srv, err := NewServer(config.RelayConfig{
		Port:         3100,
		BackendURL:   "http://backend:8080",
		CookieName:   cookieName,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 7 * time.Second,
		IdleTimeout:  11 * time.Second,
	}, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, ":3100", srv.Addr)
	assert.Equal(t, 3*time.Second, srv.ReadTimeout)
	assert.Equal(t, 7*time.Second, srv.WriteTimeout)
	assert.Equal(t, 11*time.Second, srv.IdleTimeout)
}
