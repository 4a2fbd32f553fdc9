package relay

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

type ctxKey int

const accountKey ctxKey = iota

var errNoCookie = errors.New("no session cookie")

// RouteGuard only lets a request through when the backend recognises its
// session cookie. Everything else is sent to /login.
func (h *Handler) RouteGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := h.account(r)
		if err != nil {
			hlog.FromRequest(r).Info().Err(err).Str("path", r.URL.Path).Msg("redirecting to login")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), accountKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) account(r *http.Request) (*AccountInfo, error) {
	session, err := r.Cookie(h.cookie.CookieName)
	if err != nil || session.Value == "" {
		return nil, errNoCookie
	}
	return h.backend.Info(r.Context(), session)
}

// AccountFrom returns the account RouteGuard stored on ctx.
func AccountFrom(ctx context.Context) (*AccountInfo, bool) {
	info, ok := ctx.Value(accountKey).(*AccountInfo)
	return info, ok
}
