// Package relay is the browser facing web server. It forwards login,
// registration and logout to the backend, relays the session cookie, and
// guards the dashboard page.
package relay

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Tomlord1122/todolist/internal/config"
)

type Handler struct {
	backend *BackendClient
	cookie  config.RelayConfig
	proxy   http.Handler
	logger  zerolog.Logger
}

// NewHandler builds the relay routes. Only the cookie fields of cfg are used.
func NewHandler(backend *BackendClient, cfg config.RelayConfig, logger zerolog.Logger) *Handler {
	logger = logger.With().Str("component", "relay").Logger()
	return &Handler{
		backend: backend,
		cookie:  cfg,
		proxy:   newBackendProxy(backend, logger),
		logger:  logger,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(h.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.loginHandler)
		r.Post("/sign-in", h.signInHandler)
		r.Post("/logout", h.logoutHandler)
	})

	r.Get("/login", h.loginPage)
	r.Get("/sign-in", h.signInPage)
	r.With(h.RouteGuard).Get("/app", h.appPage)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app", http.StatusSeeOther)
	})

	r.Handle("/Todos", h.proxy)
	r.Handle("/Todos/*", h.proxy)
	r.Handle("/manage/*", h.proxy)
	r.Handle("/logout", h.proxy)

	return r
}

// NewServer builds the relay's http.Server.
func NewServer(cfg config.RelayConfig, logger zerolog.Logger) (*http.Server, error) {
	backend, err := NewBackendClient(cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		return nil, err
	}
	h := NewHandler(backend, cfg, logger)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(),
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
