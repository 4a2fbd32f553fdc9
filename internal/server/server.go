package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/database"
	"github.com/Tomlord1122/todolist/internal/identity"
	"github.com/Tomlord1122/todolist/internal/service"
	"github.com/Tomlord1122/todolist/internal/validation"
)

// Identity is what the HTTP layer needs from the identity provider.
type Identity interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Resolve(r *http.Request) (string, error)
	Info(ctx context.Context, userID string) (*identity.Info, error)
	TokenFromRequest(r *http.Request) (string, bool)
	SetSessionCookie(w http.ResponseWriter, token string)
	ClearSessionCookie(w http.ResponseWriter)
}

type Server struct {
	port           int
	allowedOrigins []string
	todoService    service.TodoService
	identity       Identity
	db             database.Service
	validate       *validation.Validator
	logger         zerolog.Logger
}

func NewServer(cfg config.HTTPConfig, todoService service.TodoService, ident Identity, dbService database.Service, logger zerolog.Logger) *http.Server {
	appServer := &Server{
		port:           cfg.Port,
		allowedOrigins: cfg.AllowedOrigins,
		todoService:    todoService,
		identity:       ident,
		db:             dbService,
		validate:       validation.New(),
		logger:         logger.With().Str("component", "http").Logger(),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server
}
