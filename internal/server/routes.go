package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.rootHandler)

	r.Get("/health", s.healthHandler)

	r.Post("/register", s.registerHandler)
	r.Post("/login", s.loginHandler)
	r.Post("/logout", s.logoutHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.requireCaller)
		r.Get("/manage/info", s.infoHandler)
	})

	todoRoutes := func(r chi.Router) {
		r.Use(s.requireCaller)
		r.Get("/", s.listTodosHandler)
		r.Post("/", s.createTodoHandler)
		r.Patch("/complete/{id}", s.completeTodoHandler)
		r.Patch("/cancel/{id}", s.cancelTodoHandler)
		r.Delete("/{id}", s.deleteTodoHandler)
	}
	r.Route("/Todos", todoRoutes)
	r.Route("/todos", todoRoutes)

	return r
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Todo API"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}
