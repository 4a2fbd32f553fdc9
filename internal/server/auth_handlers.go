package server

import (
	"net/http"

	"github.com/rs/zerolog/hlog"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.identity.Register(r.Context(), req.Email, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// loginHandler always answers with a cookie; useCookies and
// useSessionCookies are accepted for client compatibility.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("login failed")
		writeServiceError(w, r, err)
		return
	}

	s.identity.SetSessionCookie(w, token)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.identity.Resolve(r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	token, _ := s.identity.TokenFromRequest(r)

	if err := s.identity.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.identity.ClearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	info, err := s.identity.Info(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, info)
}
