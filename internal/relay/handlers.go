package relay

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

const backendUnavailable = "Backend unavailable"

type message struct {
	Message string `json:"message"`
}

type success struct {
	Msg string `json:"msg"`
}

func (h *Handler) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, message{"Invalid request body"})
		return
	}

	resp, err := h.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("login request to backend failed")
		respondWithJSON(w, http.StatusInternalServerError, message{backendUnavailable})
		return
	}
	if !resp.ok() {
		h.relayFailure(w, r, resp, "Login failed")
		return
	}

	cookies := resp.Header.Values("Set-Cookie")
	if len(cookies) == 0 {
		hlog.FromRequest(r).Error().Int("status", resp.Status).Msg("backend login returned no cookie")
		respondWithJSON(w, http.StatusBadGateway, message{"Could not get set-cookie"})
		return
	}
	for _, c := range cookies {
		w.Header().Add("Set-Cookie", c)
	}
	respondWithJSON(w, http.StatusOK, success{"success"})
}

func (h *Handler) signInHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, message{"Invalid request body"})
		return
	}

	resp, err := h.backend.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("register request to backend failed")
		respondWithJSON(w, http.StatusInternalServerError, message{backendUnavailable})
		return
	}
	if !resp.ok() {
		h.relayFailure(w, r, resp, "Registration failed")
		return
	}
	respondWithJSON(w, http.StatusOK, success{"success"})
}

// logoutHandler always clears the browser cookie. Clearing cookies sent by
// the backend are passed on; otherwise, or when the backend cannot be reached,
// the relay expires the cookie itself with the configured attributes.
func (h *Handler) logoutHandler(w http.ResponseWriter, r *http.Request) {
	cleared := false
	if session, err := r.Cookie(h.cookie.CookieName); err == nil {
		resp, err := h.backend.Logout(r.Context(), session)
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("logout request to backend failed")
		} else {
			if !resp.ok() {
				hlog.FromRequest(r).Warn().Int("status", resp.Status).Msg("backend rejected logout")
			}
			cleared = h.relayClearingCookies(w, resp)
		}
	}

	if !cleared {
		http.SetCookie(w, h.expiredCookie())
	}
	respondWithJSON(w, http.StatusOK, message{"Signed out"})
}

// relayClearingCookies copies the backend's Set-Cookie headers and reports
// whether one of them expires the session cookie.
func (h *Handler) relayClearingCookies(w http.ResponseWriter, resp *BackendResponse) bool {
	cleared := false
	for _, line := range resp.Header.Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		w.Header().Add("Set-Cookie", line)
		if c.Name == h.cookie.CookieName && (c.MaxAge < 0 || c.Value == "") {
			cleared = true
		}
	}
	return cleared
}

func (h *Handler) expiredCookie() *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cookie.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: sameSite,
	}
}

// relayFailure answers with the backend's status and a flattened message.
func (h *Handler) relayFailure(w http.ResponseWriter, r *http.Request, resp *BackendResponse, fallback string) {
	msg, err := failureMessage(resp.Body, fallback)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Int("status", resp.Status).Msg("could not parse backend error")
		respondWithJSON(w, http.StatusInternalServerError, message{err.Error()})
		return
	}
	respondWithJSON(w, resp.Status, message{msg})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
