package relay

import (
	"net/http"
	"net/http/httputil"

	"github.com/rs/zerolog"
)

// newBackendProxy forwards requests unchanged to the backend, cookies
// included, so the browser can call /Todos and friends on the relay origin.
func newBackendProxy(backend *BackendClient, logger zerolog.Logger) http.Handler {
	target := backend.baseURL
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("backend proxy failed")
			respondWithJSON(w, http.StatusBadGateway, message{backendUnavailable})
		},
	}
}
