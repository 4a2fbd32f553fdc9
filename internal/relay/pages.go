package relay

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Title string
	Email string
}

func renderPage(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", name).Msg("failed to render page")
	}
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, "login.html", pageData{Title: "Log in"})
}

func (h *Handler) signInPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, "sign-in.html", pageData{Title: "Sign up"})
}

func (h *Handler) appPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Todos"}
	if info, ok := AccountFrom(r.Context()); ok {
		data.Email = info.Email
	}
	renderPage(w, r, "app.html", data)
}
