package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/safar/lanchonete-orders/internal/auth"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTitles = map[string]string{
	"index.html":          "Cardápio",
	"login.html":          "Login",
	"acompanhamento.html": "Acompanhamento",
	"painel.html":         "Painel",
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(pageTitles))
	for name := range pageTitles {
		parsed[name] = template.Must(template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
	}
	return parsed
}

type pageData struct {
	Title string
	User  string
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html")
}

func (h *Handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, name)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string) {
	user, _ := auth.UserFromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages[name].ExecuteTemplate(w, name, pageData{Title: pageTitles[name], User: user}); err != nil {
		h.logger.ErrorContext(r.Context(), "render page", slog.String("page", name), slog.String("error", err.Error()))
	}
}
