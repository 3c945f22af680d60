package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed ui/*.html
var uiFS embed.FS

var pageTmpl = template.Must(template.ParseFS(uiFS, "ui/*.html"))

type pageData struct {
	Title  string
	Active string
	Year   int
	// RefreshSeconds is how often the dashboard reloads without a socket.
	RefreshSeconds int
}

var pages = []struct{ path, name, title string }{
	{"/dashboard", "dashboard", "Real-time dashboard"},
	{"/regression", "regression", "Regression baselines"},
	{"/enpi", "enpi", "EnPI"},
	{"/events", "events", "Events"},
	{"/admin", "admin", "Chart admin"},
}

func (s *Server) addPageRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	for _, p := range pages {
		r.Get(p.path, func(w http.ResponseWriter, r *http.Request) {
			data := pageData{Title: p.title, Active: p.name, Year: s.now().Year(), RefreshSeconds: 30}
			if s.monitor != nil {
				data.RefreshSeconds = int(s.monitor.Interval().Seconds())
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := pageTmpl.ExecuteTemplate(w, p.name+".html", data); err != nil {
				s.log.Error("page render failed", zap.String("page", p.name), zap.Error(err))
			}
		})
	}
}
