package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomek7667/emsboard/internal/domain"
)

func (s *Server) addSystemRoutes(r chi.Router) {
	r.Get("/api/system/host", s.host)
	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
}

func (s *Server) host(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		s.writeError(w, r, domain.ErrNotFound)
		return
	}
	info, err := s.collector.Host(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok{Success: true})
}
