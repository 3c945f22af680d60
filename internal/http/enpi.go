package http

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/enpi"
	"github.com/tomek7667/emsboard/internal/export"
)

func (s *Server) addEnpiRoutes(r chi.Router) {
	r.Get("/api/enpi/definitions", s.listEnpiDefinitions)
	r.Post("/api/enpi/definitions", s.createEnpiDefinition)
	r.Route("/api/enpi/data/{id}/{year}", func(r chi.Router) {
		r.Get("/", s.enpiData)
		r.Post("/", s.saveEnpiData)
		r.Get("/export.xlsx", s.exportEnpi)
	})
	r.Get("/charts/enpi/{id}/{year}", s.enpiChart)
}

func (s *Server) listEnpiDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.EnpiDefinitions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if defs == nil {
		defs = []domain.EnpiDefinition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) createEnpiDefinition(w http.ResponseWriter, r *http.Request) {
	var def domain.EnpiDefinition
	if err := decode(r, &def); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateEnpiDefinition(r.Context(), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok{Success: true, Message: "EnPI created", ID: id})
}

func (s *Server) loadEnpiReport(w http.ResponseWriter, r *http.Request) (domain.EnpiReport, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return domain.EnpiReport{}, false
	}
	year, err := yearParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return domain.EnpiReport{}, false
	}
	report, err := enpi.Load(r.Context(), s.store, id, year)
	if err != nil {
		s.writeError(w, r, err)
		return domain.EnpiReport{}, false
	}
	s.metrics.ReportBuilt("enpi")
	return report, true
}

func (s *Server) enpiData(w http.ResponseWriter, r *http.Request) {
	if report, found := s.loadEnpiReport(w, r); found {
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) saveEnpiData(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	year, err := yearParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in domain.EnpiDataInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	def, err := s.store.EnpiDefinition(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveEnpiMonth(r.Context(), def, year, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok{Success: true, Message: "EnPI data saved"})
}

func (s *Server) exportEnpi(w http.ResponseWriter, r *http.Request) {
	report, found := s.loadEnpiReport(w, r)
	if !found {
		return
	}
	var buf bytes.Buffer
	if err := export.Enpi(&buf, report); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAttachment(w, export.Filename("enpi", report.Definition.Name, report.Year), buf.Bytes())
}

func (s *Server) enpiChart(w http.ResponseWriter, r *http.Request) {
	if report, found := s.loadEnpiReport(w, r); found {
		s.writeChart(w, r, s.renderer.Enpi(report))
	}
}
