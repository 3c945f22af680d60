package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomek7667/emsboard/internal/baseline"
	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/export"
)

type baselineReport struct {
	Baseline domain.Baseline `json:"baseline"`
	Factors  []domain.Factor `json:"factors"`
	Rows     []baseline.Row  `json:"rows"`
}

func (s *Server) addBaselineRoutes(r chi.Router) {
	r.Route("/api/regression_baselines", func(r chi.Router) {
		r.Get("/", s.listBaselines)
		r.Post("/", s.createBaseline)
		r.Get("/{id}", s.getBaseline)
		r.Delete("/{id}", s.deleteBaseline)
		r.Get("/{id}/report", s.baselineReport)
		r.Get("/{id}/export.xlsx", s.exportBaseline)
	})
	r.Post("/api/monitored_data", s.saveMonitored)
	r.Get("/charts/baseline/{id}", s.baselineChart)
}

func (s *Server) listBaselines(w http.ResponseWriter, r *http.Request) {
	baselines, err := s.store.ListBaselines(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if baselines == nil {
		baselines = []domain.Baseline{}
	}
	writeJSON(w, http.StatusOK, baselines)
}

func (s *Server) createBaseline(w http.ResponseWriter, r *http.Request) {
	var in domain.BaselineInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateBaseline(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok{Success: true, Message: "baseline created", ID: id})
}

func (s *Server) loadBaseline(w http.ResponseWriter, r *http.Request) (domain.BaselineDetail, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return domain.BaselineDetail{}, false
	}
	d, err := s.store.Baseline(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return domain.BaselineDetail{}, false
	}
	return d, true
}

func (s *Server) getBaseline(w http.ResponseWriter, r *http.Request) {
	if d, found := s.loadBaseline(w, r); found {
		writeJSON(w, http.StatusOK, d)
	}
}

func (s *Server) deleteBaseline(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteBaseline(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok{Success: true, Message: "baseline deleted"})
}

func (s *Server) baselineReport(w http.ResponseWriter, r *http.Request) {
	d, found := s.loadBaseline(w, r)
	if !found {
		return
	}
	s.metrics.ReportBuilt("baseline")
	writeJSON(w, http.StatusOK, baselineReport{Baseline: d.Baseline, Factors: d.Factors, Rows: baseline.Report(d)})
}

func (s *Server) exportBaseline(w http.ResponseWriter, r *http.Request) {
	d, found := s.loadBaseline(w, r)
	if !found {
		return
	}
	var buf bytes.Buffer
	if err := export.Baseline(&buf, d, baseline.Report(d)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ReportBuilt("baseline")
	writeAttachment(w, export.Filename("baseline", d.Baseline.Name, d.Baseline.Year), buf.Bytes())
}

func (s *Server) baselineChart(w http.ResponseWriter, r *http.Request) {
	d, found := s.loadBaseline(w, r)
	if !found {
		return
	}
	s.writeChart(w, r, s.renderer.Baseline(d.Baseline, baseline.Report(d)))
}

func (s *Server) saveMonitored(w http.ResponseWriter, r *http.Request) {
	var in domain.MonitoredInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveMonitored(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok{Success: true, Message: "monitored data saved"})
}

func writeAttachment(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
