package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tomek7667/emsboard/internal/dashboard"
	"github.com/tomek7667/emsboard/internal/domain"
)

func (s *Server) addChartRoutes(r chi.Router) {
	r.Get("/api/realtime_dashboard", s.realtimeDashboard)
	r.Get("/api/config/tables", s.listTables)
	r.Get("/api/config/columns", s.listColumns)
	r.Route("/api/config/charts", func(r chi.Router) {
		r.Get("/", s.listCharts)
		r.Post("/", s.createChart)
		r.Put("/{id}", s.updateChart)
		r.Delete("/{id}", s.deleteChart)
	})
	r.Get("/charts/dashboard/{index}", s.dashboardChart)
}

// writeChart renders charts into a buffer first so a failed render still
// gets a JSON error.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, cs ...components.Charter) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, cs...); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) realtimeDashboard(w http.ResponseWriter, r *http.Request) {
	if s.monitor != nil {
		snap := s.monitor.Snapshot()
		if !snap.UpdatedAt.IsZero() {
			writeJSON(w, http.StatusOK, snap.Charts)
			return
		}
	}
	data, err := dashboard.Load(r.Context(), s.store, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// dashboardChart serves the rendered chart at a display position. The
// monitor's panels are used when they exist.
func (s *Server) dashboardChart(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		s.writeError(w, r, domain.ErrInvalid)
		return
	}
	if s.monitor != nil {
		if p, found := s.monitor.Panel(index); found {
			if html := p.HTML(); html != nil {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Write(html)
				return
			}
		}
	}
	data, err := dashboard.Load(r.Context(), s.store, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if index >= len(data) {
		s.writeError(w, r, domain.ErrNotFound)
		return
	}
	s.writeChart(w, r, s.renderer.Dashboard(data[index]))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleDashboardSocket pushes the dashboard data after every monitor
// refresh, starting with the current snapshot.
func (s *Server) handleDashboardSocket(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		s.writeError(w, r, domain.ErrNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := s.monitor.Subscribe()
	defer cancel()

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(snap dashboard.Snapshot) bool {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(snap) == nil
	}
	if !send(s.monitor.Snapshot()) {
		return
	}
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case snap := <-updates:
			if !send(snap) {
				return
			}
		}
	}
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.store.Tables(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) listColumns(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimSpace(r.URL.Query().Get("table"))
	if table == "" {
		s.writeError(w, r, errMissingTable)
		return
	}
	columns, err := s.store.Columns(r.Context(), table)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, columns)
}

func (s *Server) listCharts(w http.ResponseWriter, r *http.Request) {
	configs, err := s.store.Charts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if configs == nil {
		configs = []domain.ChartConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (s *Server) createChart(w http.ResponseWriter, r *http.Request) {
	var ch domain.ChartConfig
	if err := decode(r, &ch); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateChart(r.Context(), ch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.refreshDashboard(r)
	writeJSON(w, http.StatusCreated, ok{Success: true, Message: "chart created", ID: id})
}

func (s *Server) updateChart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var ch domain.ChartConfig
	if err := decode(r, &ch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateChart(r.Context(), id, ch); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.refreshDashboard(r)
	writeJSON(w, http.StatusOK, ok{Success: true, Message: "chart updated"})
}

func (s *Server) deleteChart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteChart(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.refreshDashboard(r)
	writeJSON(w, http.StatusOK, ok{Success: true, Message: "chart deleted"})
}

// refreshDashboard rebuilds the monitor after a config change so the
// dashboard does not wait for the next tick.
func (s *Server) refreshDashboard(r *http.Request) {
	if s.monitor == nil {
		return
	}
	if err := s.monitor.Refresh(r.Context()); err != nil {
		s.log.Warn("dashboard refresh after config change failed", zap.Error(err))
	}
}
