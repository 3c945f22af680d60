package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tomek7667/emsboard/internal/charts"
	"github.com/tomek7667/emsboard/internal/collector"
	"github.com/tomek7667/emsboard/internal/dashboard"
	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/enpi"
	"github.com/tomek7667/emsboard/internal/metrics"
)

type Store interface {
	enpi.Store
	dashboard.Store

	Ping(ctx context.Context) error

	ListBaselines(ctx context.Context) ([]domain.Baseline, error)
	CreateBaseline(ctx context.Context, in domain.BaselineInput) (int64, error)
	DeleteBaseline(ctx context.Context, id int64) error
	SaveMonitored(ctx context.Context, in domain.MonitoredInput) error

	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
	CreateChart(ctx context.Context, ch domain.ChartConfig) (int64, error)
	UpdateChart(ctx context.Context, id int64, ch domain.ChartConfig) error
	DeleteChart(ctx context.Context, id int64) error

	EnpiDefinitions(ctx context.Context) ([]domain.EnpiDefinition, error)
	CreateEnpiDefinition(ctx context.Context, d domain.EnpiDefinition) (int64, error)
	SaveEnpiMonth(ctx context.Context, d domain.EnpiDefinition, year int, in domain.EnpiDataInput) error

	Events(ctx context.Context, status string) ([]domain.Event, error)
	CreateEvent(ctx context.Context, in domain.EventInput, now time.Time) (int64, error)
	Event(ctx context.Context, id int64) (domain.EventDetail, error)
	UpdateEvent(ctx context.Context, id int64, u domain.EventUpdate) error
	AddAction(ctx context.Context, eventID int64, in domain.ActionInput, now time.Time) error
}

type Options struct {
	Port      int
	Store     Store
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Renderer  *charts.Renderer
	Monitor   *dashboard.Monitor
	Collector *collector.Collector
}

type Server struct {
	port      int
	store     Store
	log       *zap.Logger
	metrics   *metrics.Metrics
	renderer  *charts.Renderer
	monitor   *dashboard.Monitor
	collector *collector.Collector
	now       func() time.Time
	r         *chi.Mux
}

// New wires the routes. Monitor and Collector are optional; without a
// monitor the dashboard is built on every request.
func New(o Options) *Server {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Renderer == nil {
		o.Renderer = charts.NewRenderer("")
	}
	s := &Server{
		r:         chi.NewRouter(),
		port:      o.Port,
		store:     o.Store,
		log:       o.Logger,
		metrics:   o.Metrics,
		renderer:  o.Renderer,
		monitor:   o.Monitor,
		collector: o.Collector,
		now:       time.Now,
	}
	s.r.Use(middleware.RequestID)
	s.r.Use(middleware.RealIP)
	s.r.Use(newRequestLogger(s.log, "/metrics", "/api/realtime_dashboard", "/healthz"))
	s.r.Use(middleware.Recoverer)

	// The websocket outlives any request timeout.
	s.r.Get("/ws/dashboard", s.handleDashboardSocket)

	s.r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		s.addPageRoutes(r)
		s.addBaselineRoutes(r)
		s.addChartRoutes(r)
		s.addEnpiRoutes(r)
		s.addEventRoutes(r)
		s.addSystemRoutes(r)
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.r
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
