package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/tomek7667/emsboard/internal/charts"
	"github.com/tomek7667/emsboard/internal/collector"
	"github.com/tomek7667/emsboard/internal/config"
	"github.com/tomek7667/emsboard/internal/dashboard"
	"github.com/tomek7667/emsboard/internal/http"
	"github.com/tomek7667/emsboard/internal/logging"
	"github.com/tomek7667/emsboard/internal/metrics"
	"github.com/tomek7667/emsboard/internal/sqlite"
)

func cmdServe() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the dashboard server (default command)",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, level, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	renderer := charts.NewRenderer(cfg.Dashboard.AssetsHost)
	monitor := dashboard.NewMonitor(db, renderer, cfg.RefreshInterval(), log.Named("dashboard"), m)
	monitor.Start(ctx)

	var coll *collector.Collector
	if cfg.Collector.Enabled {
		coll = collector.New(collector.NewSystem(filepath.Dir(cfg.Database)), db, collector.Options{
			Interval:  time.Duration(cfg.Collector.Interval),
			Retention: time.Duration(cfg.Collector.Retention),
			Logger:    log.Named("collector"),
			Metrics:   m,
		})
		coll.Start(ctx)
	}

	// Only the log level is applied live; everything else needs a restart.
	if path := c.String("config"); path != "" {
		_, err := config.Watch(ctx, path, log.Named("config"), func(next *config.Config) {
			if c.IsSet("log-level") {
				return
			}
			if err := logging.SetLevel(level, next.Logging.Level); err != nil {
				log.Warn("log level not applied", zap.Error(err))
				return
			}
			log.Info("config reloaded", zap.String("log_level", next.Logging.Level))
		})
		if err != nil {
			log.Warn("config file is not watched", zap.String("path", path), zap.Error(err))
		}
	}

	if ip, err := collector.PreferredIP(); err == nil && ip != "" {
		log.Info("dashboard available", zap.String("url", fmt.Sprintf("http://%s:%d", ip, cfg.Port)))
	}

	server := http.New(http.Options{
		Port:      cfg.Port,
		Store:     db,
		Logger:    log.Named("http"),
		Metrics:   m,
		Renderer:  renderer,
		Monitor:   monitor,
		Collector: coll,
	})
	err = server.Serve(ctx)

	stop()
	<-monitor.Done()
	if coll != nil {
		<-coll.Done()
	}
	return err
}
