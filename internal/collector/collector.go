// Package collector samples the host's cpu and memory usage into the
// host_resources source table so the dashboard always has a live source.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/metrics"
)

const (
	DefaultInterval  = 30 * time.Second
	DefaultRetention = 7 * 24 * time.Hour
	minInterval      = time.Second
	hostInfoTTL      = time.Minute
)

type Sampler interface {
	CPUPercent() (float64, error)
	MemPercent() (float64, error)
	Info() (domain.HostInfo, error)
}

type Store interface {
	InsertHostSample(ctx context.Context, s domain.HostSample) error
	LatestHostSample(ctx context.Context) (domain.HostSample, error)
	PruneHostSamples(ctx context.Context, before time.Time) (int64, error)
}

type Options struct {
	Interval  time.Duration
	Retention time.Duration
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

type Collector struct {
	sampler   Sampler
	store     Store
	interval  time.Duration
	retention time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu            sync.Mutex
	info          domain.HostInfo
	infoErr       error
	infoUpdatedAt time.Time

	done chan struct{}
}

func New(sampler Sampler, store Store, o Options) *Collector {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Interval < minInterval {
		o.Interval = minInterval
	}
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Collector{
		sampler:   sampler,
		store:     store,
		interval:  o.Interval,
		retention: o.Retention,
		log:       o.Logger,
		metrics:   o.Metrics,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start samples once, then keeps sampling until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	c.Collect(ctx)
	ticker := time.NewTicker(c.interval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Collect(ctx)
			}
		}
	}()
}

func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Collect stores one sample and drops samples older than the retention.
func (c *Collector) Collect(ctx context.Context) error {
	err := c.collect(ctx)
	c.metrics.HostSampled(err)
	if err != nil && ctx.Err() == nil {
		c.log.Warn("host sample failed", zap.Error(err))
	}
	return err
}

func (c *Collector) collect(ctx context.Context) error {
	now := c.now()
	cpuPercent, cpuErr := c.sampler.CPUPercent()
	memPercent, memErr := c.sampler.MemPercent()
	if err := errors.Join(cpuErr, memErr); err != nil {
		return err
	}
	sample := domain.HostSample{SampledAt: now, CPUPercent: cpuPercent, MemPercent: memPercent}
	if err := c.store.InsertHostSample(ctx, sample); err != nil {
		return fmt.Errorf("failed to store host sample: %w", err)
	}
	pruned, err := c.store.PruneHostSamples(ctx, now.Add(-c.retention))
	if err != nil {
		return fmt.Errorf("failed to prune host samples: %w", err)
	}
	if pruned > 0 {
		c.log.Debug("pruned host samples", zap.Int64("rows", pruned))
	}
	return nil
}

// Host returns the static host info with the latest stored sample attached.
// Static info is cached for a minute.
func (c *Collector) Host(ctx context.Context) (domain.HostInfo, error) {
	now := c.now()
	c.mu.Lock()
	if c.infoUpdatedAt.IsZero() || now.Sub(c.infoUpdatedAt) >= hostInfoTTL {
		c.info, c.infoErr = c.sampler.Info()
		c.infoUpdatedAt = now
		if c.infoErr != nil {
			c.log.Warn("host info incomplete", zap.Error(c.infoErr))
		}
	}
	info := c.info
	c.mu.Unlock()

	latest, err := c.store.LatestHostSample(ctx)
	switch {
	case err == nil:
		info.Latest = &latest
	case !errors.Is(err, domain.ErrNotFound):
		return info, err
	}
	return info, nil
}
