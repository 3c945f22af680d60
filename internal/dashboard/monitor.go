package dashboard

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tomek7667/emsboard/internal/charts"
	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/metrics"
	"github.com/tomek7667/emsboard/internal/view"
)

// MinRefresh is the shortest refresh interval the dashboard accepts.
const MinRefresh = 10 * time.Second

// Panel is one rendered dashboard chart.
type Panel struct {
	Data domain.ChartData

	mu        sync.RWMutex
	html      []byte
	destroyed bool
}

func (p *Panel) HTML() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.html
}

func (p *Panel) Destroyed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.destroyed
}

func (p *Panel) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = nil
	p.destroyed = true
}

type Snapshot struct {
	Charts    []domain.ChartData `json:"charts"`
	UpdatedAt time.Time          `json:"updated_at"`
	Error     string             `json:"error,omitempty"`
}

// Monitor rebuilds the dashboard on an interval and mounts every rendered
// chart on its board, replacing the previous instance of the same chart.
type Monitor struct {
	store    Store
	renderer *charts.Renderer
	log      *zap.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time
	render   func(io.Writer, domain.ChartData) error

	// refreshMu keeps a slow refresh from finishing after a newer one.
	refreshMu sync.Mutex

	mu       sync.RWMutex
	snapshot Snapshot
	subs     map[chan Snapshot]struct{}
	board    *view.Board[*Panel]
	done     chan struct{}
}

func NewMonitor(store Store, renderer *charts.Renderer, interval time.Duration, log *zap.Logger, m *metrics.Metrics) *Monitor {
	if interval < MinRefresh {
		interval = MinRefresh
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		renderer: renderer,
		log:      log,
		metrics:  m,
		interval: interval,
		now:      time.Now,
		render: func(w io.Writer, d domain.ChartData) error {
			return renderer.Render(w, renderer.Dashboard(d))
		},
		subs:  map[chan Snapshot]struct{}{},
		board: view.NewBoard[*Panel](),
		done:  make(chan struct{}),
	}
}

func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Start refreshes once, then keeps refreshing in the background until ctx
// is cancelled. Done is closed once the loop has exited and every panel has
// been torn down.
func (m *Monitor) Start(ctx context.Context) {
	m.Refresh(ctx)
	ticker := time.NewTicker(m.interval)
	go func() {
		defer close(m.done)
		defer m.board.Teardown()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Refresh(ctx)
			}
		}
	}()
}

func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Refresh rebuilds every chart. On failure the previous charts stay mounted
// and the error is kept in the snapshot. A chart that fails to render is
// left out of both the board and the snapshot so their indexes match.
func (m *Monitor) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	now := m.now()
	data, err := Load(ctx, m.store, now)
	m.metrics.DashboardRefreshed(len(data), err)
	if err != nil {
		m.log.Warn("dashboard refresh failed", zap.Error(err))
		m.mu.Lock()
		m.snapshot.Error = err.Error()
		m.mu.Unlock()
		return err
	}

	ids := make([]int64, 0, len(data))
	mounted := make([]domain.ChartData, 0, len(data))
	for _, d := range data {
		var buf bytes.Buffer
		if err := m.render(&buf, d); err != nil {
			m.log.Warn("dashboard chart render failed", zap.Int64("chart_id", d.ChartID), zap.Error(err))
			continue
		}
		m.board.Mount(d.ChartID, &Panel{Data: d, html: buf.Bytes()})
		ids = append(ids, d.ChartID)
		mounted = append(mounted, d)
	}
	m.board.Retain(ids)

	m.mu.Lock()
	m.snapshot = Snapshot{Charts: mounted, UpdatedAt: now}
	m.publishLocked()
	m.mu.Unlock()
	m.log.Debug("dashboard refreshed", zap.Int("charts", len(mounted)))
	return nil
}

// Subscribe delivers every successful refresh. A slow subscriber only ever
// sees the newest snapshot. Call cancel to stop the deliveries.
func (m *Monitor) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
		})
	}
	return ch, cancel
}

func (m *Monitor) publishLocked() {
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m.snapshot
	}
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snapshot
	snap.Charts = append([]domain.ChartData(nil), m.snapshot.Charts...)
	return snap
}

// Panel returns the chart mounted at position index, in display order.
func (m *Monitor) Panel(index int) (*Panel, bool) {
	return m.board.At(index)
}

func (m *Monitor) Panels() int {
	return m.board.Len()
}
