package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tomek7667/emsboard/internal/charts"
	"github.com/tomek7667/emsboard/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func meterStore() *fakeStore {
	return &fakeStore{
		charts: []domain.ChartConfig{
			{ID: 5, ChartTitle: "Line 1", Series: []domain.ChartSeries{{SeriesLabel: "kwh", ChartType: "bar", YAxisID: "y", AggregationMethod: "sum"}}},
			{ID: 9, ChartTitle: "Line 2", Series: []domain.ChartSeries{{SeriesLabel: "kwh", ChartType: "line", YAxisID: "y", AggregationMethod: "avg"}}},
		},
		labels: []string{"10", "11"},
		values: map[int64][][]domain.Num{
			5: {{domain.Some(1), domain.Some(2)}},
			9: {{domain.Some(3), domain.Some(4)}},
		},
	}
}

func TestMonitorClampsInterval(t *testing.T) {
	m := NewMonitor(meterStore(), charts.NewRenderer(""), time.Second, nil, nil)
	assert.Equal(t, MinRefresh, m.Interval())
}

func TestMonitorRefreshReplacesPanels(t *testing.T) {
	s := meterStore()
	m := NewMonitor(s, charts.NewRenderer(""), MinRefresh, nil, nil)
	require.NoError(t, m.Refresh(context.Background()))
	require.Equal(t, 2, m.Panels())

	first, ok := m.Panel(0)
	require.True(t, ok)
	assert.Contains(t, string(first.HTML()), "Line 1")

	s.charts = s.charts[1:]
	require.NoError(t, m.Refresh(context.Background()))
	assert.True(t, first.Destroyed(), "removed chart is destroyed")
	require.Equal(t, 1, m.Panels())
	p, ok := m.Panel(0)
	require.True(t, ok)
	assert.EqualValues(t, 9, p.Data.ChartID)

	_, ok = m.Panel(1)
	assert.False(t, ok)
}

func TestMonitorKeepsChartsOnError(t *testing.T) {
	s := meterStore()
	m := NewMonitor(s, charts.NewRenderer(""), MinRefresh, nil, nil)
	require.NoError(t, m.Refresh(context.Background()))

	s.err = errors.New("database is locked")
	assert.Error(t, m.Refresh(context.Background()))
	snap := m.Snapshot()
	assert.Len(t, snap.Charts, 2)
	assert.Equal(t, "database is locked", snap.Error)
	assert.Equal(t, 2, m.Panels())
}

func TestMonitorStopsOnCancel(t *testing.T) {
	s := meterStore()
	m := NewMonitor(s, charts.NewRenderer(""), MinRefresh, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	assert.Equal(t, 1, s.calls)
	p, ok := m.Panel(0)
	require.True(t, ok)

	cancel()
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.True(t, p.Destroyed())
	assert.Equal(t, 0, m.Panels())
}

func TestMonitorSubscribe(t *testing.T) {
	s := meterStore()
	m := NewMonitor(s, charts.NewRenderer(""), MinRefresh, nil, nil)
	updates, cancel := m.Subscribe()

	require.NoError(t, m.Refresh(context.Background()))
	require.NoError(t, m.Refresh(context.Background()))
	snap := <-updates
	assert.Len(t, snap.Charts, 2)
	select {
	case <-updates:
		t.Fatal("only the newest snapshot is kept")
	default:
	}

	cancel()
	cancel()
	require.NoError(t, m.Refresh(context.Background()))
	select {
	case <-updates:
		t.Fatal("cancelled subscriber still receives")
	default:
	}
}

func TestMonitorDropsChartThatFailsToRender(t *testing.T) {
	m := NewMonitor(meterStore(), charts.NewRenderer(""), MinRefresh, nil, nil)
	render := m.render
	m.render = func(w io.Writer, d domain.ChartData) error {
		if d.ChartID == 5 {
			return errors.New("bad series")
		}
		return render(w, d)
	}
	require.NoError(t, m.Refresh(context.Background()))

	snap := m.Snapshot()
	require.Len(t, snap.Charts, 1)
	require.Equal(t, 1, m.Panels())
	p, ok := m.Panel(0)
	require.True(t, ok)
	assert.Equal(t, snap.Charts[0].ChartID, p.Data.ChartID)
	assert.EqualValues(t, 9, p.Data.ChartID)
}

type overlapStore struct {
	*fakeStore
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (o *overlapStore) Charts(ctx context.Context) ([]domain.ChartConfig, error) {
	n := o.inFlight.Add(1)
	defer o.inFlight.Add(-1)
	for {
		seen := o.maxSeen.Load()
		if n <= seen || o.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return o.fakeStore.Charts(ctx)
}

func TestMonitorRefreshesOneAtATime(t *testing.T) {
	s := &overlapStore{fakeStore: meterStore()}
	m := NewMonitor(s, charts.NewRenderer(""), MinRefresh, nil, nil)

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Refresh(context.Background()))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, s.maxSeen.Load())
	assert.Equal(t, 6, s.calls)
	assert.Equal(t, 2, m.Panels())
}
