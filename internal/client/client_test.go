package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomek7667/emsboard/internal/domain"
)

type fakeAPI struct {
	mu         sync.Mutex
	monitored  []domain.MonitoredInput
	enpi       []domain.EnpiDataInput
	requestIDs map[string]bool
	failMonth  int
}

func (f *fakeAPI) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			f.requestIDs[req.Header.Get(requestIDHeader)] = true
			f.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/regression_baselines/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "baseline not found"})
			return
		}
		json.NewEncoder(w).Encode(domain.BaselineDetail{
			Baseline: domain.Baseline{ID: 1, Name: "Plant", Year: 2024, Intercept: 10},
			Factors:  []domain.Factor{{Name: "x", Coefficient: 2}},
			MonitoredData: map[int]domain.MonthData{
				3: {Factors: domain.Observed{"x": domain.Some(5)}, ActualConsumption: domain.Some(21)},
			},
		})
	})
	r.Post("/api/monitored_data", func(w http.ResponseWriter, req *http.Request) {
		var in domain.MonitoredInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if in.Month == f.failMonth {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.mu.Lock()
		f.monitored = append(f.monitored, in)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	r.Post("/api/enpi/data/{id}/{year}", func(w http.ResponseWriter, req *http.Request) {
		var in domain.EnpiDataInput
		json.NewDecoder(req.Body).Decode(&in)
		f.mu.Lock()
		f.enpi = append(f.enpi, in)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	return r
}

func newFake(t *testing.T) (*fakeAPI, *Client) {
	f := &fakeAPI{requestIDs: map[string]bool{}}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, New(srv.URL + "/")
}

func TestBaseline(t *testing.T) {
	f, c := newFake(t)
	d, err := c.Baseline(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Plant", d.Baseline.Name)
	assert.Equal(t, domain.Some(5), d.MonitoredData[3].Factors["x"])

	_, err = c.Baseline(context.Background(), 2)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "baseline not found", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Len(t, f.requestIDs, 2, "every request carries its own id")
}

func TestSaveMonitoredYear(t *testing.T) {
	f, c := newFake(t)
	months := map[int]domain.MonthData{}
	for m := 1; m <= 12; m++ {
		md := domain.MonthData{Factors: domain.Observed{"x": domain.None()}}
		if m%2 == 0 {
			md.ActualConsumption = domain.Some(float64(m))
		}
		months[m] = md
	}

	saved, err := c.SaveMonitoredYear(context.Background(), 1, months)
	require.NoError(t, err)
	assert.Equal(t, 6, saved)
	assert.Len(t, f.monitored, 6)
}

func TestSaveMonitoredYearPartialFailure(t *testing.T) {
	f, c := newFake(t)
	f.failMonth = 2
	months := map[int]domain.MonthData{
		1: {ActualConsumption: domain.Some(1)},
		2: {ActualConsumption: domain.Some(2)},
		3: {ActualConsumption: domain.Some(3)},
	}
	saved, err := c.SaveMonitoredYear(context.Background(), 1, months)
	assert.Error(t, err)
	assert.Equal(t, 2, saved)
}

func TestSaveEnpiYear(t *testing.T) {
	f, c := newFake(t)
	rows := []domain.EnpiDataInput{
		{Month: 1, TargetValue: domain.Some(5)},
		{Month: 2},
		{Month: 3, NumeratorValue: domain.Some(10), DenominatorValue: domain.Some(2)},
	}
	saved, err := c.SaveEnpiYear(context.Background(), 7, 2024, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Len(t, f.enpi, 2)

	saved, err = c.SaveEnpiYear(context.Background(), 7, 2024, []domain.EnpiDataInput{{Month: 4}})
	assert.True(t, IsNothingToSave(err))
	assert.Zero(t, saved)
}
