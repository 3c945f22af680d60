// Package client talks to the dashboard's JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomek7667/emsboard/internal/domain"
)

const requestIDHeader = "X-Request-Id"

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Parallel bounds the requests of a bulk save.
	Parallel int
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Parallel: 4,
	}
}

// APIError is a non-2xx response. It matches the domain sentinel of its
// status with errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusConflict:
		return target == domain.ErrConflict
	case http.StatusBadRequest:
		return target == domain.ErrInvalid
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Baselines(ctx context.Context) ([]domain.Baseline, error) {
	var out []domain.Baseline
	err := c.do(ctx, http.MethodGet, "/api/regression_baselines", nil, &out)
	return out, err
}

func (c *Client) Baseline(ctx context.Context, id int64) (domain.BaselineDetail, error) {
	var out domain.BaselineDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/regression_baselines/%d", id), nil, &out)
	return out, err
}

type created struct {
	ID int64 `json:"id"`
}

func (c *Client) CreateBaseline(ctx context.Context, in domain.BaselineInput) (int64, error) {
	var out created
	err := c.do(ctx, http.MethodPost, "/api/regression_baselines", in, &out)
	return out.ID, err
}

func (c *Client) EnpiReport(ctx context.Context, id int64, year int) (domain.EnpiReport, error) {
	var out domain.EnpiReport
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/enpi/data/%d/%d", id, year), nil, &out)
	return out, err
}

func (c *Client) Realtime(ctx context.Context) ([]domain.ChartData, error) {
	var out []domain.ChartData
	err := c.do(ctx, http.MethodGet, "/api/realtime_dashboard", nil, &out)
	return out, err
}

func (c *Client) Columns(ctx context.Context, table string) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/config/columns?table="+url.QueryEscape(table), nil, &out)
	return out, err
}

func (c *Client) Host(ctx context.Context) (domain.HostInfo, error) {
	var out domain.HostInfo
	err := c.do(ctx, http.MethodGet, "/api/system/host", nil, &out)
	return out, err
}

func (c *Client) SaveMonitored(ctx context.Context, in domain.MonitoredInput) error {
	return c.do(ctx, http.MethodPost, "/api/monitored_data", in, nil)
}

func (c *Client) SaveEnpiMonth(ctx context.Context, enpiID int64, year int, in domain.EnpiDataInput) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/enpi/data/%d/%d", enpiID, year), in, nil)
}

var errNothingToSave = errors.New("nothing to save")

// IsNothingToSave reports whether a bulk save had no month with data.
func IsNothingToSave(err error) bool {
	return errors.Is(err, errNothingToSave)
}
