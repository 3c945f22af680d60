package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tomek7667/emsboard/internal/domain"
)

func (c *Client) ListBaselines(ctx context.Context) ([]domain.Baseline, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, year, formula_intercept, formula_r2, COALESCE(notes, ''), COALESCE(created_at, '')
		FROM RegressionBaselines ORDER BY year DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list baselines: %w", err)
	}
	defer rows.Close()

	baselines := []domain.Baseline{}
	for rows.Next() {
		var b domain.Baseline
		if err := rows.Scan(&b.ID, &b.Name, &b.Year, &b.Intercept, &b.R2, &b.Notes, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan baseline: %w", err)
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

// CreateBaseline stores a baseline with its factors. A duplicate name is
// reported as domain.ErrConflict.
func (c *Client) CreateBaseline(ctx context.Context, in domain.BaselineInput) (int64, error) {
	b, factors, err := in.Normalize()
	if err != nil {
		return 0, err
	}

	var id int64
	err = c.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO RegressionBaselines (name, year, formula_intercept, formula_r2, notes)
			VALUES (?, ?, ?, ?, ?)`, b.Name, b.Year, b.Intercept, b.R2, b.Notes)
		if err != nil {
			if isConstraint(err) {
				return fmt.Errorf("%w: baseline %q", domain.ErrConflict, b.Name)
			}
			return fmt.Errorf("failed to insert baseline: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, f := range factors {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO RegressionFactors (baseline_id, factor_name, coefficient) VALUES (?, ?, ?)",
				id, f.Name, f.Coefficient); err != nil {
				return fmt.Errorf("failed to insert factor %q: %w", f.Name, err)
			}
		}
		return nil
	})
	return id, err
}

// Baseline returns the baseline with its factors and monitored months.
func (c *Client) Baseline(ctx context.Context, id int64) (domain.BaselineDetail, error) {
	d := domain.BaselineDetail{Factors: []domain.Factor{}, MonitoredData: map[int]domain.MonthData{}}

	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, year, formula_intercept, formula_r2, COALESCE(notes, ''), COALESCE(created_at, '')
		FROM RegressionBaselines WHERE id = ?`, id).
		Scan(&d.Baseline.ID, &d.Baseline.Name, &d.Baseline.Year, &d.Baseline.Intercept, &d.Baseline.R2, &d.Baseline.Notes, &d.Baseline.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("%w: baseline %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return d, fmt.Errorf("failed to load baseline: %w", err)
	}

	factors, err := c.db.QueryContext(ctx,
		"SELECT factor_name, coefficient FROM RegressionFactors WHERE baseline_id = ? ORDER BY id", id)
	if err != nil {
		return d, fmt.Errorf("failed to load factors: %w", err)
	}
	defer factors.Close()
	for factors.Next() {
		var f domain.Factor
		if err := factors.Scan(&f.Name, &f.Coefficient); err != nil {
			return d, fmt.Errorf("failed to scan factor: %w", err)
		}
		d.Factors = append(d.Factors, f)
	}
	if err := factors.Err(); err != nil {
		return d, err
	}
	factors.Close()

	monitored, err := c.db.QueryContext(ctx,
		"SELECT month, factors_json, actual_consumption FROM MonitoredData WHERE baseline_id = ?", id)
	if err != nil {
		return d, fmt.Errorf("failed to load monitored data: %w", err)
	}
	defer monitored.Close()
	for monitored.Next() {
		var (
			month int
			raw   string
			md    domain.MonthData
			obs   domain.Observed
		)
		if err := monitored.Scan(&month, &raw, &md.ActualConsumption); err != nil {
			return d, fmt.Errorf("failed to scan monitored data: %w", err)
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &obs); err != nil {
				return d, fmt.Errorf("month %d has malformed factors: %w", month, err)
			}
		}
		if obs == nil {
			obs = domain.Observed{}
		}
		md.Factors = obs
		d.MonitoredData[month] = md
	}
	return d, monitored.Err()
}

func (c *Client) DeleteBaseline(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM RegressionBaselines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete baseline: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: baseline %d", domain.ErrNotFound, id)
	}
	return nil
}

// SaveMonitored upserts one month of monitored data.
func (c *Client) SaveMonitored(ctx context.Context, in domain.MonitoredInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	factors := in.Factors
	if factors == nil {
		factors = domain.Observed{}
	}
	raw, err := json.Marshal(factors)
	if err != nil {
		return fmt.Errorf("failed to encode factors: %w", err)
	}

	return c.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM RegressionBaselines WHERE id = ?", in.BaselineID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to look up baseline: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("%w: baseline %d", domain.ErrNotFound, in.BaselineID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO MonitoredData (baseline_id, month, factors_json, actual_consumption) VALUES (?, ?, ?, ?)
			ON CONFLICT (baseline_id, month) DO UPDATE SET
				factors_json = excluded.factors_json,
				actual_consumption = excluded.actual_consumption`,
			in.BaselineID, in.Month, string(raw), in.ActualConsumption)
		if err != nil {
			return fmt.Errorf("failed to save monitored data: %w", err)
		}
		return nil
	})
}
