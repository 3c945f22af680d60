package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomek7667/emsboard/internal/domain"
)

// Charts returns every chart config with its series, ordered for display.
func (c *Client) Charts(ctx context.Context) ([]domain.ChartConfig, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, chart_title, source_table_name, time_column, time_grouping, display_order
		FROM DashboardCharts ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}
	charts := []domain.ChartConfig{}
	for rows.Next() {
		var ch domain.ChartConfig
		if err := rows.Scan(&ch.ID, &ch.ChartTitle, &ch.SourceTableName, &ch.TimeColumn, &ch.TimeGrouping, &ch.DisplayOrder); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan chart: %w", err)
		}
		charts = append(charts, ch)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range charts {
		series, err := c.series(ctx, charts[i].ID)
		if err != nil {
			return nil, err
		}
		charts[i].Series = series
	}
	return charts, nil
}

func (c *Client) series(ctx context.Context, chartID int64) ([]domain.ChartSeries, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, chart_id, source_column_name, series_label, chart_type, y_axis_id, aggregation_method
		FROM DashboardSeries WHERE chart_id = ? ORDER BY id`, chartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series of chart %d: %w", chartID, err)
	}
	defer rows.Close()

	series := []domain.ChartSeries{}
	for rows.Next() {
		var s domain.ChartSeries
		if err := rows.Scan(&s.ID, &s.ChartID, &s.SourceColumnName, &s.SeriesLabel, &s.ChartType, &s.YAxisID, &s.AggregationMethod); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		series = append(series, s)
	}
	return series, rows.Err()
}

func (c *Client) validateChart(ctx context.Context, ch *domain.ChartConfig) error {
	if err := ch.Normalize(); err != nil {
		return err
	}
	columns := []string{ch.TimeColumn}
	for _, s := range ch.Series {
		columns = append(columns, s.SourceColumnName)
	}
	return c.checkColumns(ctx, ch.SourceTableName, columns...)
}

func (c *Client) CreateChart(ctx context.Context, ch domain.ChartConfig) (int64, error) {
	if err := c.validateChart(ctx, &ch); err != nil {
		return 0, err
	}
	var id int64
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO DashboardCharts (chart_title, source_table_name, time_column, time_grouping, display_order)
			VALUES (?, ?, ?, ?, ?)`,
			ch.ChartTitle, ch.SourceTableName, ch.TimeColumn, ch.TimeGrouping, ch.DisplayOrder)
		if err != nil {
			return fmt.Errorf("failed to insert chart: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertSeries(ctx, tx, id, ch.Series)
	})
	return id, err
}

// UpdateChart replaces the chart settings and all of its series.
func (c *Client) UpdateChart(ctx context.Context, id int64, ch domain.ChartConfig) error {
	if err := c.validateChart(ctx, &ch); err != nil {
		return err
	}
	return c.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE DashboardCharts
			SET chart_title = ?, source_table_name = ?, time_column = ?, time_grouping = ?, display_order = ?
			WHERE id = ?`,
			ch.ChartTitle, ch.SourceTableName, ch.TimeColumn, ch.TimeGrouping, ch.DisplayOrder, id)
		if err != nil {
			return fmt.Errorf("failed to update chart: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: chart %d", domain.ErrNotFound, id)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM DashboardSeries WHERE chart_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear series: %w", err)
		}
		return insertSeries(ctx, tx, id, ch.Series)
	})
}

func insertSeries(ctx context.Context, tx *sql.Tx, chartID int64, series []domain.ChartSeries) error {
	for _, s := range series {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO DashboardSeries (chart_id, source_column_name, series_label, chart_type, y_axis_id, aggregation_method)
			VALUES (?, ?, ?, ?, ?, ?)`,
			chartID, s.SourceColumnName, s.SeriesLabel, s.ChartType, s.YAxisID, s.AggregationMethod)
		if err != nil {
			return fmt.Errorf("failed to insert series %q: %w", s.SourceColumnName, err)
		}
	}
	return nil
}

func (c *Client) DeleteChart(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM DashboardCharts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete chart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: chart %d", domain.ErrNotFound, id)
	}
	return nil
}
