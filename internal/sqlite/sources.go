package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tomek7667/emsboard/internal/domain"
)

// Tables whose name starts with one of these hold configuration, not
// collected data, and are never offered as chart or EnPI sources.
var internalTablePrefixes = []string{
	"sqlite_", "Dashboard", "data_templates", "Regression", "Monitored",
	"EnPI_", "Alarm_Events", "Action_Plans",
}

// SampleLayout is how timestamps are written into source tables; SQLite's
// strftime understands it.
const SampleLayout = time.DateTime

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Tables lists the source tables available to charts and EnPI definitions.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		internal := slices.ContainsFunc(internalTablePrefixes, func(p string) bool {
			return strings.HasPrefix(name, p)
		})
		if !internal {
			tables = append(tables, name)
		}
	}
	return tables, rows.Err()
}

// Columns lists the columns of a source table. Unknown or internal tables
// are domain.ErrInvalid.
func (c *Client) Columns(ctx context.Context, table string) ([]string, error) {
	tables, err := c.Tables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, table) {
		return nil, fmt.Errorf("%w: unknown table %q", domain.ErrInvalid, table)
	}

	rows, err := c.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// checkColumns verifies that table is a source table holding every column.
// Identifiers are interpolated into SQL only after passing this check.
func (c *Client) checkColumns(ctx context.Context, table string, columns ...string) error {
	have, err := c.Columns(ctx, table)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if !slices.Contains(have, col) {
			return fmt.Errorf("%w: table %q has no column %q", domain.ErrInvalid, table, col)
		}
	}
	return nil
}

type grouping struct {
	window string // strftime format selecting the current period
	group  string // strftime format of the x axis key
	layout string // Go layout of window
}

var groupings = map[domain.TimeGrouping]grouping{
	domain.GroupHour:  {window: "%Y-%m-%d", group: "%H", layout: time.DateOnly},
	domain.GroupDay:   {window: "%Y-%m", group: "%d", layout: "2006-01"},
	domain.GroupMonth: {window: "%Y", group: "%m", layout: "2006"},
}

// AggregateChart aggregates every series of a chart over the current hour,
// day or month window containing now. It returns the sorted group keys and,
// per series in order, one value per key.
func (c *Client) AggregateChart(ctx context.Context, chart domain.ChartConfig, now time.Time) ([]string, [][]domain.Num, error) {
	if len(chart.Series) == 0 {
		return []string{}, [][]domain.Num{}, nil
	}
	g, ok := groupings[chart.TimeGrouping]
	if !ok {
		g = groupings[domain.GroupHour]
	}

	columns := []string{chart.TimeColumn}
	for _, s := range chart.Series {
		columns = append(columns, s.SourceColumnName)
	}
	if err := c.checkColumns(ctx, chart.SourceTableName, columns...); err != nil {
		return nil, nil, err
	}

	timeCol := quoteIdent(chart.TimeColumn)
	selects := make([]string, 0, len(chart.Series))
	for i, s := range chart.Series {
		fn := "AVG"
		if strings.EqualFold(s.AggregationMethod, "sum") {
			fn = "SUM"
		}
		selects = append(selects, fmt.Sprintf("%s(%s) AS s%d", fn, quoteIdent(s.SourceColumnName), i))
	}
	query := fmt.Sprintf(`
		SELECT strftime('%s', %s) AS x_axis, %s
		FROM %s
		WHERE %s IS NOT NULL AND strftime('%s', %s) = ?
		GROUP BY x_axis ORDER BY x_axis`,
		g.group, timeCol, strings.Join(selects, ", "),
		quoteIdent(chart.SourceTableName),
		timeCol, g.window, timeCol)

	rows, err := c.db.QueryContext(ctx, query, now.Format(g.layout))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate chart %d: %w", chart.ID, err)
	}
	defer rows.Close()

	labels := []string{}
	values := make([][]domain.Num, len(chart.Series))
	for rows.Next() {
		var label sql.NullString
		row := make([]domain.Num, len(chart.Series))
		dest := []any{&label}
		for i := range row {
			dest = append(dest, &row[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan chart %d: %w", chart.ID, err)
		}
		labels = append(labels, label.String)
		for i, v := range row {
			values[i] = append(values[i], v)
		}
	}
	return labels, values, rows.Err()
}

// MonthlyAggregate aggregates an auto EnPI source per month of year.
func (c *Client) MonthlyAggregate(ctx context.Context, src domain.AutoSource, year int) (map[int]domain.Num, error) {
	if err := c.checkColumns(ctx, src.Table, src.ValueColumn, src.TimeColumn); err != nil {
		return nil, err
	}
	agg, err := domain.ParseAggregation(string(src.Aggregation))
	if err != nil {
		return nil, err
	}
	timeCol := quoteIdent(src.TimeColumn)
	query := fmt.Sprintf(`
		SELECT CAST(strftime('%%m', %s) AS INTEGER) AS month, %s(%s)
		FROM %s
		WHERE strftime('%%Y', %s) = ?
		GROUP BY month`,
		timeCol, agg, quoteIdent(src.ValueColumn), quoteIdent(src.Table), timeCol)

	rows, err := c.db.QueryContext(ctx, query, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s.%s: %w", src.Table, src.ValueColumn, err)
	}
	defer rows.Close()

	values := map[int]domain.Num{}
	for rows.Next() {
		var (
			month sql.NullInt64
			v     domain.Num
		)
		if err := rows.Scan(&month, &v); err != nil {
			return nil, err
		}
		if month.Valid {
			values[int(month.Int64)] = v
		}
	}
	return values, rows.Err()
}

func (c *Client) InsertHostSample(ctx context.Context, s domain.HostSample) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO host_resources (sampled_at, cpu_percent, mem_percent) VALUES (?, ?, ?)",
		s.SampledAt.Format(SampleLayout), s.CPUPercent, s.MemPercent)
	if err != nil {
		return fmt.Errorf("failed to insert host sample: %w", err)
	}
	return nil
}

// LatestHostSample returns domain.ErrNotFound before the first sample.
func (c *Client) LatestHostSample(ctx context.Context) (domain.HostSample, error) {
	var (
		s  domain.HostSample
		at string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT sampled_at, COALESCE(cpu_percent, 0), COALESCE(mem_percent, 0)
		FROM host_resources ORDER BY id DESC LIMIT 1`).Scan(&at, &s.CPUPercent, &s.MemPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("%w: no host samples yet", domain.ErrNotFound)
	}
	if err != nil {
		return s, fmt.Errorf("failed to load host sample: %w", err)
	}
	s.SampledAt, err = time.ParseInLocation(SampleLayout, at, time.Local)
	if err != nil {
		return s, fmt.Errorf("malformed sample time %q: %w", at, err)
	}
	return s, nil
}

// PruneHostSamples deletes samples older than before and returns how many
// were removed.
func (c *Client) PruneHostSamples(ctx context.Context, before time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM host_resources WHERE sampled_at < ?", before.Format(SampleLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune host samples: %w", err)
	}
	return res.RowsAffected()
}
