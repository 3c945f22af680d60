package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomek7667/emsboard/internal/domain"
)

const definitionColumns = `id, name, COALESCE(description, ''), unit, higher_is_better,
	numerator_source_type, numerator_manual_name, numerator_baseline_id, numerator_source_table,
	numerator_source_column, numerator_time_column, numerator_aggregation,
	denominator_source_type, denominator_manual_name, denominator_baseline_id, denominator_source_table,
	denominator_source_column, denominator_time_column, denominator_aggregation`

type sourceRow struct {
	typ, manual, table, column, timeCol, agg sql.NullString
	baselineID                               domain.Num
}

func (r *sourceRow) dest() []any {
	return []any{&r.typ, &r.manual, &r.baselineID, &r.table, &r.column, &r.timeCol, &r.agg}
}

func (r sourceRow) source() (domain.Source, error) {
	return domain.BuildSource(domain.SourceColumns{
		Type:        r.typ.String,
		ManualName:  r.manual.String,
		BaselineID:  r.baselineID,
		Table:       r.table.String,
		Column:      r.column.String,
		TimeColumn:  r.timeCol.String,
		Aggregation: r.agg.String,
	})
}

func scanDefinition(scan func(...any) error) (domain.EnpiDefinition, error) {
	var (
		d        domain.EnpiDefinition
		num, den sourceRow
	)
	dest := append([]any{&d.ID, &d.Name, &d.Description, &d.Unit, &d.HigherIsBetter}, num.dest()...)
	dest = append(dest, den.dest()...)
	if err := scan(dest...); err != nil {
		return d, err
	}
	var err error
	if d.Numerator, err = num.source(); err != nil {
		return d, fmt.Errorf("enpi %d numerator: %w", d.ID, err)
	}
	if d.Denominator, err = den.source(); err != nil {
		return d, fmt.Errorf("enpi %d denominator: %w", d.ID, err)
	}
	return d, nil
}

func (c *Client) EnpiDefinitions(ctx context.Context) ([]domain.EnpiDefinition, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+definitionColumns+" FROM EnPI_Definitions ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list enpi definitions: %w", err)
	}
	defer rows.Close()

	defs := []domain.EnpiDefinition{}
	for rows.Next() {
		d, err := scanDefinition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enpi definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (c *Client) EnpiDefinition(ctx context.Context, id int64) (domain.EnpiDefinition, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+definitionColumns+" FROM EnPI_Definitions WHERE id = ?", id)
	d, err := scanDefinition(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("%w: enpi %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return d, fmt.Errorf("failed to load enpi definition: %w", err)
	}
	return d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateEnpiDefinition validates auto sources against the source tables
// before storing the definition.
func (c *Client) CreateEnpiDefinition(ctx context.Context, d domain.EnpiDefinition) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	for _, src := range []domain.Source{d.Numerator, d.Denominator} {
		if auto, ok := src.(domain.AutoSource); ok {
			if err := c.checkColumns(ctx, auto.Table, auto.ValueColumn, auto.TimeColumn); err != nil {
				return 0, err
			}
		}
	}

	num := domain.FlattenSource(d.Numerator)
	den := domain.FlattenSource(d.Denominator)
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO EnPI_Definitions (
			name, description, unit, higher_is_better,
			numerator_source_type, numerator_manual_name, numerator_baseline_id, numerator_source_table,
			numerator_source_column, numerator_time_column, numerator_aggregation,
			denominator_source_type, denominator_manual_name, denominator_baseline_id, denominator_source_table,
			denominator_source_column, denominator_time_column, denominator_aggregation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Description, d.Unit, d.HigherIsBetter,
		num.Type, nullString(num.ManualName), num.BaselineID, nullString(num.Table),
		nullString(num.Column), nullString(num.TimeColumn), nullString(num.Aggregation),
		den.Type, nullString(den.ManualName), den.BaselineID, nullString(den.Table),
		nullString(den.Column), nullString(den.TimeColumn), nullString(den.Aggregation))
	if err != nil {
		return 0, fmt.Errorf("failed to insert enpi definition: %w", err)
	}
	return res.LastInsertId()
}

func (c *Client) monthValues(ctx context.Context, query string, args ...any) (map[int]domain.Num, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := map[int]domain.Num{}
	for rows.Next() {
		var (
			month int
			v     domain.Num
		)
		if err := rows.Scan(&month, &v); err != nil {
			return nil, err
		}
		values[month] = v
	}
	return values, rows.Err()
}

func (c *Client) EnpiTargets(ctx context.Context, enpiID int64, year int) (map[int]domain.Num, error) {
	values, err := c.monthValues(ctx,
		"SELECT month, target_value FROM EnPI_Targets WHERE enpi_id = ? AND year = ?", enpiID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load enpi targets: %w", err)
	}
	return values, nil
}

func (c *Client) EnpiManualValues(ctx context.Context, enpiID int64, year int, variable string) (map[int]domain.Num, error) {
	values, err := c.monthValues(ctx,
		"SELECT month, value FROM EnPI_Manual_Data WHERE enpi_id = ? AND year = ? AND variable_name = ?",
		enpiID, year, variable)
	if err != nil {
		return nil, fmt.Errorf("failed to load enpi manual data: %w", err)
	}
	return values, nil
}

// SaveEnpiMonth upserts the target and, for manual components only, the
// numerator and denominator typed in for one month. Undefined values are
// left untouched.
func (c *Client) SaveEnpiMonth(ctx context.Context, d domain.EnpiDefinition, year int, in domain.EnpiDataInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return c.inTx(ctx, func(tx *sql.Tx) error {
		if in.TargetValue.Valid {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO EnPI_Targets (enpi_id, year, month, target_value) VALUES (?, ?, ?, ?)
				ON CONFLICT (enpi_id, year, month) DO UPDATE SET target_value = excluded.target_value`,
				d.ID, year, in.Month, in.TargetValue)
			if err != nil {
				return fmt.Errorf("failed to save target: %w", err)
			}
		}
		manual := []struct {
			src   domain.Source
			value domain.Num
		}{
			{d.Numerator, in.NumeratorValue},
			{d.Denominator, in.DenominatorValue},
		}
		for _, m := range manual {
			src, ok := m.src.(domain.ManualSource)
			if !ok || !m.value.Valid {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO EnPI_Manual_Data (enpi_id, year, month, variable_name, value) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (enpi_id, year, month, variable_name) DO UPDATE SET value = excluded.value`,
				d.ID, year, in.Month, src.VariableName, m.value)
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", src.VariableName, err)
			}
		}
		return nil
	})
}
