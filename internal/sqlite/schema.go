package sqlite

import "fmt"

const baselineTables = `
CREATE TABLE IF NOT EXISTS RegressionBaselines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	year INTEGER NOT NULL,
	formula_intercept REAL NOT NULL,
	formula_r2 REAL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS RegressionFactors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	baseline_id INTEGER NOT NULL REFERENCES RegressionBaselines (id) ON DELETE CASCADE,
	factor_name TEXT NOT NULL,
	coefficient REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS MonitoredData (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	baseline_id INTEGER NOT NULL REFERENCES RegressionBaselines (id) ON DELETE CASCADE,
	month INTEGER NOT NULL,
	factors_json TEXT NOT NULL,
	actual_consumption REAL,
	UNIQUE (baseline_id, month)
);
`

const dashboardTables = `
CREATE TABLE IF NOT EXISTS DashboardCharts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chart_title TEXT NOT NULL,
	source_table_name TEXT NOT NULL,
	time_column TEXT NOT NULL,
	time_grouping TEXT NOT NULL DEFAULT 'hour',
	display_order INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS DashboardSeries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chart_id INTEGER NOT NULL REFERENCES DashboardCharts (id) ON DELETE CASCADE,
	source_column_name TEXT NOT NULL,
	series_label TEXT NOT NULL,
	chart_type TEXT NOT NULL DEFAULT 'line',
	y_axis_id TEXT NOT NULL DEFAULT 'y',
	aggregation_method TEXT NOT NULL DEFAULT 'avg'
);
`

const enpiTables = `
CREATE TABLE IF NOT EXISTS EnPI_Definitions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL,
	higher_is_better INTEGER NOT NULL DEFAULT 0,
	numerator_source_type TEXT NOT NULL,
	numerator_manual_name TEXT,
	numerator_baseline_id INTEGER,
	numerator_source_table TEXT,
	numerator_source_column TEXT,
	numerator_time_column TEXT,
	numerator_aggregation TEXT,
	denominator_source_type TEXT NOT NULL,
	denominator_manual_name TEXT,
	denominator_baseline_id INTEGER,
	denominator_source_table TEXT,
	denominator_source_column TEXT,
	denominator_time_column TEXT,
	denominator_aggregation TEXT
);
CREATE TABLE IF NOT EXISTS EnPI_Targets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	enpi_id INTEGER NOT NULL REFERENCES EnPI_Definitions (id) ON DELETE CASCADE,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	target_value REAL NOT NULL,
	UNIQUE (enpi_id, year, month)
);
CREATE TABLE IF NOT EXISTS EnPI_Manual_Data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	enpi_id INTEGER NOT NULL REFERENCES EnPI_Definitions (id) ON DELETE CASCADE,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	variable_name TEXT NOT NULL,
	value REAL NOT NULL,
	UNIQUE (enpi_id, year, month, variable_name)
);
`

const eventTables = `
CREATE TABLE IF NOT EXISTS Alarm_Events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_title TEXT NOT NULL,
	severity TEXT NOT NULL DEFAULT 'medium',
	assigned_to TEXT NOT NULL DEFAULT '',
	due_date TEXT,
	event_time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'assigned',
	event_type TEXT NOT NULL DEFAULT '',
	impact_scope TEXT NOT NULL DEFAULT '',
	root_cause TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS Action_Plans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id INTEGER NOT NULL REFERENCES Alarm_Events (id) ON DELETE CASCADE,
	action_type TEXT NOT NULL,
	content TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT 'user',
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_action_plans_event ON Action_Plans (event_id);
`

const sourceTables = `
CREATE TABLE IF NOT EXISTS host_resources (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sampled_at TEXT NOT NULL,
	cpu_percent REAL,
	mem_percent REAL
);
CREATE INDEX IF NOT EXISTS idx_host_resources_sampled ON host_resources (sampled_at);
`

func (c *Client) initSchema() error {
	for _, ddl := range []string{baselineTables, dashboardTables, enpiTables, eventTables, sourceTables} {
		if _, err := c.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}
