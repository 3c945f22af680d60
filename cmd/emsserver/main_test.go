package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomek7667/emsboard/internal/domain"
	"github.com/tomek7667/emsboard/internal/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"emsserver"}, args...))
	return out.String(), err
}

func seed(t *testing.T) (string, int64) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ems.db")
	db, err := sqlite.New(path)
	require.NoError(t, err)
	defer db.Close()

	id, err := db.CreateBaseline(ctx, domain.BaselineInput{
		Name:      "Plant",
		Year:      domain.Some(2024),
		Intercept: domain.Some(10),
		Factors:   []domain.FactorInput{{Name: "x", Coeff: domain.Some(2)}},
	})
	require.NoError(t, err)
	require.NoError(t, db.SaveMonitored(ctx, domain.MonitoredInput{
		BaselineID:        id,
		Month:             1,
		Factors:           domain.Observed{"x": domain.Some(5)},
		ActualConsumption: domain.Some(25),
	}))
	return path, id
}

func TestReportBaseline(t *testing.T) {
	db, id := seed(t)
	out, err := run(t, "--config", "", "--db", db, "report", "baseline", "--id", itoa(id))
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Plant (2024)", lines[0])
	assert.Regexp(t, `^\s*1\s+5\.00\s+25\.00\s+20\.00\s+-5\.00\s+-25\.00\s+!$`, lines[3])
	assert.Len(t, strings.Fields(lines[4]), 1, "months without data only carry the month")
}

func TestExportBaseline(t *testing.T) {
	db, id := seed(t)
	dir := t.TempDir()
	out, err := run(t, "--config", "", "--db", db, "export", "baseline", "--id", itoa(id), "--out", dir)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(dir, "baseline-Plant-2024.xlsx"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestReportMissingBaseline(t *testing.T) {
	db, _ := seed(t)
	_, err := run(t, "--config", "", "--db", db, "report", "baseline", "--id", "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBackupCommand(t *testing.T) {
	db, _ := seed(t)
	dst := filepath.Join(t.TempDir(), "copy.db")
	out, err := run(t, "--config", "", "--db", db, "backup", "--out", dst)
	require.NoError(t, err)
	assert.Equal(t, dst, strings.TrimSpace(out))

	_, err = run(t, "--config", "", "--db", db, "backup", "--out", dst)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBackupPath(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "data/ems-20240510-120000.db", backupPath("data/ems.db", now))
	assert.Equal(t, "data.d/ems-20240510-120000.db", backupPath("data.d/ems", now))
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emsboard.yaml")
	_, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	_, err = run(t, "--config", path, "config", "init")
	assert.Error(t, err, "existing file is kept")

	out, err := run(t, "--config", path, "--port", "9090", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9090")
	assert.Contains(t, out, "refresh_interval: 30s")
}

func TestPrintHost(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printHost(&out, domain.HostInfo{
		Hostname:       "plant-01",
		IP:             "192.168.1.20",
		CPUModel:       "Xeon",
		LogicalCores:   8,
		PhysicalMemory: 16 << 30,
		UptimeSeconds:  3 * 24 * 3600,
		Disk:           &domain.DiskUsage{Path: "/data", Total: 100 << 30, Used: 25 << 30, UsedPercent: 25},
		Latest:         &domain.HostSample{SampledAt: now.Add(-time.Minute), CPUPercent: 12.5, MemPercent: 40},
	}, now)

	s := out.String()
	assert.Contains(t, s, "192.168.1.20")
	assert.Contains(t, s, "16 GiB")
	assert.Contains(t, s, "3 days ago")
	assert.Contains(t, s, "25 GiB of 100 GiB used (25.0%) on /data")
	assert.Contains(t, s, "cpu 12.5%, memory 40.0% (1 minute ago)")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
