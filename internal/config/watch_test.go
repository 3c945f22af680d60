package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ems.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	changes := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	w, err := Watch(ctx, path, nil, func(c *Config) { changes <- c })
	require.NoError(t, err)
	defer func() {
		cancel()
		<-w.Done()
	}()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))
	select {
	case cfg := <-changes:
		assert.Equal(t, "debug", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}

func TestWatchIgnoresInvalidEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ems.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7777\n"), 0o644))

	changes := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	w, err := Watch(ctx, path, nil, func(c *Config) { changes <- c })
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("port: -1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("port: 1\n"), 0o644))
	select {
	case cfg := <-changes:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(time.Second):
	}

	cancel()
	<-w.Done()
}
