package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"istas_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, level string) string {
	t.Helper()
	body := fmt.Sprintf("log:\n  level: %s\nstorage:\n  local_path: %s\n", level, filepath.Join(dir, "uploads"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "info")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "warn")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "warn", cfg.Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	assert.NoError(t, <-done)
}
