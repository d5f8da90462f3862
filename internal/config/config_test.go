package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigAppliesUnitsAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: sqlite
  path: test.db
session:
  ttl_minutes: 30
jwt:
  secret: short
  expire_hours: 2
storage:
  type: local
  local_path: `+filepath.Join(t.TempDir(), "uploads")+`
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "istas:session", cfg.Session.KeyPrefix)
	assert.Equal(t, 600, cfg.RateLimit.MaxRequests)
	assert.DirExists(t, cfg.Storage.LocalPath)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
storage:
  type: minio
`)
	t.Setenv("DATABASE_PATH", "/tmp/override.db")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestValidateRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "JWT secret is too short")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "postgres"},
		Storage:  StorageConfig{Type: "local"},
	}
	assert.ErrorContains(t, cfg.Validate(), "unsupported database driver")

	cfg.Database.Driver = "mysql"
	cfg.Broker.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "broker enabled without url")

	cfg.Broker.URL = "amqp://localhost"
	assert.NoError(t, cfg.Validate())
}
