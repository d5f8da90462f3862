package logger

import (
	"testing"

	"istas_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSetLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "warn"
	cfg.Server.Mode = "release"
	SetLevel(cfg)
	assert.Equal(t, zap.WarnLevel, Level())

	cfg.Log.Level = "nonsense"
	SetLevel(cfg)
	assert.Equal(t, zap.InfoLevel, Level())

	cfg.Server.Mode = "debug"
	SetLevel(cfg)
	assert.Equal(t, zap.DebugLevel, Level())
}
