package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MEDBOOK_CSRF_KEY", "")
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "memory", cfg.Session.Driver)
	assert.Equal(t, "sid", cfg.Session.SessionName)
	assert.Equal(t, "authToken", cfg.Session.TokenName)
	assert.Len(t, cfg.Secrets.CSRFKey, 32)
}

func TestGeneratedCSRFKeyIsRandomPerLoad(t *testing.T) {
	t.Setenv("MEDBOOK_CSRF_KEY", "")

	first, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	second, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Len(t, first.Secrets.CSRFKey, 32)
	assert.NotEqual(t, first.Secrets.CSRFKey, second.Secrets.CSRFKey)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9090
backend:
  base_url: https://backend.example.com
  timeout: 3s
session:
  driver: redis
app:
  timezone: Asia/Kolkata
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MEDBOOK_CSRF_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("MEDBOOK_REDIS_PASSWORD", "s3cret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://backend.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "redis", cfg.Session.Driver)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Secrets.CSRFKey)
	assert.Equal(t, "Asia/Kolkata", cfg.App.Timezone)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SESSION_DRIVER", "sqlite")
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
