package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcauth-eu/keyportal/internal/infra/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  mode: development
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Mode)
	assert.Equal(t, 0, cfg.Registry.MaxKeys)
	assert.Equal(t, 15*time.Minute, cfg.Token.Lifetime)
	assert.Equal(t, int32(8), cfg.Database.MaxConns)
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  mode: production
database:
  url: "postgres://u:p@db.example:5432/keyportal"
  tls: true
registry:
  max_keys: 4
token:
  lifetime: 1h
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Registry.MaxKeys)
	assert.Equal(t, time.Hour, cfg.Token.Lifetime)
	assert.True(t, cfg.Database.TLS)
}

func TestLoadRejectsBadMode(t *testing.T) {
	path := writeConfig(t, `
server:
  mode: staging
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRequiresDatabaseURLInProduction(t *testing.T) {
	path := writeConfig(t, `
server:
  mode: production
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}
