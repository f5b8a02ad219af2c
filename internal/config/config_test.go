package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
api:
  environment: production
  port: "5000"
  base_url: chat.example.com
  allowed_cors_domains:
    - https://chat.example.com
gin:
  mode: release
store:
  driver: memory
postgres:
  host: db
  port: "5432"
  user: chat
  password: secret
  db: chatroom
  sslmode: disable
presence:
  reap_interval: 15s
  stale_after: 10s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "production", conf.API.Environment)
	assert.Equal(t, []string{"https://chat.example.com"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, StoreDriverMemory, conf.Store.Driver)
	assert.Equal(t, 15*time.Second, conf.Presence.ReapInterval)
	assert.Equal(t, 10*time.Second, conf.Presence.StaleAfter)
	assert.Equal(t, "host=db port=5432 user=chat password=secret dbname=chatroom sslmode=disable", conf.Postgres.DSN())

	// The chat section falls back to defaults.
	assert.Equal(t, "Todos", conf.Chat.BroadcastTarget)
	assert.Zero(t, conf.Chat.MaxNameLength)
	assert.False(t, conf.Chat.ReserveBroadcastName)
	assert.Equal(t, "entra na sala...", conf.Chat.JoinNotice)
	assert.Equal(t, "sai da sala...", conf.Chat.LeaveNotice)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "6001")
	t.Setenv("PRESENCE_STALE_AFTER", "30s")

	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "6001", conf.API.Port)
	assert.Equal(t, 30*time.Second, conf.Presence.StaleAfter)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load(writeConfig(t, sampleConfig))
	require.ErrorContains(t, err, "invalid config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
