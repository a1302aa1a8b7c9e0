package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MANAGER_OVERRIDE_CODE", "8642")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("NOTIFY_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "production-service", cfg.ServiceName)
	assert.Equal(t, ":8010", cfg.Server.Addr)
	assert.Equal(t, "8642", cfg.Production.ManagerOverrideCode)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, 2*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 5, cfg.Production.ConflictRetries)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MANAGER_OVERRIDE_CODE", "")
	t.Setenv("LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9000"
log:
  level: warn
production:
  manager_override_code: "1357"
  conflict_retries: 3
kafka:
  enabled: false
notify:
  teams_webhook_url: https://example.test/hook
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level, "environment overrides the file")
	assert.Equal(t, "1357", cfg.Production.ManagerOverrideCode)
	assert.Equal(t, 3, cfg.Production.ConflictRetries)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "https://example.test/hook", cfg.Notify.TeamsWebhookURL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MANAGER_OVERRIDE_CODE", "")
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANAGER_OVERRIDE_CODE")
	assert.Contains(t, err.Error(), "store.backend")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
