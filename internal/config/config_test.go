package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "balanza.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.RefreshInterval)
	assert.Equal(t, time.Second, cfg.Scheduler.EmptyPollInterval)
	assert.Equal(t, time.Minute, cfg.Scheduler.MaxDispatchWait)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.StoreTimeout)
	assert.Equal(t, []string{NotifierLog}, cfg.Notifier.Kinds)
	assert.Equal(t, 587, cfg.Notifier.SMTP.Port)
	assert.Equal(t, 10*time.Minute, cfg.Identity.CacheTTL)
	assert.Equal(t, 720*time.Hour, cfg.Janitor.Retention)
	assert.False(t, cfg.HTTP.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balanza.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
owner_id: 7
database:
  path: /var/lib/balanza/reminders.db
scheduler:
  refresh_interval: 2m
notifier:
  kinds: [log, nats]
http:
  enabled: true
  addr: 127.0.0.1:9090
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.OwnerID)
	assert.Equal(t, "/var/lib/balanza/reminders.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.RefreshInterval)
	assert.Equal(t, time.Minute, cfg.Scheduler.MaxDispatchWait)
	assert.Equal(t, []string{"log", "nats"}, cfg.Notifier.Kinds)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "balanza.db", cfg.Database.Path)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balanza.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  refresh_interval: 2m\n"), 0o644))
	t.Setenv("BALANZA_SCHEDULER__REFRESH_INTERVAL", "15s")
	t.Setenv("BALANZA_NOTIFIER__SMTP__PASSWORD", "app-password")
	t.Setenv("BALANZA_OWNER_ID", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Scheduler.RefreshInterval)
	assert.Equal(t, "app-password", cfg.Notifier.SMTP.Password)
	assert.Equal(t, int64(3), cfg.OwnerID)
}

func TestLoad_EnvNotifierList(t *testing.T) {
	t.Setenv("BALANZA_NOTIFIER__KINDS", "log, SMTP")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"log", "smtp"}, cfg.Notifier.Kinds)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "scheduler.refresh_interval", envKey("BALANZA_SCHEDULER__REFRESH_INTERVAL"))
	assert.Equal(t, "owner_id", envKey("BALANZA_OWNER_ID"))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"negative owner", func(c *Config) { c.OwnerID = -1 }},
		{"zero refresh interval", func(c *Config) { c.Scheduler.RefreshInterval = 0 }},
		{"no notifiers", func(c *Config) { c.Notifier.Kinds = nil }},
		{"unknown notifier", func(c *Config) { c.Notifier.Kinds = []string{"pigeon"} }},
		{"smtp without host", func(c *Config) {
			c.Notifier.Kinds = []string{NotifierSMTP}
			c.Notifier.SMTP.Host = ""
		}},
		{"smtp bad port", func(c *Config) {
			c.Notifier.Kinds = []string{NotifierSMTP}
			c.Notifier.SMTP.Port = 70000
		}},
		{"nats without url", func(c *Config) {
			c.Notifier.Kinds = []string{NotifierNATS}
			c.Notifier.NATS.URL = ""
		}},
		{"http without addr", func(c *Config) {
			c.HTTP.Enabled = true
			c.HTTP.Addr = ""
		}},
		{"janitor without retention", func(c *Config) { c.Janitor.Retention = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
