// Package config loads layered configuration: built-in defaults, an optional
// YAML file, then BALANZA_ environment variables.
//
// Environment keys map to config paths by stripping the prefix, lowercasing,
// and turning "__" into a dot:
//
//	BALANZA_SCHEDULER__REFRESH_INTERVAL=10s  ->  scheduler.refresh_interval
//	BALANZA_NOTIFIER__SMTP__PASSWORD=...     ->  notifier.smtp.password
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BALANZA_"

// Notifier kinds.
const (
	NotifierLog  = "log"
	NotifierSMTP = "smtp"
	NotifierNATS = "nats"
)

// Config is the complete balanza configuration.
type Config struct {
	OwnerID   int64           `koanf:"owner_id"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Notifier  NotifierConfig  `koanf:"notifier"`
	Identity  IdentityConfig  `koanf:"identity"`
	HTTP      HTTPConfig      `koanf:"http"`
	Janitor   JanitorConfig   `koanf:"janitor"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

// SchedulerConfig tunes the dispatch loop. StoreTimeout bounds each store call.
type SchedulerConfig struct {
	RefreshInterval   time.Duration `koanf:"refresh_interval"`
	EmptyPollInterval time.Duration `koanf:"empty_poll_interval"`
	MaxDispatchWait   time.Duration `koanf:"max_dispatch_wait"`
	StoreTimeout      time.Duration `koanf:"store_timeout"`
}

// NotifierConfig selects the notifiers a running engine fans out to.
type NotifierConfig struct {
	Kinds []string   `koanf:"kinds"` // any of log, smtp, nats
	SMTP  SMTPConfig `koanf:"smtp"`
	NATS  NATSConfig `koanf:"nats"`
}

// SMTPConfig holds the mail relay and sender credentials.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// NATSConfig holds the NATS connection and the subject prefix;
// notifications publish on <prefix>.<owner id>.
type NATSConfig struct {
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// IdentityConfig sizes the owner e-mail cache.
type IdentityConfig struct {
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// HTTPConfig configures the optional HTTP status server.
type HTTPConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// JanitorConfig schedules pruning of dispatched reminders older than Retention.
type JanitorConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Schedule  string        `koanf:"schedule"`
	Retention time.Duration `koanf:"retention"`
}

// Load reads defaults, then configPath (skipped when empty or missing), then
// the environment.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(DefaultConfig(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// normalize trims list entries that came from comma-separated env values.
func (c *Config) normalize() {
	kinds := c.Notifier.Kinds[:0]
	for _, k := range c.Notifier.Kinds {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kinds = append(kinds, k)
		}
	}
	c.Notifier.Kinds = kinds
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.OwnerID < 0 {
		return fmt.Errorf("owner_id must not be negative")
	}

	s := c.Scheduler
	if s.RefreshInterval <= 0 || s.EmptyPollInterval <= 0 || s.MaxDispatchWait <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}
	if s.StoreTimeout < 0 {
		return fmt.Errorf("scheduler.store_timeout must not be negative")
	}

	if len(c.Notifier.Kinds) == 0 {
		return fmt.Errorf("at least one notifier kind is required")
	}
	for _, kind := range c.Notifier.Kinds {
		switch kind {
		case NotifierLog:
		case NotifierSMTP:
			if c.Notifier.SMTP.Host == "" {
				return fmt.Errorf("notifier.smtp.host is required for the smtp notifier")
			}
			if c.Notifier.SMTP.Port <= 0 || c.Notifier.SMTP.Port > 65535 {
				return fmt.Errorf("notifier.smtp.port out of range: %d", c.Notifier.SMTP.Port)
			}
		case NotifierNATS:
			if c.Notifier.NATS.URL == "" {
				return fmt.Errorf("notifier.nats.url is required for the nats notifier")
			}
		default:
			return fmt.Errorf("unknown notifier kind: %s (supported: %s, %s, %s)",
				kind, NotifierLog, NotifierSMTP, NotifierNATS)
		}
	}

	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required when http is enabled")
	}
	if c.Janitor.Enabled && c.Janitor.Retention <= 0 {
		return fmt.Errorf("janitor.retention must be positive")
	}
	return nil
}
