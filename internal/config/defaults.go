package config

// DefaultConfig returns the built-in configuration layer.
func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"owner_id": 0,
		"database": map[string]interface{}{
			"path": "balanza.db",
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "text",
		},
		"scheduler": map[string]interface{}{
			"refresh_interval":    "30s",
			"empty_poll_interval": "1s",
			"max_dispatch_wait":   "1m",
			"store_timeout":       "5s",
		},
		"notifier": map[string]interface{}{
			"kinds": []string{NotifierLog},
			"smtp": map[string]interface{}{
				"host":     "smtp.gmail.com",
				"port":     587,
				"username": "",
				"password": "",
				"from":     "",
			},
			"nats": map[string]interface{}{
				"url":            "nats://localhost:4222",
				"subject_prefix": "balanza.reminders",
			},
		},
		"identity": map[string]interface{}{
			"cache_size": 1024,
			"cache_ttl":  "10m",
		},
		"http": map[string]interface{}{
			"enabled":          false,
			"addr":             ":8080",
			"read_timeout":     "10s",
			"write_timeout":    "10s",
			"shutdown_timeout": "10s",
		},
		"janitor": map[string]interface{}{
			"enabled":   true,
			"schedule":  "@daily",
			"retention": "720h",
		},
	}
}
