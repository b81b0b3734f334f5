package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote data service (hosted auth + investments store)
	RemoteServiceURL    string
	RemoteServiceAPIKey string

	// Local state database (session snapshot, activity log)
	LocalStateDBPath string

	// AMQP activity stream
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Session store
	RefreshMargin time.Duration

	// Backend selection
	DataBackend string

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		RemoteServiceURL:    getEnv("REMOTE_SERVICE_URL", ""),
		RemoteServiceAPIKey: getEnv("REMOTE_SERVICE_API_KEY", ""),

		LocalStateDBPath: getEnv("LOCAL_STATE_DB_PATH", "./data/dca.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dca"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "investment_activity"),

		RefreshMargin: getEnvDuration("SESSION_REFRESH_MARGIN", 60*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "rest"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Remote service settings are required for the rest backend
	if c.DataBackend == "rest" {
		if c.RemoteServiceURL == "" {
			errors = append(errors, "remote service URL cannot be empty when using rest backend")
		} else if parsed, err := url.Parse(c.RemoteServiceURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid remote service URL '%s': %v", c.RemoteServiceURL, err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid remote service URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
		if c.RemoteServiceAPIKey == "" {
			errors = append(errors, "remote service API key cannot be empty when using rest backend")
		}
	}

	// Validate local state DB path
	if c.LocalStateDBPath == "" {
		errors = append(errors, "local state database path cannot be empty")
	} else {
		dir := filepath.Dir(c.LocalStateDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create local state directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate session refresh margin
	if c.RefreshMargin < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session refresh margin %v: must be at least 1 second", c.RefreshMargin))
	} else if c.RefreshMargin > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session refresh margin %v: must be at most 1 hour", c.RefreshMargin))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
