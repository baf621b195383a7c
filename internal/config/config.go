package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Task backends.
const (
	BackendNotion   = "notion"
	BackendAirtable = "airtable"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	LogLevel string

	// Backend selection
	TaskBackend string

	// Notion
	NotionAPIKey     string
	NotionDatabaseID string
	NotionAPIURL     string
	NotionVersion    string

	// Airtable
	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string

	// Memory backend seed
	MemorySeedFile string

	// Chart cache
	ChartCacheTTL  time.Duration
	ChartCacheSize int

	// AMQP (optional, empty URL disables write-back events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Journal database used by the worker
	SQLiteDBPath string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8788"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		TaskBackend: strings.ToLower(getEnv("TASK_BACKEND", BackendNotion)),

		NotionAPIKey:     strings.TrimSpace(os.Getenv("NOTION_API_KEY")),
		NotionDatabaseID: strings.TrimSpace(os.Getenv("NOTION_DATABASE_ID")),
		NotionAPIURL:     getEnv("NOTION_API_URL", "https://api.notion.com/v1"),
		NotionVersion:    getEnv("NOTION_VERSION", "2022-06-28"),

		AirtableAPIKey:    strings.TrimSpace(os.Getenv("AIRTABLE_API_KEY")),
		AirtableBaseID:    strings.TrimSpace(os.Getenv("AIRTABLE_BASE_ID")),
		AirtableTableName: getEnv("AIRTABLE_TABLE_NAME", "Tasks"),

		MemorySeedFile: getEnv("MEMORY_SEED_FILE", "./data/tasks.json"),

		ChartCacheTTL:  getEnvDuration("CHART_CACHE_TTL", 60*time.Second),
		ChartCacheSize: getEnvInt("CHART_CACHE_SIZE", 100),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "calm"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "duration_saved"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/journal.db"),
	}
}

// Validate validates the configuration and returns an error if invalid.
// Missing API secrets are not an error here: the handlers report them per request.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate task backend
	validBackends := []string{BackendNotion, BackendAirtable, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.TaskBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid task backend '%s': must be one of %v", c.TaskBackend, validBackends))
	}

	if c.TaskBackend == BackendNotion {
		if parsedURL, err := url.Parse(c.NotionAPIURL); err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid Notion API URL '%s'", c.NotionAPIURL))
		}
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate chart cache
	if c.ChartCacheSize < 1 || c.ChartCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid chart cache size %d: must be between 1 and 10000", c.ChartCacheSize))
	}
	if c.ChartCacheTTL < 0 || c.ChartCacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid chart cache TTL %v: must be between 0 and 1 hour", c.ChartCacheTTL))
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

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the journal worker cannot run without.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the journal worker")
	}
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SlogLevel returns the configured log level, Info when unparseable.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of debug, info, warn, error", s)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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
