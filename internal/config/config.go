package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// FieldMap names the frontmatter keys the core reads (and, for Notified,
// writes back). Field names are configuration, never hardcoded strings:
// every component goes through this map.
type FieldMap struct {
	Start         string
	End           string
	Date          string
	AllDay        string
	Title         string
	Categories    string
	RRule         string
	RRuleSpec     string
	RRuleID       string
	Skip          string
	Notify        string
	MinutesBefore string
	DaysBefore    string
	Notified      string
	MaxInstances  string
}

// DefaultFieldMap returns the stock field-name schema.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Start:         "Start",
		End:           "End",
		Date:          "Date",
		AllDay:        "All Day",
		Title:         "Title",
		Categories:    "Categories",
		RRule:         "RRule",
		RRuleSpec:     "RRuleSpec",
		RRuleID:       "RRule ID",
		Skip:          "Skip",
		Notify:        "Notify",
		MinutesBefore: "Minutes Before",
		DaysBefore:    "Days Before",
		Notified:      "Notified",
		MaxInstances:  "Max Instances",
	}
}

// Config holds all configuration for the application.
type Config struct {
	VaultPath      string
	CalendarFolder string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	Timezone *time.Location

	PollInterval time.Duration
	Debounce     time.Duration

	MaxRecurringInstances int

	NotifyMinutesBefore int
	NotifyDaysBefore    int

	Fields FieldMap
}

// Load reads configuration from environment variables and returns a Config
// struct. It applies defaults for optional fields and validates required
// ones. If a .env file exists in the current directory or an ancestor, it
// is loaded automatically; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels looking for a .env next to the project root.
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		VaultPath:      getEnv("VAULT_PATH", ""),
		CalendarFolder: getEnv("CALENDAR_FOLDER", ""),
		APIPort:        getEnv("API_PORT", "9000"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		Fields:         loadFieldMap(),
	}

	if cfg.VaultPath == "" {
		return nil, fmt.Errorf("VAULT_PATH is required")
	}
	if info, err := os.Stat(cfg.VaultPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("VAULT_PATH %q is not a directory", cfg.VaultPath)
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	tz := getEnv("TIMEZONE", "")
	if tz == "" {
		cfg.Timezone = time.Local
	} else {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("TIMEZONE %q is not a valid IANA zone: %w", tz, err)
		}
		cfg.Timezone = loc
	}

	pollSeconds, err := getEnvInt("POLL_INTERVAL_SECONDS", 2)
	if err != nil {
		return nil, err
	}
	if pollSeconds <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be greater than 0")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	debounceMs, err := getEnvInt("DEBOUNCE_MS", 500)
	if err != nil {
		return nil, err
	}
	if debounceMs < 0 {
		return nil, fmt.Errorf("DEBOUNCE_MS must not be negative")
	}
	cfg.Debounce = time.Duration(debounceMs) * time.Millisecond

	cfg.MaxRecurringInstances, err = getEnvInt("MAX_RECURRING_INSTANCES", 30)
	if err != nil {
		return nil, err
	}
	if cfg.MaxRecurringInstances <= 0 {
		return nil, fmt.Errorf("MAX_RECURRING_INSTANCES must be greater than 0")
	}

	cfg.NotifyMinutesBefore, err = getEnvInt("NOTIFY_MINUTES_BEFORE", 10)
	if err != nil {
		return nil, err
	}
	cfg.NotifyDaysBefore, err = getEnvInt("NOTIFY_DAYS_BEFORE", 1)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFieldMap builds the field-name schema, letting every key be
// overridden from the environment.
func loadFieldMap() FieldMap {
	defaults := DefaultFieldMap()
	return FieldMap{
		Start:         getEnv("FIELD_START", defaults.Start),
		End:           getEnv("FIELD_END", defaults.End),
		Date:          getEnv("FIELD_DATE", defaults.Date),
		AllDay:        getEnv("FIELD_ALL_DAY", defaults.AllDay),
		Title:         getEnv("FIELD_TITLE", defaults.Title),
		Categories:    getEnv("FIELD_CATEGORIES", defaults.Categories),
		RRule:         getEnv("FIELD_RRULE", defaults.RRule),
		RRuleSpec:     getEnv("FIELD_RRULE_SPEC", defaults.RRuleSpec),
		RRuleID:       getEnv("FIELD_RRULE_ID", defaults.RRuleID),
		Skip:          getEnv("FIELD_SKIP", defaults.Skip),
		Notify:        getEnv("FIELD_NOTIFY", defaults.Notify),
		MinutesBefore: getEnv("FIELD_MINUTES_BEFORE", defaults.MinutesBefore),
		DaysBefore:    getEnv("FIELD_DAYS_BEFORE", defaults.DaysBefore),
		Notified:      getEnv("FIELD_NOTIFIED", defaults.Notified),
		MaxInstances:  getEnv("FIELD_MAX_INSTANCES", defaults.MaxInstances),
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
