// Package config provides configuration for the debate evaluator.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the evaluator configuration.
type Config struct {
	// Database
	DatabaseURL string `yaml:"database_url"`

	// Completion provider
	CompletionURL string        `yaml:"completion_url"`
	APIKey        string        `yaml:"-"`
	ModelKey      string        `yaml:"model_key"`
	StepTimeout   time.Duration `yaml:"step_timeout"`

	// Debate
	EarlyStopJaccard float64 `yaml:"early_stop_jaccard"`

	// Cache
	CacheEnabled bool          `yaml:"cache_enabled"`
	MaxSlots     int           `yaml:"max_slots"`
	SlotTTL      time.Duration `yaml:"slot_ttl"`

	// Secondary signal
	SignalWorkers int `yaml:"signal_workers"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", "file:tribunal.db?cache=shared&mode=rwc"),
		CompletionURL:    getEnv("COMPLETION_URL", "https://openrouter.ai/api/v1"),
		APIKey:           getEnv("COMPLETION_API_KEY", ""),
		ModelKey:         getEnv("MODEL_KEY", "openai/gpt-4o-mini"),
		StepTimeout:      time.Duration(getEnvInt("STEP_TIMEOUT_MS", 90000)) * time.Millisecond,
		EarlyStopJaccard: getEnvFloat("EARLY_STOP_JACCARD", 0.4),
		CacheEnabled:     getEnvBool("CACHE_ENABLED", true),
		MaxSlots:         getEnvInt("MAX_SLOTS", 3),
		SlotTTL:          time.Duration(getEnvInt("SLOT_TTL_HOURS", 24)) * time.Hour,
		SignalWorkers:    getEnvInt("SIGNAL_WORKERS", 2),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// LoadFile overlays settings from a YAML file onto cfg. Zero values in the
// file leave the existing setting untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	overlay := *c
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	*c = overlay
	return nil
}

// Validate checks the recognized option ranges.
func (c *Config) Validate() error {
	if c.EarlyStopJaccard < 0 || c.EarlyStopJaccard > 1 {
		return fmt.Errorf("config: early_stop_jaccard %v out of [0,1]", c.EarlyStopJaccard)
	}
	if c.MaxSlots < 1 {
		return fmt.Errorf("config: max_slots must be >= 1, got %d", c.MaxSlots)
	}
	if c.SlotTTL <= 0 {
		return fmt.Errorf("config: slot_ttl must be positive, got %v", c.SlotTTL)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("config: step_timeout must be positive, got %v", c.StepTimeout)
	}
	if c.SignalWorkers < 1 {
		return fmt.Errorf("config: signal_workers must be >= 1, got %d", c.SignalWorkers)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
