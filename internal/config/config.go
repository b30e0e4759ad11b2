package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Content providers
const (
	ProviderLLM      = "llm"
	ProviderWordBank = "wordbank"
	ProviderStatic   = "static"
)

// Config is the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Content ContentConfig `mapstructure:"content"`
	Game    GameConfig    `mapstructure:"game"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects where the session snapshot is kept
type StorageConfig struct {
	Type     string        `mapstructure:"type"`
	RedisURL string        `mapstructure:"redis_url"`
	RedisTTL time.Duration `mapstructure:"redis_ttl"`
}

// ContentConfig selects and configures the round content provider
type ContentConfig struct {
	Provider          string        `mapstructure:"provider"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Language          string        `mapstructure:"language"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
	Strict            bool          `mapstructure:"strict"`
	WordBankPath      string        `mapstructure:"word_bank_path"`
}

// GameConfig holds game defaults
type GameConfig struct {
	// Categories replaces the built-in catalogue when non-empty
	Categories []string `mapstructure:"categories"`

	// Seed makes role assignment and category picks reproducible when non-zero
	Seed uint64 `mapstructure:"seed"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Type:     StorageMemory,
			RedisURL: "redis://localhost:6379",
			RedisTTL: 12 * time.Hour,
		},
		Content: ContentConfig{
			Provider:          ProviderStatic,
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			Language:          "English",
			Timeout:           20 * time.Second,
			RequestsPerMinute: 30,
		},
	}
}

// Validate checks the configuration for values the application cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("storage.redis_url is required for redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be memory or redis, got %q", c.Storage.Type))
	}

	switch c.Content.Provider {
	case ProviderStatic:
	case ProviderLLM:
		if c.Content.APIKey == "" {
			errs = append(errs, errors.New("content.api_key is required for the llm provider"))
		}
	case ProviderWordBank:
		if c.Content.WordBankPath == "" {
			errs = append(errs, errors.New("content.word_bank_path is required for the wordbank provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("content.provider must be llm, wordbank or static, got %q", c.Content.Provider))
	}
	if c.Content.Timeout <= 0 {
		errs = append(errs, errors.New("content.timeout must be positive"))
	}
	if c.Content.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("content.requests_per_minute cannot be negative"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ParseLevel converts a level name to a slog.Level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", name)
}
