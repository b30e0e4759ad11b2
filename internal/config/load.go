package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IMPOSTOR_SERVER_PORT
const EnvPrefix = "IMPOSTOR"

// FileName is the config file looked up when no explicit path is given
const FileName = "impostor"

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// NewViper returns a viper instance carrying the defaults and env bindings.
// Priority order: flags > environment > config file > defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.redis_url", d.Storage.RedisURL)
	v.SetDefault("storage.redis_ttl", d.Storage.RedisTTL)
	v.SetDefault("content.provider", d.Content.Provider)
	v.SetDefault("content.base_url", d.Content.BaseURL)
	v.SetDefault("content.model", d.Content.Model)
	v.SetDefault("content.api_key", "")
	v.SetDefault("content.language", d.Content.Language)
	v.SetDefault("content.timeout", d.Content.Timeout)
	v.SetDefault("content.requests_per_minute", d.Content.RequestsPerMinute)
	v.SetDefault("content.strict", false)
	v.SetDefault("content.word_bank_path", "")
	v.SetDefault("game.categories", []string{})
	v.SetDefault("game.seed", 0)

	// Conventional names work alongside the prefixed ones
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("storage.redis_url", EnvPrefix+"_STORAGE_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("content.api_key", EnvPrefix+"_CONTENT_API_KEY", "OPENAI_API_KEY")

	return v
}

// BindFlags binds command-line flags to config keys. Flags are looked up by
// name; names missing from fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the config file (optional unless path is set), applies
// environment overrides and validates the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
