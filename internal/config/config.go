package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Cache   CacheConfig
	Log     LogConfig
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout time.Duration
}

// SessionConfig holds token persistence settings.
type SessionConfig struct {
	TokenPath string `mapstructure:"token_path"`
}

// CacheConfig holds offline snapshot settings.
type CacheConfig struct {
	Path string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix ZAMAN_.
func Load() (Config, error) {
	v := viper.New()

	home, _ := os.UserHomeDir()
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("session.token_path", filepath.Join(home, ".config", "zaman", "token"))
	v.SetDefault("cache.path", filepath.Join(home, ".local", "share", "zaman", "aims.db"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("ZAMAN_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "zaman"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ZAMAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	return c, nil
}
