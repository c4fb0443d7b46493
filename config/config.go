package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Cameroonytoons/AniFig/storage"
)

// Config holds application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Retry   RetryConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	Backend string // "file" or "sqlite"
	Path    string
}

// RetryConfig holds the shared retry policy knobs.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Policy converts the configured knobs into a storage retry policy.
func (c Config) Policy() storage.Policy {
	return storage.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		Delay:       c.Retry.Delay,
		Timeout:     c.Retry.Timeout,
	}
}

// Load reads configuration from file and env. Env var overrides use prefix ANIFIG_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "anifig")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", filepath.Join(dataDir, "animations.json"))
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "500ms")
	v.SetDefault("retry.timeout", "5s")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ANIFIG_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "anifig"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ANIFIG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
