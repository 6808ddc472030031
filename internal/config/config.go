// Package config loads the service configuration.
//
// Values come from, in increasing priority: built-in defaults, an optional
// YAML/TOML/JSON config file and IELTS_* environment variables
// (IELTS_SERVER_PORT overrides server.port). The chat API key also falls back
// to the bare GEMINI_API_KEY or ANTHROPIC_API_KEY variable of the selected
// provider.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "IELTS"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Chat providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Storage StorageConfig `mapstructure:"storage"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// CORSConfig configures the cross-origin headers.
type CORSConfig struct {
	AllowOrigin string `mapstructure:"allow_origin"`
}

// StorageConfig selects and tunes the state backend.
type StorageConfig struct {
	Driver        string        `mapstructure:"driver"`
	Path          string        `mapstructure:"path"`
	Key           string        `mapstructure:"key"`
	TTL           time.Duration `mapstructure:"ttl"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// ChatConfig configures the chat proxy.
type ChatConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	SystemInstruction string        `mapstructure:"system_instruction"`
}

// LogConfig configures log output. An empty File logs to stderr only.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SetDefaults registers every key with its default value. Keys must be
// registered for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 70*time.Second)
	v.SetDefault("server.max_body_bytes", int64(1<<20))

	v.SetDefault("cors.allow_origin", "*")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", filepath.Join(dataHome(), "ielts", "state.db"))
	v.SetDefault("storage.key", "ielts:state")
	v.SetDefault("storage.ttl", 30*24*time.Hour)
	v.SetDefault("storage.timeout", 5*time.Second)
	v.SetDefault("storage.purge_interval", time.Hour)

	v.SetDefault("chat.provider", ProviderGemini)
	v.SetDefault("chat.model", "")
	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.timeout", 60*time.Second)
	v.SetDefault("chat.max_tokens", 1024)
	v.SetDefault("chat.system_instruction", "")

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the default location is used when a file is present there.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		if candidate := DefaultPath(); fileExists(candidate) {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = file

	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = providerKey(cfg.Chat.Provider)
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = DefaultModel(cfg.Chat.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be %s or %s", c.Storage.Driver, DriverSQLite, DriverMemory))
	}
	if c.Storage.Key == "" {
		errs = append(errs, errors.New("storage.key is required"))
	}
	if c.Storage.TTL <= 0 {
		errs = append(errs, errors.New("storage.ttl must be positive"))
	}
	switch c.Chat.Provider {
	case ProviderGemini, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("chat.provider %q must be %s or %s", c.Chat.Provider, ProviderGemini, ProviderAnthropic))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultModel returns the model used when chat.model is unset.
func DefaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return "claude-sonnet-4-5"
	}
	return "gemini-2.5-flash"
}

// DefaultPath returns $XDG_CONFIG_HOME/ielts/config.yaml.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(dir, "ielts", "config.yaml")
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}

func providerKey(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
