// Package config loads the supervisor configuration from defaults, an
// optional config file, PMAN_* environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "PMAN"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the immutable configuration of a supervisor.
type Config struct {
	// PollInterval bounds how long the event loop waits for input before
	// checking for terminated jobs.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	Prompt string `mapstructure:"prompt"`

	// NameLimit is the maximum length of a job's display name in runes.
	NameLimit int `mapstructure:"name_limit"`

	Color string `mapstructure:"color"`

	// FlushInput discards type-ahead whenever the prompt is drawn on a
	// terminal.
	FlushInput bool `mapstructure:"flush_input"`

	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		PollInterval: time.Second,
		Prompt:       "PMan: > ",
		NameLimit:    100,
		Color:        ColorAuto,
		FlushInput:   true,
	}
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"poll-interval": "poll_interval",
	"prompt":        "prompt",
	"name-limit":    "name_limit",
	"color":         "color",
	"flush-input":   "flush_input",
	"debug":         "debug",
	"log-file":      "log_file",
}

// Load builds a Config. If path is empty, PMAN_CONFIG and then
// $HOME/.config/pman/config.{toml,yaml,json} are tried; a missing default
// config file is not an error. Flags that were not set on the command line
// don't override lower-precedence sources.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("prompt", def.Prompt)
	v.SetDefault("name_limit", def.NameLimit)
	v.SetDefault("color", def.Color)
	v.SetDefault("flush_input", def.FlushInput)
	v.SetDefault("debug", def.Debug)
	v.SetDefault("log_file", def.LogFile)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pman"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}

			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting in c.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}

	if c.NameLimit <= 0 {
		return errors.New("name limit must be positive")
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be one of auto, always, never: got '%s'", c.Color)
	}

	return nil
}

// UseColor resolves the color mode given whether output is a terminal.
func (c Config) UseColor(tty bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return tty
	}
}
