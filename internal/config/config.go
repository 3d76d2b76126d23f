// Package config resolves session settings from, in increasing priority:
// built-in defaults, a TOML file, a .env file, TODO_* environment
// variables, and finally command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/idilsaglam/todostate/internal/patterns"
	"github.com/idilsaglam/todostate/internal/store"
)

const (
	DefaultConfigFile = "todo.toml"
	DefaultEnvFile    = ".env"
	EnvPrefix         = "TODO"
)

var (
	Themes    = []string{"classic", "neon", "mono"}
	LogLevels = []string{"debug", "info", "warn", "error"}
)

var ErrInvalid = errors.New("invalid config")

// Config is the resolved session configuration.
type Config struct {
	Pattern  string        `toml:"pattern"`
	Latency  time.Duration `toml:"latency"`
	Theme    string        `toml:"theme"`
	LogLevel string        `toml:"log_level"`
	// LogFile receives logs; empty means stderr for commands and nowhere
	// for the TUI.
	LogFile string `toml:"log_file"`
	Seed    string `toml:"seed"`
}

func Default() Config {
	return Config{
		Pattern:  patterns.Default,
		Latency:  store.DefaultLatency,
		Theme:    "classic",
		LogLevel: "info",
	}
}

// EnvConfig mirrors Config for TODO_* variables. Fields are strings so an
// unset variable can be told apart from a zero value.
type EnvConfig struct {
	Pattern  string `envconfig:"PATTERN"`
	Latency  string `envconfig:"LATENCY"`
	Theme    string `envconfig:"THEME"`
	LogLevel string `envconfig:"LOG_LEVEL"`
	LogFile  string `envconfig:"LOG_FILE"`
	Seed     string `envconfig:"SEED"`
}

// LoadOptions say where to look. An empty ConfigFile falls back to
// todo.toml in the working directory if present; an explicit one must
// exist.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
}

func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	path, required := opts.ConfigFile, true
	if path == "" {
		path, required = DefaultConfigFile, false
	}
	if err := loadFile(&cfg, path, required); err != nil {
		return Config{}, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := loadDotEnv(envFile); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	var env EnvConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.applyEnv(env); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	return nil
}

// loadDotEnv never overrides variables already set in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func (c *Config) applyEnv(env EnvConfig) error {
	if env.Pattern != "" {
		c.Pattern = env.Pattern
	}
	if env.Latency != "" {
		d, err := time.ParseDuration(env.Latency)
		if err != nil {
			return fmt.Errorf("%w: %s_LATENCY: %v", ErrInvalid, EnvPrefix, err)
		}
		c.Latency = d
	}
	if env.Theme != "" {
		c.Theme = env.Theme
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.LogFile != "" {
		c.LogFile = env.LogFile
	}
	if env.Seed != "" {
		c.Seed = env.Seed
	}
	return nil
}

// Validate normalizes case and rejects values nothing downstream accepts.
func (c *Config) Validate() error {
	c.Pattern = strings.ToLower(strings.TrimSpace(c.Pattern))
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if _, err := patterns.Lookup(c.Pattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Latency < 0 {
		return fmt.Errorf("%w: latency must not be negative, got %s", ErrInvalid, c.Latency)
	}
	if !slices.Contains(Themes, c.Theme) {
		return fmt.Errorf("%w: theme %q (have %s)", ErrInvalid, c.Theme, strings.Join(Themes, ", "))
	}
	if !slices.Contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("%w: log level %q (have %s)", ErrInvalid, c.LogLevel, strings.Join(LogLevels, ", "))
	}
	return nil
}
