package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so a stray todo.toml or .env in the
// package directory cannot leak into a test.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PATTERN", "LATENCY", "THEME", "LOG_LEVEL", "LOG_FILE", "SEED"} {
		t.Setenv(EnvPrefix+"_"+k, "")
		os.Unsetenv(EnvPrefix + "_" + k)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	clearEnv(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "reducer", cfg.Pattern)
	assert.Equal(t, time.Second, cfg.Latency)
}

func TestLoadTOMLFile(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	body := "pattern = \"proxy\"\nlatency = \"250ms\"\ntheme = \"neon\"\nlog_level = \"debug\"\nseed = \"todos.yaml\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(body), 0o644))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "proxy", cfg.Pattern)
	assert.Equal(t, 250*time.Millisecond, cfg.Latency)
	assert.Equal(t, "neon", cfg.Theme)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "todos.yaml", cfg.Seed)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	p := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(p, []byte("patern = \"flux\"\n"), 0o644))

	_, err := Load(LoadOptions{ConfigFile: p})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	chdir(t)
	clearEnv(t)
	_, err := Load(LoadOptions{ConfigFile: "missing.toml"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("pattern = \"proxy\"\n"), 0o644))
	t.Setenv("TODO_PATTERN", "minimal")
	t.Setenv("TODO_LATENCY", "5ms")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "minimal", cfg.Pattern)
	assert.Equal(t, 5*time.Millisecond, cfg.Latency)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TODO_THEME=mono\nTODO_PATTERN=flux\n"), 0o644))
	t.Setenv("TODO_PATTERN", "context")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "mono", cfg.Theme)
	assert.Equal(t, "context", cfg.Pattern)
	os.Unsetenv("TODO_THEME")
}

func TestBadEnvLatency(t *testing.T) {
	chdir(t)
	clearEnv(t)
	t.Setenv("TODO_LATENCY", "soon")
	_, err := Load(LoadOptions{})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"case folded", func(c *Config) { c.Pattern = " Flux "; c.Theme = "MONO" }, true},
		{"zero latency", func(c *Config) { c.Latency = 0 }, true},
		{"unknown pattern", func(c *Config) { c.Pattern = "signals" }, false},
		{"negative latency", func(c *Config) { c.Latency = -time.Second }, false},
		{"unknown theme", func(c *Config) { c.Theme = "pastel" }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "trace" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}
