package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/todostate/internal/config"
	"github.com/idilsaglam/todostate/internal/logging"
	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/patterns"
	"github.com/idilsaglam/todostate/internal/seed"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/ui"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
)

// Options wire the runner to its streams. Nil writers mean os.Stdout and
// os.Stderr.
type Options struct {
	Out io.Writer
	Err io.Writer
}

// usageError marks failures that exit with 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// Run executes the command line and returns an exit code (0 ok, 1 error,
// 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Err == nil {
		opt.Err = os.Stderr
	}

	root := rootCmd(opt)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(opt.Err, err.Error())
	var ue usageError
	if errors.As(err, &ue) || errors.Is(err, config.ErrInvalid) {
		fmt.Fprintln(opt.Err, ui.PenFor(opt.Err).C(ui.Current().Muted, "Hint: run `todo --help` for usage"))
		return 2
	}
	return 1
}

// rootFlags are shared by every subcommand. Only flags the user set
// override the loaded configuration.
type rootFlags struct {
	configFile string
	envFile    string
	pattern    string
	latency    time.Duration
	theme      string
	logLevel   string
	logFile    string
	seed       string
}

func rootCmd(opt Options) *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Compare state-management patterns on one todo list",
		Long: `todo runs the same todo list on several interchangeable state containers.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. todo.toml (or --config)
  3. .env file (or --env-file)
  4. TODO_* environment variables
  5. Command line flags

Environment variables:
  TODO_PATTERN     State container: context, reducer, observable, flux, proxy, minimal
  TODO_LATENCY     Delay before an add lands (default: 1s)
  TODO_THEME       classic, neon, mono
  TODO_LOG_LEVEL   debug, info, warn, error
  TODO_LOG_FILE    Append logs to this file
  TODO_SEED        JSON or YAML file with initial todos`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown command %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, &flags)
		},
	}
	cmd.SetOut(opt.Out)
	cmd.SetErr(opt.Err)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Path to TOML config (default: todo.toml if present)")
	pf.StringVar(&flags.envFile, "env-file", "", "Path to .env file (default: .env if present)")
	pf.StringVarP(&flags.pattern, "pattern", "p", "", "State container to use")
	pf.DurationVar(&flags.latency, "latency", 0, "Delay before an add lands (default: 1s)")
	pf.StringVar(&flags.theme, "theme", "", "Output theme: classic, neon, mono")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFile, "log-file", "", "Append logs to this file")
	pf.StringVar(&flags.seed, "seed", "", "JSON or YAML file with initial todos")

	cmd.AddCommand(tuiCmd(&flags))
	cmd.AddCommand(runCmd(&flags))
	cmd.AddCommand(compareCmd(&flags))
	cmd.AddCommand(patternsCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// session is the resolved environment of one command.
type session struct {
	cfg    config.Config
	logger *log.Logger
	seed   []seed.Item
	close  func() error
}

// loadConfig layers flags over config.Load and validates the result.
func loadConfig(cmd *cobra.Command, f *rootFlags) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: f.configFile, EnvFile: f.envFile})
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	changed := cmd.Flags().Changed
	if changed("pattern") {
		cfg.Pattern = f.pattern
	}
	if changed("latency") {
		cfg.Latency = f.latency
	}
	if changed("theme") {
		cfg.Theme = f.theme
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openSession loads config, theme, logger and seed. Interactive sessions
// never log to the terminal they draw on.
func openSession(cmd *cobra.Command, f *rootFlags, interactive bool) (*session, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}
	if err := ui.SetTheme(cfg.Theme); err != nil {
		return nil, usageError{err}
	}

	s := &session{cfg: cfg, close: func() error { return nil }}
	lopts := logging.DefaultOptions()
	lopts.Level = cfg.LogLevel
	switch {
	case cfg.LogFile != "":
		logger, closeLog, err := logging.OpenFile(cfg.LogFile, lopts)
		if err != nil {
			return nil, err
		}
		s.logger, s.close = logger, closeLog
	case interactive:
		s.logger = logging.Discard()
	default:
		logger, err := logging.New(cmd.ErrOrStderr(), lopts)
		if err != nil {
			return nil, err
		}
		s.logger = logger
	}

	if cfg.Seed != "" {
		items, err := seed.Load(cfg.Seed)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("load seed: %w", err)
		}
		s.seed = items
		s.logger.Debug("loaded seed", "path", cfg.Seed, "todos", len(items))
	}
	return s, nil
}

// newStore opens a fresh store of the named pattern with its own ids. A
// configured latency of zero means adds land on the next turn.
func (s *session) newStore(name string) (store.Store, error) {
	latency := s.cfg.Latency
	if latency == 0 {
		latency = store.NoLatency
	}
	ids := model.NewIDSource()
	return patterns.New(name, store.Options{
		Latency: latency,
		IDs:     ids,
		Logger:  s.logger.WithPrefix(name),
		Seed:    seed.Todos(s.seed, ids),
	})
}
