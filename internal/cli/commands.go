package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/todostate/internal/patterns"
	"github.com/idilsaglam/todostate/internal/script"
	"github.com/idilsaglam/todostate/internal/tui"
	"github.com/idilsaglam/todostate/internal/ui"
)

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

func tuiCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive list (default)",
		Args:  exactArgs(0, "todo tui"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, f)
		},
	}
}

func runTUI(cmd *cobra.Command, f *rootFlags) error {
	sess, err := openSession(cmd, f, true)
	if err != nil {
		return err
	}
	defer sess.close()

	s, err := sess.newStore(sess.cfg.Pattern)
	if err != nil {
		return err
	}
	defer s.Close()

	sess.logger.Info("session started", "pattern", sess.cfg.Pattern, "latency", sess.cfg.Latency)
	return tui.Run(cmd.Context(), s, tui.Options{Pattern: sess.cfg.Pattern, Logger: sess.logger})
}

func runCmd(f *rootFlags) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Replay a script against one pattern and print the final list",
		Example: `  todo run examples/demo.yaml
  todo run --pattern flux --latency 10ms --group examples/demo.yaml`,
		Args: exactArgs(1, "todo run <script>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, f, false)
			if err != nil {
				return err
			}
			defer sess.close()

			sc, err := script.Load(args[0])
			if err != nil {
				return usageError{err}
			}
			s, err := sess.newStore(sess.cfg.Pattern)
			if err != nil {
				return err
			}
			defer s.Close()

			sess.logger.Debug("running script", "script", args[0], "steps", len(sc.Steps), "pattern", sess.cfg.Pattern)
			st, runErr := script.Run(cmd.Context(), s, sc)
			listPanel(cmd.OutOrStdout(), sess.cfg.Pattern, st, group)
			if runErr != nil {
				return runErr
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("%s: %d steps", scriptName(sc, args[0]), len(sc.Steps)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	return cmd
}

func compareCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <script>",
		Short: "Replay a script against every pattern and check they agree",
		Args:  exactArgs(1, "todo compare <script>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, f, false)
			if err != nil {
				return err
			}
			defer sess.close()

			sc, err := script.Load(args[0])
			if err != nil {
				return usageError{err}
			}
			results, err := compare(cmd.Context(), sess, sc, patterns.Names())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), compareTable(results))
			return verdict(cmd.OutOrStdout(), results)
		},
	}
}

func patternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the available state containers",
		Args:  exactArgs(0, "todo patterns"),
		Run: func(cmd *cobra.Command, args []string) {
			width := 0
			for _, name := range patterns.Names() {
				width = max(width, len(name))
			}
			out := cmd.OutOrStdout()
			pen := ui.PenFor(out)
			for _, p := range patterns.All() {
				mark := " "
				if p.Name == patterns.Default {
					mark = "*"
				}
				name := p.Name + strings.Repeat(" ", width-len(p.Name))
				fmt.Fprintf(out, "%s %s  %s\n", mark, pen.C(ui.Current().Accent, name), pen.C(ui.Current().Muted, p.Summary))
			}
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "todo version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		},
	}
}

func scriptName(sc script.Script, path string) string {
	if sc.Name != "" {
		return sc.Name
	}
	return path
}
