package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/script"
	"github.com/idilsaglam/todostate/internal/ui"
)

var (
	ErrDisagree  = errors.New("patterns disagree")
	ErrScriptRun = errors.New("script failed")
)

// result is one pattern's replay. Ids are session-local, so two results
// agree when their filter, visible rows and error match.
type result struct {
	pattern string
	state   model.State
	err     error
}

func (r result) fingerprint() string {
	if r.err != nil {
		return "error: " + r.err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "filter=%s", r.state.Filter)
	for _, t := range r.state.Todos {
		fmt.Fprintf(&b, "|%t:%s", t.Completed, t.Text)
	}
	return b.String()
}

// compare replays sc against every named pattern concurrently. A failing
// replay is a result, not an error; only setup failures abort.
func compare(ctx context.Context, sess *session, sc script.Script, names []string) ([]result, error) {
	results := make([]result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			s, err := sess.newStore(name)
			if err != nil {
				return fmt.Errorf("open %s: %w", name, err)
			}
			defer s.Close()

			st, err := script.Run(gctx, s, sc)
			results[i] = result{pattern: name, state: st, err: err}
			sess.logger.Debug("replayed", "pattern", name, "version", st.Version, "err", err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func agreement(results []result) []bool {
	out := make([]bool, len(results))
	if len(results) == 0 {
		return out
	}
	want := results[0].fingerprint()
	for i, r := range results {
		out[i] = r.fingerprint() == want
	}
	return out
}

func compareTable(results []result) string {
	agree := agreement(results)
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("pattern", "filter", "visible", "done", "pending", "result")

	for i, r := range results {
		visible := script.Visible(r.state)
		done, pending := r.state.Stats()
		status := "ok"
		switch {
		case r.err != nil:
			status = r.err.Error()
		case !agree[i]:
			status = "differs"
		}
		t.Row(r.pattern, r.state.Filter.String(), strings.Join(visible, ", "),
			fmt.Sprint(done), fmt.Sprint(pending), status)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		s := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return s.Bold(true)
		}
		if col == 5 && row >= 0 && row < len(results) {
			if results[row].err != nil || !agree[row] {
				return s.Inherit(badStyle)
			}
			return s.Inherit(okStyle)
		}
		return s
	})
	return t.String()
}

// verdict prints the summary line and returns the command's error.
func verdict(w io.Writer, results []result) error {
	for i, ok := range agreement(results) {
		if !ok {
			return fmt.Errorf("%w: %s differs from %s", ErrDisagree, results[i].pattern, results[0].pattern)
		}
	}
	for _, r := range results {
		if r.err != nil {
			return fmt.Errorf("%w on every pattern: %v", ErrScriptRun, r.err)
		}
	}
	ui.OK(w, fmt.Sprintf("all %d patterns agree", len(results)))
	return nil
}
