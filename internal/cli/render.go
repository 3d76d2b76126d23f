package cli

import (
	"fmt"
	"io"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/ui"
)

// listPanel prints the visible list of st with a header and progress bar.
func listPanel(w io.Writer, pattern string, st model.State, group bool) {
	t, pen := ui.Current(), ui.PenFor(w)
	d, p := st.Stats()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		pen.C(t.Title, "Todos"),
		pen.C(t.Success, t.SymDone), d,
		pen.C(t.Pending, t.SymPending), p,
		pen.C(t.Accent, "Total"), len(st.Todos),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, pen.C(t.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, pen.C(t.Muted, fmt.Sprintf("pattern %s, filter %s", pattern, st.Filter)))
	lines = append(lines, "")

	visible := st.Filtered()
	if group {
		lines = append(lines, groupLines(pen, visible)...)
	} else {
		lines = append(lines, flatLines(pen, visible)...)
	}
	lines = append(lines, "")
	lines = append(lines, pen.C(t.Muted, "Tip: try every pattern with `todo compare <script>`"))
	ui.Panel(w, lines)
}

func flatLines(pen ui.Pen, todos []model.Todo) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{pen.C(t.Muted, "no todos")}
	}
	out := make([]string, 0, len(todos))
	for i, it := range todos {
		idx := fmt.Sprintf("%2d.", i+1)
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		text := it.Text
		if r := []rune(text); len(r) > 80 {
			text = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", pen.C(ui.Dim, idx), pen.C(color, box), text))
	}
	return out
}

func groupLines(pen ui.Pen, todos []model.Todo) []string {
	t := ui.Current()
	var pend, done []model.Todo
	for _, it := range todos {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	section := func(title string, items []model.Todo) []string {
		lines := []string{pen.C(t.Accent, title)}
		if len(items) == 0 {
			return append(lines, pen.C(t.Muted, "(none)"))
		}
		return append(lines, flatLines(pen, items)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}
