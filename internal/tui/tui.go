// Package tui is the interactive Bubble Tea front end over a store.Store.
// The model never mutates todos itself: keys turn into store calls run as
// commands, and committed snapshots come back as messages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/ui"
)

// listItem adapts a todo to bubbles/list.Item. The ID travels with the row
// so toggles and deletes hit the right todo under any filter.
type listItem struct {
	ID   model.ID
	Text string
	Done bool
}

func (i listItem) Title() string       { return i.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	checked, unchecked := boxes()

	box := mutedStyle.Render(unchecked)
	text := it.Text
	if it.Done {
		box = successStyle.Render(checked)
		text = doneStyle.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}

// stateMsg carries a committed snapshot into the event loop.
type stateMsg struct{ state model.State }

// addedMsg resolves one in-flight add.
type addedMsg struct {
	todo  model.Todo
	err   error
	state model.State
}

type errMsg struct{ err error }

type keyMap struct {
	Add, Toggle, Delete, NextFilter, All, Pending, Done, Quit key.Binding
}

var keys = keyMap{
	Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	NextFilter: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter")),
	All:        key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
	Pending:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "todo")),
	Done:       key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "done")),
	Quit:       key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Options tune the session.
type Options struct {
	// Pattern is shown in the header.
	Pattern string
	Logger  *log.Logger
}

// Model is the Bubble Tea model.
type Model struct {
	ctx    context.Context
	store  store.Store
	logger *log.Logger
	name   string

	state model.State
	list  list.Model

	adding bool
	ti     textinput.Model
	addErr string

	spin    spinner.Model
	pending int
	err     string

	width, height int
}

// New builds a model showing s's current state.
func New(ctx context.Context, s store.Store, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetStatusBarItemName("item", "items")
	extra := func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Delete, keys.NextFilter}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return append(extra(), keys.All, keys.Pending, keys.Done)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle

	m := Model{
		ctx:    ctx,
		store:  s,
		logger: opts.Logger,
		name:   opts.Pattern,
		list:   l,
		ti:     ti,
		spin:   sp,
	}
	m.resize(80, 24)
	m.apply(s.State())
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// apply installs st unless an equal or newer snapshot is already shown.
func (m *Model) apply(st model.State) tea.Cmd {
	if st.Version < m.state.Version {
		m.logger.Debug("dropping stale state", "version", st.Version, "shown", m.state.Version)
		return nil
	}
	m.state = st
	visible := st.Filtered()
	items := make([]list.Item, 0, len(visible))
	for _, t := range visible {
		items = append(items, listItem{ID: t.ID, Text: t.Text, Done: t.Completed})
	}
	cmd := m.list.SetItems(items)
	if n := len(items); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
	return cmd
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	listHeight := h - 8
	if m.adding {
		listHeight -= 3
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(w-4, listHeight)
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// mutate runs fn off the event loop; subscribers may call Program.Send.
func (m Model) mutate(fn func(store.Store) error) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := fn(s); err != nil {
			return errMsg{err}
		}
		return stateMsg{s.State()}
	}
}

func (m Model) add(text string) tea.Cmd {
	s, ctx := m.store, m.ctx
	return func() tea.Msg {
		p, err := s.AddTodo(ctx, text)
		if err != nil {
			return addedMsg{err: err, state: s.State()}
		}
		t, err := p.Wait(ctx)
		return addedMsg{todo: t, err: err, state: s.State()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case stateMsg:
		cmd := m.apply(msg.state)
		return m, cmd
	case addedMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil && !errors.Is(msg.err, store.ErrClosed) && !errors.Is(msg.err, context.Canceled) {
			m.err = "add: " + msg.err.Error()
		}
		cmd := m.apply(msg.state)
		return m, cmd
	case errMsg:
		m.err = msg.err.Error()
		m.logger.Warn("store rejected change", "err", msg.err)
		return m, nil
	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		m.err = ""
		switch {
		case key.Matches(k, keys.Quit):
			return m, tea.Quit
		case key.Matches(k, keys.Add):
			m.adding = true
			m.addErr = ""
			m.ti.SetValue("")
			m.resize(m.width, m.height)
			cmd := m.ti.Focus()
			return m, cmd
		case key.Matches(k, keys.Toggle):
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, m.mutate(func(s store.Store) error { return s.ToggleTodo(it.ID, it.Done) })
		case key.Matches(k, keys.Delete):
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, m.mutate(func(s store.Store) error { return s.RemoveTodo(it.ID) })
		case key.Matches(k, keys.NextFilter):
			next := m.state.Filter.Next()
			return m, m.mutate(func(s store.Store) error { return s.ChangeFilter(next) })
		case key.Matches(k, keys.All):
			return m, m.filter(model.All)
		case key.Matches(k, keys.Pending):
			return m, m.filter(model.Pending)
		case key.Matches(k, keys.Done):
			return m, m.filter(model.Done)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) filter(f model.Filter) tea.Cmd {
	return m.mutate(func(s store.Store) error { return s.ChangeFilter(f) })
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			text, err := store.NormalizeText(m.ti.Value())
			if err != nil {
				m.addErr = "Text cannot be empty"
				return m, nil
			}
			m.adding = false
			m.ti.SetValue("")
			m.ti.Blur()
			m.resize(m.width, m.height)
			m.pending++
			if m.pending > 1 {
				// the spinner is already ticking
				return m, m.add(text)
			}
			return m, tea.Batch(m.add(text), m.spin.Tick)
		case "esc":
			m.adding = false
			m.ti.SetValue("")
			m.ti.Blur()
			m.resize(m.width, m.height)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) header() string {
	done, pending := m.state.Stats()
	total := done + pending
	title := "Todos"
	if m.name != "" {
		title += " (" + m.name + ")"
	}
	line := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render(title),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), total,
	)

	tabs := make([]string, 0, 3)
	for _, f := range model.Filters() {
		if f == m.state.Filter {
			tabs = append(tabs, activeTab.Render(f.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(f.String()))
		}
	}
	bar := mutedStyle.Render(ui.ProgressBar(done, total, 28))
	return lipgloss.JoinVertical(lipgloss.Left, line, lipgloss.JoinHorizontal(lipgloss.Top, tabs...), bar)
}

func (m Model) View() string {
	parts := []string{m.header(), m.list.View()}

	if m.pending > 0 {
		noun := "todo"
		if m.pending > 1 {
			noun = "todos"
		}
		parts = append(parts, fmt.Sprintf("%s saving %d %s...", m.spin.View(), m.pending, noun))
	}
	if m.adding {
		title := "Add new todo"
		if m.addErr != "" {
			title += ": " + errorStyle.Render(m.addErr)
		}
		parts = append(parts, frameStyle.Render(title+"\n"+m.ti.View()))
	}
	if m.err != "" {
		parts = append(parts, errorStyle.Render(m.err))
	}
	return frameStyle.Render(strings.Join(parts, "\n"))
}

// Run starts an interactive session over s and blocks until the user quits.
func Run(ctx context.Context, s store.Store, opts Options) error {
	p := tea.NewProgram(New(ctx, s, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := s.Subscribe(func(st model.State) { p.Send(stateMsg{st}) })
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
