// Package app wires the progression engine into the Bubble Tea program:
// the root model owns the screen router, restores the previous session's
// position on startup, and handles catalog retries in degraded mode.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/defendiq/defendiq/internal/catalog"
	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/screen"
	"github.com/defendiq/defendiq/internal/screens/certificate"
	"github.com/defendiq/defendiq/internal/screens/material"
	"github.com/defendiq/defendiq/internal/screens/modules"
	"github.com/defendiq/defendiq/internal/screens/overview"
	"github.com/defendiq/defendiq/internal/screens/quiz"
	"github.com/defendiq/defendiq/internal/screens/welcome"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/ui/layout"
)

// Options carries the app's dependencies.
type Options struct {
	Engine *engine.Engine

	// LoadCatalog retries the catalog fetch from degraded mode.
	LoadCatalog func(ctx context.Context) (*catalog.Catalog, error)

	// Rebuild constructs a fresh engine over a reloaded catalog.
	Rebuild func(cat *catalog.Catalog) *engine.Engine
}

type catalogReloadedMsg struct {
	cat *catalog.Catalog
	err error
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts     Options
	eng      *engine.Engine
	router   *router.Router
	initCmds []tea.Cmd
	agg      stats.Aggregate
	width    int
	height   int
}

// newAppModel restores the previous session and builds the screen stack
// to match: a cursor inside a module reopens that module's view, and a
// fresh session gets the welcome splash.
func newAppModel(opts Options) (AppModel, error) {
	eng := opts.Engine
	state, err := eng.Resume(context.Background())
	if err != nil {
		return AppModel{}, fmt.Errorf("resume session: %w", err)
	}

	m := AppModel{opts: opts, eng: eng, agg: state.Aggregate}

	list := modules.New(eng)
	if !state.Cursor.HasModule() {
		m.router = router.New(welcome.New(func() screen.Screen {
			return modules.New(eng)
		}))
		m.initCmds = append(m.initCmds, m.router.Active().Init())
		return m, nil
	}

	m.router = router.New(list)
	m.initCmds = append(m.initCmds, list.Init())
	m.initCmds = append(m.initCmds, m.router.Push(overview.New(eng, state)))

	switch state.Cursor.Mode {
	case engine.ModeMaterial:
		m.initCmds = append(m.initCmds, m.router.Push(material.New(eng, state)))
	case engine.ModeQuiz:
		m.initCmds = append(m.initCmds, m.router.Push(quiz.New(eng, state)))
	case engine.ModeCertificate:
		if state.Cursor.Certificate != nil {
			res := engine.FinishResult{State: state, Certificate: *state.Cursor.Certificate}
			m.initCmds = append(m.initCmds, m.router.Push(certificate.New(eng, res)))
		}
	}
	return m, nil
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.initCmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case modules.RetryCatalogMsg:
		return m, func() tea.Msg {
			cat, err := m.opts.LoadCatalog(context.Background())
			return catalogReloadedMsg{cat: cat, err: err}
		}

	case catalogReloadedMsg:
		if msg.err != nil {
			cmd := m.router.Update(modules.RetryFailedMsg{Err: msg.err})
			return m, cmd
		}
		m.eng = m.opts.Rebuild(msg.cat)
		return m, m.router.Replace(modules.New(m.eng))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)

	if provider, ok := m.router.Active().(screen.StatsProvider); ok {
		points, streak, completion := provider.Stats()
		m.agg.Points, m.agg.Streak, m.agg.Completion = points, streak, completion
	}
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.agg.Points, m.agg.Streak, m.agg.Completion, m.width)

	footerHints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if provider, ok := active.(screen.KeyHintProvider); ok {
		if hints := provider.KeyHints(); len(hints) > 0 {
			footerHints = hints
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	model, err := newAppModel(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
