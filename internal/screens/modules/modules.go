// Package modules renders the module list: every training module with
// its quiz progress and badge state, plus the running score. This is
// the root screen the rest of the app unwinds back to.
package modules

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/defendiq/defendiq/internal/catalog"
	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/progress"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/screen"
	"github.com/defendiq/defendiq/internal/screens/overview"
	"github.com/defendiq/defendiq/internal/ui/components"
	"github.com/defendiq/defendiq/internal/ui/layout"
	"github.com/defendiq/defendiq/internal/ui/theme"
)

// RetryCatalogMsg asks the app to retry loading the module catalog.
// Only emitted from degraded mode.
type RetryCatalogMsg struct{}

// RetryFailedMsg reports a failed catalog retry back to the list.
type RetryFailedMsg struct {
	Err error
}

type refreshMsg struct {
	state engine.State
	all   map[string]progress.ModuleProgress
	err   error
}

type selectedMsg struct {
	state engine.State
	err   error
}

// ModulesScreen lists the catalog and opens a module's overview on
// selection.
type ModulesScreen struct {
	eng      *engine.Engine
	mods     []catalog.Module
	state    engine.State
	all      map[string]progress.ModuleProgress
	selected int
	errMsg   string
}

var _ screen.Screen = (*ModulesScreen)(nil)
var _ screen.KeyHintProvider = (*ModulesScreen)(nil)
var _ screen.StatsProvider = (*ModulesScreen)(nil)

// New creates the module list over the engine's catalog.
func New(eng *engine.Engine) *ModulesScreen {
	return &ModulesScreen{
		eng:  eng,
		mods: eng.Catalog().Modules(),
	}
}

func (m *ModulesScreen) Title() string {
	return "Training Modules"
}

func (m *ModulesScreen) Stats() (int, int, int) {
	return m.state.Aggregate.Points, m.state.Aggregate.Streak, m.state.Aggregate.Completion
}

func (m *ModulesScreen) degraded() bool {
	return len(m.mods) == 0
}

func (m *ModulesScreen) KeyHints() []layout.KeyHint {
	if m.degraded() {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Init refreshes score and progress; it reruns whenever the screen is
// revealed by a pop so finished quizzes show up immediately.
func (m *ModulesScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		state, err := m.eng.Resume(ctx)
		if err != nil {
			return refreshMsg{err: err}
		}
		all, err := m.eng.AllProgress(ctx)
		return refreshMsg{state: state, all: all, err: err}
	}
}

func (m *ModulesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.state = msg.state
		m.all = msg.all
		return m, nil

	case RetryFailedMsg:
		m.errMsg = "still unavailable: " + msg.Err.Error()
		return m, nil

	case selectedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.state = msg.state
		next := overview.New(m.eng, msg.state)
		return m, func() tea.Msg {
			return router.PushScreenMsg{Screen: next}
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *ModulesScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.mods)-1 {
			m.selected++
		}
	case "enter":
		if m.degraded() {
			return m, nil
		}
		key := m.mods[m.selected].Key
		return m, func() tea.Msg {
			state, err := m.eng.SelectModule(context.Background(), key)
			return selectedMsg{state: state, err: err}
		}
	case "r":
		if m.degraded() {
			return m, func() tea.Msg { return RetryCatalogMsg{} }
		}
	}
	return m, nil
}

func (m *ModulesScreen) View(width, height int) string {
	if m.degraded() {
		return m.renderDegraded(width, height)
	}

	var rows []string
	for i, mod := range m.mods {
		rows = append(rows, m.renderRow(i, mod))
	}

	list := strings.Join(rows, "\n")

	summary := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d modules · %d badges earned", len(m.mods), len(m.state.Aggregate.Badges)))

	if m.errMsg != "" {
		summary = lipgloss.NewStyle().Foreground(theme.Error).Render(m.errMsg)
	}

	content := list + "\n\n" + summary

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *ModulesScreen) renderRow(i int, mod catalog.Module) string {
	p := m.all[mod.Key]
	total := len(mod.Questions)

	badge := "  "
	if m.state.Aggregate.HasBadge(mod.Title) {
		badge = lipgloss.NewStyle().Foreground(theme.Success).Render("✓ ")
	}

	bar := components.NewProgressBar("", pct(p.AnsweredCount(), total), false, 14).View()
	count := fmt.Sprintf("%2d/%d", p.AnsweredCount(), total)

	title := mod.Title
	style := lipgloss.NewStyle().Foreground(theme.Text)
	prefix := "    "
	if i == m.selected {
		style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		prefix = "  ▸ "
	}

	return prefix + badge + style.Render(fmt.Sprintf("%-34s", title)) + "  " + bar + "  " +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(count)
}

func (m *ModulesScreen) renderDegraded(width, height int) string {
	banner := theme.Degraded.Render("⚠ Training content unavailable")
	body := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render("The module catalog could not be loaded.\nYour score and progress are safe.")
	hint := theme.Hint.Render("press r to retry")

	content := banner + "\n\n" + body + "\n\n" + hint
	if m.errMsg != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(m.errMsg)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func pct(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total)
}
