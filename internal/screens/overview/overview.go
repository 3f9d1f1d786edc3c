// Package overview is the per-module submenu: read the material, take
// the quiz, or go back to the module list.
package overview

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/screen"
	"github.com/defendiq/defendiq/internal/screens/material"
	"github.com/defendiq/defendiq/internal/screens/quiz"
	"github.com/defendiq/defendiq/internal/ui/components"
	"github.com/defendiq/defendiq/internal/ui/layout"
	"github.com/defendiq/defendiq/internal/ui/theme"
)

type refreshMsg struct {
	state engine.State
	err   error
}

type materialMsg struct {
	state engine.State
	err   error
}

type quizMsg struct {
	state engine.State
	err   error
}

type backMsg struct {
	err error
}

// OverviewScreen shows one module's progress and its actions.
type OverviewScreen struct {
	eng    *engine.Engine
	state  engine.State
	menu   components.Menu
	errMsg string
}

var _ screen.Screen = (*OverviewScreen)(nil)
var _ screen.KeyHintProvider = (*OverviewScreen)(nil)
var _ screen.StatsProvider = (*OverviewScreen)(nil)

// New creates the overview for the module selected in state.
func New(eng *engine.Engine, state engine.State) *OverviewScreen {
	s := &OverviewScreen{eng: eng, state: state}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Read the material", Action: s.openMaterial},
		{Label: "Take the quiz", Action: s.openQuiz},
		{Label: "Back to modules", Action: s.goBack},
	})
	return s
}

func (s *OverviewScreen) Title() string {
	return s.state.Module.Title
}

func (s *OverviewScreen) Stats() (int, int, int) {
	return s.state.Aggregate.Points, s.state.Aggregate.Streak, s.state.Aggregate.Completion
}

func (s *OverviewScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Back"},
	}
}

// Init refreshes the snapshot so quiz progress is current after a pop.
func (s *OverviewScreen) Init() tea.Cmd {
	return func() tea.Msg {
		state, err := s.eng.Resume(context.Background())
		return refreshMsg{state: state, err: err}
	}
}

func (s *OverviewScreen) openMaterial() tea.Cmd {
	return func() tea.Msg {
		state, err := s.eng.OpenMaterial(context.Background())
		return materialMsg{state: state, err: err}
	}
}

func (s *OverviewScreen) openQuiz() tea.Cmd {
	return func() tea.Msg {
		state, err := s.eng.OpenQuiz(context.Background())
		return quizMsg{state: state, err: err}
	}
}

func (s *OverviewScreen) goBack() tea.Cmd {
	return func() tea.Msg {
		_, err := s.eng.Back(context.Background())
		return backMsg{err: err}
	}
}

func (s *OverviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		// A pop can land here after the module vanished from a reloaded
		// catalog; fall back to the list rather than render stale data.
		if !msg.state.Cursor.HasModule() {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		s.errMsg = ""
		s.state = msg.state
		return s, nil

	case materialMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.state = msg.state
		next := material.New(s.eng, msg.state)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case quizMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.state = msg.state
		next := quiz.New(s.eng, msg.state)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case backMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, s.goBack()
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}

	return s, nil
}

func (s *OverviewScreen) View(width, height int) string {
	total := len(s.state.Module.Questions)
	answered := s.state.Progress.AnsweredCount()

	title := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(s.state.Module.Title)

	status := fmt.Sprintf("Quiz progress: %d of %d questions", answered, total)
	if s.state.Aggregate.HasBadge(s.state.Module.Title) {
		status += "   " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓ badge earned")
	}

	bar := components.NewProgressBar("", progressPct(answered, total), true, 40).View()

	content := title + "\n\n" +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(status) + "\n" +
		bar + "\n\n" +
		s.menu.View()

	if s.errMsg != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func progressPct(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total)
}
