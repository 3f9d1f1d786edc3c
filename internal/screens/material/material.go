// Package material renders a module's learning points as a scrollable
// briefing ahead of the quiz.
package material

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/screen"
	"github.com/defendiq/defendiq/internal/ui/layout"
	"github.com/defendiq/defendiq/internal/ui/theme"
)

type backMsg struct {
	err error
}

// MaterialScreen shows the learning points for the open module.
type MaterialScreen struct {
	eng    *engine.Engine
	state  engine.State
	scroll int
	errMsg string
}

var _ screen.Screen = (*MaterialScreen)(nil)
var _ screen.KeyHintProvider = (*MaterialScreen)(nil)
var _ screen.StatsProvider = (*MaterialScreen)(nil)

// New creates the material view for the module open in state.
func New(eng *engine.Engine, state engine.State) *MaterialScreen {
	return &MaterialScreen{eng: eng, state: state}
}

func (s *MaterialScreen) Title() string {
	return s.state.Module.Title + " · Material"
}

func (s *MaterialScreen) Stats() (int, int, int) {
	return s.state.Aggregate.Points, s.state.Aggregate.Streak, s.state.Aggregate.Completion
}

func (s *MaterialScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *MaterialScreen) Init() tea.Cmd {
	return nil
}

func (s *MaterialScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case backMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.scroll > 0 {
				s.scroll--
			}
		case "down", "j":
			if s.scroll < len(s.state.Module.Points)-1 {
				s.scroll++
			}
		case "esc", "enter", "q":
			return s, func() tea.Msg {
				_, err := s.eng.Back(context.Background())
				return backMsg{err: err}
			}
		}
	}

	return s, nil
}

func (s *MaterialScreen) View(width, height int) string {
	title := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(s.state.Module.Title)

	subtitle := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d key points", len(s.state.Module.Points)))

	wrap := min(width-12, 72)
	if wrap < 20 {
		wrap = 20
	}
	bullet := lipgloss.NewStyle().Foreground(theme.Secondary)
	body := lipgloss.NewStyle().Foreground(theme.Text).Width(wrap)

	var lines []string
	for i, point := range s.state.Module.Points[s.scroll:] {
		marker := "•"
		if i == 0 && s.scroll > 0 {
			marker = "↑"
		}
		lines = append(lines, bullet.Render(marker)+" "+body.Render(point))
	}

	content := title + "\n" + subtitle + "\n\n" + strings.Join(lines, "\n\n")
	if s.errMsg != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
