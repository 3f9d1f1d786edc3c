// Package certificate renders the completion certificate issued when a
// module is finished, with an editable recipient name.
package certificate

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/screen"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/ui/components"
	"github.com/defendiq/defendiq/internal/ui/layout"
	"github.com/defendiq/defendiq/internal/ui/theme"
)

// defaultRecipient is printed when no name is typed.
const defaultRecipient = "Security Champion"

type closedMsg struct {
	err error
}

// CertificateScreen shows the certificate for a just-finished module.
type CertificateScreen struct {
	eng    *engine.Engine
	res    engine.FinishResult
	name   components.TextInput
	errMsg string
}

var _ screen.Screen = (*CertificateScreen)(nil)
var _ screen.KeyHintProvider = (*CertificateScreen)(nil)
var _ screen.StatsProvider = (*CertificateScreen)(nil)

// New creates the certificate view for a finish result.
func New(eng *engine.Engine, res engine.FinishResult) *CertificateScreen {
	return &CertificateScreen{
		eng:  eng,
		res:  res,
		name: components.NewTextInput(defaultRecipient, 40),
	}
}

func (s *CertificateScreen) Title() string {
	return "Certificate"
}

func (s *CertificateScreen) Stats() (int, int, int) {
	return s.res.Aggregate.Points, s.res.Aggregate.Streak, s.res.Aggregate.Completion
}

func (s *CertificateScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Type", Description: "Recipient name"},
		{Key: "Enter", Description: "Back to modules"},
	}
}

func (s *CertificateScreen) Init() tea.Cmd {
	return s.name.Init()
}

func (s *CertificateScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case closedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		return s, func() tea.Msg { return router.PopToRootMsg{} }

	case tea.KeyMsg:
		if msg.String() == "enter" || msg.String() == "esc" {
			return s, func() tea.Msg {
				_, err := s.eng.Close(context.Background())
				return closedMsg{err: err}
			}
		}
		var cmd tea.Cmd
		s.name, cmd = s.name.Update(msg)
		return s, cmd
	}

	return s, nil
}

func (s *CertificateScreen) View(width, height int) string {
	cert := s.res.Certificate

	recipient := s.name.Value()
	if recipient == "" {
		recipient = defaultRecipient
	}

	heading := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true).
		Render("CERTIFICATE OF COMPLETION")

	lines := []string{
		heading,
		"",
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("This certifies that"),
		lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(recipient),
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("completed the module"),
		lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(cert.ModuleName),
		"",
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(cert.IssuedAt.Format("2 January 2006")),
		lipgloss.NewStyle().Foreground(theme.Secondary).Render("Verification code: " + cert.Token),
	}

	card := theme.Card.Render(
		lipgloss.NewStyle().Align(lipgloss.Center).Width(46).Render(strings.Join(lines, "\n")),
	)

	var award string
	if s.res.Awarded {
		award = lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true).
			Render(fmt.Sprintf("Badge earned! +%d points", stats.PointsPerFinish))
	} else {
		award = lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render("Badge already earned — no extra points this time.")
	}

	nameField := lipgloss.NewStyle().Foreground(theme.TextDim).Render("Name on certificate: ") + s.name.View()

	content := card + "\n\n" + award + "\n\n" + nameField
	if s.errMsg != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
