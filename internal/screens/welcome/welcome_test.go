package welcome

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/screen"
)

type stubNext struct{}

func (stubNext) Init() tea.Cmd                            { return nil }
func (s stubNext) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (stubNext) View(int, int) string                     { return "next" }
func (stubNext) Title() string                            { return "Next" }

func newTestScreen() *WelcomeScreen {
	return New(func() screen.Screen { return stubNext{} })
}

func advance(w *WelcomeScreen, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += tickInterval {
		w.Update(tickMsg(time.Now()))
	}
}

func TestKeyBeforeBannerIsIgnored(t *testing.T) {
	w := newTestScreen()
	advance(w, phase1End)

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	if cmd != nil {
		t.Error("key press before the banner should not transition")
	}
}

func TestKeyAfterBannerTransitions(t *testing.T) {
	w := newTestScreen()
	advance(w, phase2End+tickInterval)

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	if cmd == nil {
		t.Fatal("expected a transition command")
	}
	msg := cmd()
	if _, ok := msg.(router.ReplaceScreenMsg); !ok {
		t.Errorf("expected ReplaceScreenMsg, got %T", msg)
	}
}

func TestTransitionFiresOnce(t *testing.T) {
	w := newTestScreen()
	advance(w, phase2End+tickInterval)

	if _, cmd := w.Update(tea.KeyPressMsg{Code: ' '}); cmd == nil {
		t.Fatal("expected first transition")
	}
	if _, cmd := w.Update(tea.KeyPressMsg{Code: ' '}); cmd != nil {
		t.Error("second key press should not transition again")
	}
}

func TestBannerCompactFallback(t *testing.T) {
	if out := RenderBanner(40); !strings.Contains(out, bannerCompact) {
		t.Errorf("narrow banner = %q", out)
	}
}
