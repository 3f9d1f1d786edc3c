package quiz

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/defendiq/defendiq/internal/catalog"
	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/progress"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/store"
)

func testEngine(t *testing.T, mods []catalog.Module) *engine.Engine {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cat := catalog.New(mods)
	durable := persist.New(nil, st.Slots())
	return engine.New(cat,
		progress.NewStore(durable),
		stats.NewService(durable, cat.Len()),
		durable,
	)
}

func twoQuestionModule() []catalog.Module {
	return []catalog.Module{{
		Key:   "phishing",
		Title: "Phishing Simulation",
		Questions: []catalog.Question{
			{Prompt: "q0", Options: []string{"right", "wrong"}, CorrectIndex: 0},
			{Prompt: "q1", Options: []string{"wrong", "right"}, CorrectIndex: 1},
		},
	}}
}

func openQuiz(t *testing.T, eng *engine.Engine) *QuizScreen {
	t.Helper()
	ctx := context.Background()
	if _, err := eng.SelectModule(ctx, "phishing"); err != nil {
		t.Fatalf("SelectModule: %v", err)
	}
	state, err := eng.OpenQuiz(ctx)
	if err != nil {
		t.Fatalf("OpenQuiz: %v", err)
	}
	return New(eng, state)
}

// pump runs the command returned by Update and feeds the resulting
// message back, mirroring the Bubble Tea loop.
func pump(t *testing.T, s *QuizScreen, msg tea.Msg) (*QuizScreen, tea.Cmd) {
	t.Helper()
	updated, cmd := s.Update(msg)
	qs := updated.(*QuizScreen)
	if cmd == nil {
		return qs, nil
	}
	out := cmd()
	if out == nil {
		return qs, nil
	}
	switch out.(type) {
	case router.PushScreenMsg, router.PopScreenMsg, router.PopToRootMsg:
		return qs, cmd
	}
	updated, cmd = qs.Update(out)
	return updated.(*QuizScreen), cmd
}

func TestSubmitCorrectAnswer(t *testing.T) {
	eng := testEngine(t, twoQuestionModule())
	s := openQuiz(t, eng)

	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter})

	if !strings.Contains(s.feedback, "Correct") {
		t.Errorf("feedback = %q", s.feedback)
	}
	points, streak, _ := s.Stats()
	if points != 10 || streak != 1 {
		t.Errorf("stats = %d points, streak %d, want 10/1", points, streak)
	}
}

func TestSubmitWrongAnswerShowsCorrection(t *testing.T) {
	eng := testEngine(t, twoQuestionModule())
	s := openQuiz(t, eng)

	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyDown})
	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter})

	if !strings.Contains(s.feedback, "correct option") {
		t.Errorf("feedback = %q", s.feedback)
	}
	points, streak, _ := s.Stats()
	if points != 0 || streak != 0 {
		t.Errorf("stats = %d points, streak %d, want 0/0", points, streak)
	}
}

func TestEnterAfterAnswerAdvances(t *testing.T) {
	eng := testEngine(t, twoQuestionModule())
	s := openQuiz(t, eng)

	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter}) // answer q0
	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter}) // advance

	if s.state.Cursor.QuestionIndex != 1 {
		t.Errorf("question index = %d, want 1", s.state.Cursor.QuestionIndex)
	}
	if s.choice.Submitted {
		t.Error("fresh question should not be locked")
	}
}

func TestRevisitedQuestionIsLocked(t *testing.T) {
	eng := testEngine(t, twoQuestionModule())
	s := openQuiz(t, eng)

	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter}) // answer q0
	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter}) // advance
	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyLeft})  // back to q0

	if !s.choice.Submitted {
		t.Error("answered question should render locked")
	}
	if !strings.Contains(s.feedback, "Answered earlier") {
		t.Errorf("feedback = %q", s.feedback)
	}
}

func TestFinishPushesCertificate(t *testing.T) {
	eng := testEngine(t, twoQuestionModule())
	s := openQuiz(t, eng)

	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter}) // answer q0
	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter}) // advance
	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyDown})  // choose the right option
	s, _ = pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter}) // answer q1

	// At the last, answered question, enter finishes the module.
	s, cmd := pump(t, s, tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a navigation command after finish")
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Errorf("expected PushScreenMsg, got %T", cmd())
	}
	_, _, completion := s.Stats()
	if completion != 100 {
		t.Errorf("completion = %d, want 100", completion)
	}
}

func TestEscReturnsToOverview(t *testing.T) {
	eng := testEngine(t, twoQuestionModule())
	s := openQuiz(t, eng)

	_, cmd := pump(t, s, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}

	state, err := eng.Resume(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.Cursor.Mode != engine.ModeSelection {
		t.Errorf("cursor mode = %q after esc, want selection", state.Cursor.Mode)
	}
}
