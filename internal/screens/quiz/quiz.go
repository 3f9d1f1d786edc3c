// Package quiz steps through a module's questions. Submissions go
// through the progression engine, which scores them and records them
// durably; this screen only renders the outcome.
package quiz

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/router"
	"github.com/defendiq/defendiq/internal/screen"
	"github.com/defendiq/defendiq/internal/screens/certificate"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/ui/components"
	"github.com/defendiq/defendiq/internal/ui/layout"
	"github.com/defendiq/defendiq/internal/ui/theme"
)

type answeredMsg struct {
	res engine.AnswerResult
	err error
}

type steppedMsg struct {
	state engine.State
	err   error
}

type finishedMsg struct {
	res engine.FinishResult
	err error
}

type backMsg struct {
	err error
}

// QuizScreen renders one question at a time with navigation between
// answered questions.
type QuizScreen struct {
	eng      *engine.Engine
	state    engine.State
	choice   components.MultiChoice
	feedback string
	errMsg   string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.StatsProvider = (*QuizScreen)(nil)

// New creates the quiz view positioned at the question in state.
func New(eng *engine.Engine, state engine.State) *QuizScreen {
	s := &QuizScreen{eng: eng}
	s.setState(state)
	return s
}

// setState repositions the view on the cursor's question.
func (s *QuizScreen) setState(state engine.State) {
	s.state = state
	s.feedback = ""

	q := state.Module.Questions[state.Cursor.QuestionIndex]
	s.choice = components.NewMultiChoice(q.Prompt, q.Options, q.CorrectIndex)
	if state.Progress.IsAnswered(state.Cursor.QuestionIndex) {
		s.choice.Lock()
		if state.Progress.IsCorrect(state.Cursor.QuestionIndex) {
			s.feedback = "Answered earlier — you got this one right."
		} else {
			s.feedback = "Answered earlier — the correct option is highlighted."
		}
	}
}

func (s *QuizScreen) Title() string {
	return s.state.Module.Title + " · Quiz"
}

func (s *QuizScreen) Stats() (int, int, int) {
	return s.state.Aggregate.Points, s.state.Aggregate.Streak, s.state.Aggregate.Completion
}

func (s *QuizScreen) atLast() bool {
	return s.state.Cursor.QuestionIndex == len(s.state.Module.Questions)-1
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	if !s.choice.Submitted {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Submit"},
			{Key: "←→", Description: "Question"},
			{Key: "Esc", Description: "Back"},
		}
	}
	if s.atLast() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Finish module"},
			{Key: "←", Description: "Previous"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter/→", Description: "Next"},
		{Key: "←", Description: "Previous"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *QuizScreen) Init() tea.Cmd {
	return nil
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answeredMsg:
		return s.handleAnswered(msg)

	case steppedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.setState(msg.state)
		return s, nil

	case finishedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		next := certificate.New(s.eng, msg.res)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case backMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return s, func() tea.Msg {
			_, err := s.eng.Back(context.Background())
			return backMsg{err: err}
		}

	case "left", "h":
		return s, s.step(s.eng.Retreat)

	case "right", "l":
		return s, s.step(s.eng.Advance)

	case "enter":
		if s.choice.Submitted {
			if s.atLast() {
				return s, s.finish()
			}
			return s, s.step(s.eng.Advance)
		}
		// Fall through to the selector, which records the submission.
		var cmd tea.Cmd
		s.choice, cmd = s.choice.Update(msg)
		if s.choice.Submitted {
			return s, s.answer(s.choice.ChosenIndex)
		}
		return s, cmd

	default:
		var cmd tea.Cmd
		s.choice, cmd = s.choice.Update(msg)
		return s, cmd
	}
}

func (s *QuizScreen) answer(option int) tea.Cmd {
	return func() tea.Msg {
		res, err := s.eng.Answer(context.Background(), option)
		return answeredMsg{res: res, err: err}
	}
}

func (s *QuizScreen) step(op func(context.Context) (engine.State, error)) tea.Cmd {
	return func() tea.Msg {
		state, err := op(context.Background())
		return steppedMsg{state: state, err: err}
	}
}

func (s *QuizScreen) finish() tea.Cmd {
	return func() tea.Msg {
		res, err := s.eng.Finish(context.Background())
		return finishedMsg{res: res, err: err}
	}
}

func (s *QuizScreen) handleAnswered(msg answeredMsg) (screen.Screen, tea.Cmd) {
	if msg.err != nil {
		s.errMsg = msg.err.Error()
		// Unlock so the user can pick a valid option.
		s.choice.Submitted = false
		s.choice.ChosenIndex = -1
		return s, nil
	}

	s.errMsg = ""
	s.state = msg.res.State

	switch {
	case msg.res.Duplicate:
		s.feedback = "Already answered — no change."
	case msg.res.Correct:
		s.feedback = fmt.Sprintf("Correct! +%d points, streak %d.",
			stats.PointsPerCorrect, msg.res.Aggregate.Streak)
	default:
		s.feedback = "Not quite — the correct option is highlighted."
	}
	return s, nil
}

func (s *QuizScreen) View(width, height int) string {
	idx := s.state.Cursor.QuestionIndex
	total := len(s.state.Module.Questions)

	counter := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Question %d of %d", idx+1, total))

	bar := components.NewProgressBar("", float64(s.state.Progress.AnsweredCount())/float64(total), false, 40).View()

	content := counter + "\n" + bar + "\n\n" + s.choice.View()

	if s.feedback != "" {
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if s.choice.IsCorrect() {
			style = lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
		}
		content += "\n" + style.Render(s.feedback)
	}
	if s.choice.Submitted && s.atLast() {
		content += "\n\n" + theme.Hint.Render("press enter to finish the module")
	}
	if s.errMsg != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
