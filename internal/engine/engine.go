// Package engine drives the module progression state machine: selecting
// a module, reading its material, stepping through its quiz, and
// finishing into a certificate. All transitions are serialized through
// a single mutex, and every durable write completes before the next
// transition is admitted, so concurrent UI events can never interleave
// persistence.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/defendiq/defendiq/internal/catalog"
	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/progress"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/store"
)

// State is a consistent snapshot handed to the UI after a transition.
// Module is the zero value when no module is selected.
type State struct {
	Cursor    Cursor
	Module    catalog.Module
	Progress  progress.ModuleProgress
	Aggregate stats.Aggregate
}

// AnswerResult reports the outcome of an answer submission.
type AnswerResult struct {
	State
	Correct      bool
	CorrectIndex int
	// Duplicate is true when the question was already answered; the
	// submission was ignored and nothing changed.
	Duplicate bool
}

// FinishResult reports the outcome of finishing a module.
type FinishResult struct {
	State
	// Awarded is false when the module's badge had already been earned
	// in an earlier run; a fresh certificate is still issued.
	Awarded     bool
	Certificate Certificate
}

// Engine owns the session cursor and coordinates the progress store and
// stats service.
type Engine struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	progress *progress.Store
	stats    *stats.Service
	durable  *persist.DurableStore
	journal  *store.Journal

	sessionID string
	now       func() time.Time
	warnf     func(format string, args ...any)

	cursor Cursor
	loaded bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal attaches the local answer journal. Journal writes are
// best-effort and never fail a transition.
func WithJournal(j *store.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithClock overrides the certificate timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the given catalog and state services.
func New(cat *catalog.Catalog, prog *progress.Store, st *stats.Service, durable *persist.DurableStore, opts ...Option) *Engine {
	e := &Engine{
		catalog:   cat,
		progress:  prog,
		stats:     st,
		durable:   durable,
		sessionID: uuid.NewString(),
		now:       time.Now,
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// load restores the cursor from the session slot once per process. A
// cursor pointing at a module the catalog no longer has collapses to
// the selection view. Callers must hold e.mu.
func (e *Engine) load(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	e.cursor = Cursor{Mode: ModeSelection}

	data, err := e.durable.Load(ctx, persist.SlotSession)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if data != nil {
		var c Cursor
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if m, ok := e.catalog.Module(c.ModuleKey); ok {
			e.cursor = c.normalize(len(m.Questions))
		}
	}
	e.loaded = true
	return nil
}

// save persists the cursor and commits it to memory. Callers must hold
// e.mu.
func (e *Engine) save(ctx context.Context, c Cursor) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := e.durable.Save(ctx, persist.SlotSession, data); err != nil {
		return err
	}
	e.cursor = c
	return nil
}

// state builds a snapshot for the current cursor. Callers must hold
// e.mu.
func (e *Engine) state(ctx context.Context) (State, error) {
	s := State{Cursor: e.cursor}

	if e.cursor.HasModule() {
		m, ok := e.catalog.Module(e.cursor.ModuleKey)
		if !ok {
			return State{}, &ErrUnknownModule{Key: e.cursor.ModuleKey}
		}
		s.Module = m

		p, err := e.progress.Get(ctx, e.cursor.ModuleKey)
		if err != nil {
			return State{}, err
		}
		s.Progress = p
	}

	agg, err := e.stats.Aggregate(ctx)
	if err != nil {
		return State{}, err
	}
	s.Aggregate = agg
	return s, nil
}

// Catalog returns the module catalog the engine was built over.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// AllProgress returns the per-module progress map, for list views.
func (e *Engine) AllProgress(ctx context.Context) (map[string]progress.ModuleProgress, error) {
	return e.progress.All(ctx)
}

// Resume restores the last session position and returns it. Called once
// at startup; later calls return the live state.
func (e *Engine) Resume(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return State{}, err
	}
	return e.state(ctx)
}

// SelectModule opens the overview for key. Unknown keys are rejected
// without any state change.
func (e *Engine) SelectModule(ctx context.Context, key string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return State{}, err
	}

	if !e.catalog.Has(key) {
		return State{}, &ErrUnknownModule{Key: key}
	}
	if err := e.save(ctx, Cursor{ModuleKey: key, Mode: ModeSelection}); err != nil {
		return State{}, err
	}
	return e.state(ctx)
}

// OpenMaterial enters the selected module's learning material.
func (e *Engine) OpenMaterial(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return State{}, err
	}

	if !e.cursor.HasModule() {
		return State{}, &ErrInvalidTransition{Op: "open material", Mode: e.cursor.Mode}
	}
	c := e.cursor
	c.Mode = ModeMaterial
	c.Certificate = nil
	if err := e.save(ctx, c); err != nil {
		return State{}, err
	}
	return e.state(ctx)
}

// OpenQuiz enters the selected module's quiz, positioned at the first
// unanswered question (or the last question when all are answered).
func (e *Engine) OpenQuiz(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return State{}, err
	}

	m, ok := e.catalog.Module(e.cursor.ModuleKey)
	if !ok || !e.cursor.HasModule() {
		return State{}, &ErrInvalidTransition{Op: "open quiz", Mode: e.cursor.Mode}
	}

	p, err := e.progress.Get(ctx, e.cursor.ModuleKey)
	if err != nil {
		return State{}, err
	}
	idx := len(m.Questions) - 1
	for i := range m.Questions {
		if !p.IsAnswered(i) {
			idx = i
			break
		}
	}

	c := e.cursor
	c.Mode = ModeQuiz
	c.QuestionIndex = idx
	c.Certificate = nil
	if err := e.save(ctx, c); err != nil {
		return State{}, err
	}
	return e.state(ctx)
}

// Back steps one level out: material or quiz returns to the module
// overview, and the overview returns to the module list. Already at the
// module list, it is a no-op.
func (e *Engine) Back(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return State{}, err
	}

	c := e.cursor
	switch {
	case c.Mode == ModeMaterial || c.Mode == ModeQuiz || c.Mode == ModeCertificate:
		c.Mode = ModeSelection
		c.QuestionIndex = 0
		c.Certificate = nil
	case c.HasModule():
		c = Cursor{Mode: ModeSelection}
	default:
		return e.state(ctx)
	}

	if err := e.save(ctx, c); err != nil {
		return State{}, err
	}
	return e.state(ctx)
}

// Answer submits an option for the current quiz question. A question
// already in the answered set is left untouched and reported as a
// duplicate; it awards nothing and resets nothing.
func (e *Engine) Answer(ctx context.Context, option int) (AnswerResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return AnswerResult{}, err
	}

	if e.cursor.Mode != ModeQuiz {
		return AnswerResult{}, &ErrInvalidTransition{Op: "answer", Mode: e.cursor.Mode}
	}
	m, ok := e.catalog.Module(e.cursor.ModuleKey)
	if !ok {
		return AnswerResult{}, &ErrUnknownModule{Key: e.cursor.ModuleKey}
	}
	q := m.Questions[e.cursor.QuestionIndex]
	if option < 0 || option >= len(q.Options) {
		return AnswerResult{}, &ErrInvalidOption{Option: option, Options: len(q.Options)}
	}

	correct := option == q.CorrectIndex

	_, err := e.progress.RecordAnswer(ctx, e.cursor.ModuleKey, e.cursor.QuestionIndex, correct)
	if errors.Is(err, progress.ErrAlreadyAnswered) {
		s, serr := e.state(ctx)
		if serr != nil {
			return AnswerResult{}, serr
		}
		return AnswerResult{State: s, CorrectIndex: q.CorrectIndex, Duplicate: true}, nil
	}
	if err != nil {
		return AnswerResult{}, err
	}

	if _, err := e.stats.OnAnswer(ctx, correct); err != nil {
		return AnswerResult{}, err
	}

	if e.journal != nil {
		jerr := e.journal.Append(ctx, store.AnswerRecord{
			SessionID:     e.sessionID,
			ModuleKey:     e.cursor.ModuleKey,
			QuestionIndex: e.cursor.QuestionIndex,
			Correct:       correct,
		})
		if jerr != nil {
			e.warnf("answer journal write failed: %v", jerr)
		}
	}

	s, err := e.state(ctx)
	if err != nil {
		return AnswerResult{}, err
	}
	return AnswerResult{State: s, Correct: correct, CorrectIndex: q.CorrectIndex}, nil
}

// Advance moves to the next question. At the last question it is a
// no-op; leaving the quiz goes through Finish.
func (e *Engine) Advance(ctx context.Context) (State, error) {
	return e.step(ctx, "advance", +1)
}

// Retreat moves to the previous question. At the first question it is a
// no-op.
func (e *Engine) Retreat(ctx context.Context) (State, error) {
	return e.step(ctx, "retreat", -1)
}

func (e *Engine) step(ctx context.Context, op string, delta int) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return State{}, err
	}

	if e.cursor.Mode != ModeQuiz {
		return State{}, &ErrInvalidTransition{Op: op, Mode: e.cursor.Mode}
	}
	m, ok := e.catalog.Module(e.cursor.ModuleKey)
	if !ok {
		return State{}, &ErrUnknownModule{Key: e.cursor.ModuleKey}
	}

	idx := e.cursor.QuestionIndex + delta
	if idx < 0 || idx >= len(m.Questions) {
		return e.state(ctx)
	}

	c := e.cursor
	c.QuestionIndex = idx
	if err := e.save(ctx, c); err != nil {
		return State{}, err
	}
	return e.state(ctx)
}

// Finish completes the quiz from its last question, applies the
// module-finished scoring event, and issues a certificate. The badge
// and its points are awarded at most once per module; re-finishing
// still issues a fresh certificate.
func (e *Engine) Finish(ctx context.Context) (FinishResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return FinishResult{}, err
	}

	if e.cursor.Mode != ModeQuiz {
		return FinishResult{}, &ErrInvalidTransition{Op: "finish", Mode: e.cursor.Mode}
	}
	m, ok := e.catalog.Module(e.cursor.ModuleKey)
	if !ok {
		return FinishResult{}, &ErrUnknownModule{Key: e.cursor.ModuleKey}
	}
	last := len(m.Questions) - 1
	p, err := e.progress.Get(ctx, e.cursor.ModuleKey)
	if err != nil {
		return FinishResult{}, err
	}
	if e.cursor.QuestionIndex != last || !p.IsAnswered(last) {
		return FinishResult{}, &ErrInvalidTransition{Op: "finish", Mode: e.cursor.Mode}
	}

	_, awarded, err := e.stats.OnModuleFinish(ctx, m.Title)
	if err != nil {
		return FinishResult{}, err
	}

	cert := NewCertificate(m.Title, e.now())
	c := e.cursor
	c.Mode = ModeCertificate
	c.Certificate = &cert
	if err := e.save(ctx, c); err != nil {
		return FinishResult{}, err
	}

	s, err := e.state(ctx)
	if err != nil {
		return FinishResult{}, err
	}
	return FinishResult{State: s, Awarded: awarded, Certificate: cert}, nil
}

// Close dismisses the certificate and returns to the module list.
func (e *Engine) Close(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return State{}, err
	}

	if e.cursor.Mode != ModeCertificate {
		return State{}, &ErrInvalidTransition{Op: "close", Mode: e.cursor.Mode}
	}
	if err := e.save(ctx, Cursor{Mode: ModeSelection}); err != nil {
		return State{}, err
	}
	return e.state(ctx)
}

// Reset wipes all persisted state (progress, stats, session) and drops
// every in-memory cache, returning the zeroth state.
func (e *Engine) Reset(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.durable.Clear(ctx); err != nil {
		return State{}, err
	}
	e.progress.Invalidate()
	e.stats.Invalidate()
	e.cursor = Cursor{Mode: ModeSelection}
	e.loaded = true
	return e.state(ctx)
}
