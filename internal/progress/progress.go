// Package progress tracks which quiz questions have been answered per
// module. The answered set is the idempotence boundary for scoring: a
// question index enters it at most once, so duplicate answer events can
// never re-award points.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/defendiq/defendiq/internal/persist"
)

// ErrAlreadyAnswered indicates the question index is already in the
// answered set. Callers treat this as a benign no-op, not a failure,
// so duplicate UI events are tolerated.
var ErrAlreadyAnswered = errors.New("question already answered")

// ModuleProgress records answered and correctly-answered question
// indices for one module. Both sets grow monotonically; indices are
// kept sorted for stable serialization.
type ModuleProgress struct {
	Answered []int `json:"answered"`
	Correct  []int `json:"correct"`
}

// IsAnswered reports whether question index idx has been answered.
func (p ModuleProgress) IsAnswered(idx int) bool {
	return slices.Contains(p.Answered, idx)
}

// IsCorrect reports whether question index idx was answered correctly.
func (p ModuleProgress) IsCorrect(idx int) bool {
	return slices.Contains(p.Correct, idx)
}

// AnsweredCount returns the number of answered questions.
func (p ModuleProgress) AnsweredCount() int {
	return len(p.Answered)
}

func (p ModuleProgress) clone() ModuleProgress {
	return ModuleProgress{
		Answered: slices.Clone(p.Answered),
		Correct:  slices.Clone(p.Correct),
	}
}

// Store is the durable per-module progress record. The in-memory cache
// is populated from the durable store at most once per process lifetime
// unless explicitly invalidated by a reset.
type Store struct {
	mu      sync.Mutex
	durable *persist.DurableStore
	cache   map[string]ModuleProgress
	loaded  bool
}

// NewStore creates a Store over the given durable persistence.
func NewStore(durable *persist.DurableStore) *Store {
	return &Store{durable: durable}
}

// load populates the cache once. Callers must hold s.mu.
func (s *Store) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	s.cache = make(map[string]ModuleProgress)

	data, err := s.durable.Load(ctx, persist.SlotProgress)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if data != nil {
		if err := json.Unmarshal(data, &s.cache); err != nil {
			return fmt.Errorf("decode progress: %w", err)
		}
	}
	s.loaded = true
	return nil
}

// Get returns the progress for moduleKey. A module with no recorded
// answers yields empty progress, never a not-found error.
func (s *Store) Get(ctx context.Context, moduleKey string) (ModuleProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return ModuleProgress{}, err
	}
	return s.cache[moduleKey].clone(), nil
}

// All returns the full per-module progress map.
func (s *Store) All(ctx context.Context) (map[string]ModuleProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]ModuleProgress, len(s.cache))
	for k, v := range s.cache {
		out[k] = v.clone()
	}
	return out, nil
}

// RecordAnswer adds questionIndex to the answered set (and to the
// correct set when wasCorrect) and persists the updated map. Returns
// ErrAlreadyAnswered without mutating anything if the index is already
// recorded. The persisted document and cache are updated together, so
// a persistence failure leaves no partial mutation behind.
func (s *Store) RecordAnswer(ctx context.Context, moduleKey string, questionIndex int, wasCorrect bool) (ModuleProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return ModuleProgress{}, err
	}

	current := s.cache[moduleKey]
	if current.IsAnswered(questionIndex) {
		return current.clone(), ErrAlreadyAnswered
	}

	updated := current.clone()
	updated.Answered = append(updated.Answered, questionIndex)
	slices.Sort(updated.Answered)
	if wasCorrect {
		updated.Correct = append(updated.Correct, questionIndex)
		slices.Sort(updated.Correct)
	}

	next := make(map[string]ModuleProgress, len(s.cache)+1)
	for k, v := range s.cache {
		next[k] = v
	}
	next[moduleKey] = updated

	data, err := json.Marshal(next)
	if err != nil {
		return ModuleProgress{}, fmt.Errorf("encode progress: %w", err)
	}
	if err := s.durable.Save(ctx, persist.SlotProgress, data); err != nil {
		return ModuleProgress{}, err
	}

	s.cache = next
	return updated.clone(), nil
}

// Invalidate drops the cache so the next read repopulates it from the
// durable store. Called on explicit reset.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.loaded = false
}
