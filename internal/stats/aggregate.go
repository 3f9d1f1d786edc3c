// Package stats maintains the derived summary shown to the user:
// points, streak, completion percentage, and the badge set. Points and
// streak are accumulated by event application; completion is the only
// recomputed field, derived from the badge count.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/defendiq/defendiq/internal/persist"
)

// Scoring rules.
const (
	PointsPerCorrect = 10
	PointsPerFinish  = 50
)

// Aggregate is the persisted stats document.
type Aggregate struct {
	Points     int      `json:"points"`
	Streak     int      `json:"streak"`
	Completion int      `json:"completion"`
	Badges     []string `json:"badges"`
}

// HasBadge reports whether the module title already earned its badge.
func (a Aggregate) HasBadge(title string) bool {
	return slices.Contains(a.Badges, title)
}

func (a Aggregate) clone() Aggregate {
	a.Badges = slices.Clone(a.Badges)
	return a
}

// Service applies scoring events to the aggregate and persists it
// through the same two-tier policy as module progress.
type Service struct {
	mu           sync.Mutex
	durable      *persist.DurableStore
	totalModules int
	agg          Aggregate
	loaded       bool
}

// NewService creates a Service. totalModules is the catalog size used
// for the completion percentage.
func NewService(durable *persist.DurableStore, totalModules int) *Service {
	return &Service{durable: durable, totalModules: totalModules}
}

// load populates the aggregate once. Callers must hold s.mu.
func (s *Service) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	s.agg = Aggregate{}

	data, err := s.durable.Load(ctx, persist.SlotStats)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if data != nil {
		if err := json.Unmarshal(data, &s.agg); err != nil {
			return fmt.Errorf("decode stats: %w", err)
		}
	}
	// Completion depends on the catalog size, which may have changed
	// since the aggregate was written.
	s.agg.Completion = completion(len(s.agg.Badges), s.totalModules)
	s.loaded = true
	return nil
}

// Aggregate returns the current aggregate.
func (s *Service) Aggregate(ctx context.Context) (Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return Aggregate{}, err
	}
	return s.agg.clone(), nil
}

// OnAnswer applies a question-answered event: a correct answer adds
// PointsPerCorrect and extends the streak; a wrong answer leaves points
// untouched and resets the streak to zero.
func (s *Service) OnAnswer(ctx context.Context, correct bool) (Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return Aggregate{}, err
	}

	updated := s.agg.clone()
	if correct {
		updated.Points += PointsPerCorrect
		updated.Streak++
	} else {
		updated.Streak = 0
	}

	if err := s.save(ctx, updated); err != nil {
		return Aggregate{}, err
	}
	return updated.clone(), nil
}

// OnModuleFinish applies a module-finished event. The badge push is
// idempotent: finishing an already-badged module awards nothing. The
// second return reports whether a new badge was awarded.
func (s *Service) OnModuleFinish(ctx context.Context, moduleTitle string) (Aggregate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return Aggregate{}, false, err
	}

	if s.agg.HasBadge(moduleTitle) {
		return s.agg.clone(), false, nil
	}

	updated := s.agg.clone()
	updated.Badges = append(updated.Badges, moduleTitle)
	updated.Points += PointsPerFinish
	updated.Streak++
	updated.Completion = completion(len(updated.Badges), s.totalModules)

	if err := s.save(ctx, updated); err != nil {
		return Aggregate{}, false, err
	}
	return updated.clone(), true, nil
}

// save persists the aggregate and commits it to memory. Callers must
// hold s.mu.
func (s *Service) save(ctx context.Context, updated Aggregate) error {
	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := s.durable.Save(ctx, persist.SlotStats, data); err != nil {
		return err
	}
	s.agg = updated
	return nil
}

// Invalidate drops the cached aggregate so the next read repopulates
// it from the durable store. Called on explicit reset.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agg = Aggregate{}
	s.loaded = false
}

// completion returns round(100 × badges / total) clamped to [0, 100].
func completion(badges, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(badges) / float64(total)))
	return min(max(pct, 0), 100)
}
