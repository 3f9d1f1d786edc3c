package progress

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/store"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewStore(persist.New(nil, st.Slots()))
}

func TestGetUnrecordedModule(t *testing.T) {
	s := testStore(t)
	p, err := s.Get(context.Background(), "phishing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.AnsweredCount() != 0 {
		t.Errorf("fresh module AnsweredCount = %d, want 0", p.AnsweredCount())
	}
}

func TestRecordAnswer(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p, err := s.RecordAnswer(ctx, "phishing", 0, true)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if !p.IsAnswered(0) || !p.IsCorrect(0) {
		t.Errorf("progress = %+v, want q0 answered and correct", p)
	}

	p, err = s.RecordAnswer(ctx, "phishing", 1, false)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if !p.IsAnswered(1) || p.IsCorrect(1) {
		t.Errorf("progress = %+v, want q1 answered but not correct", p)
	}
}

func TestRecordAnswerIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.RecordAnswer(ctx, "phishing", 3, true)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	// Answering the same question again must not change anything,
	// even with a different correctness outcome.
	second, err := s.RecordAnswer(ctx, "phishing", 3, false)
	if !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("err = %v, want ErrAlreadyAnswered", err)
	}
	if len(second.Answered) != len(first.Answered) || len(second.Correct) != len(first.Correct) {
		t.Errorf("duplicate answer mutated progress: %+v vs %+v", second, first)
	}
}

func TestProgressSurvivesReload(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	s1 := NewStore(persist.New(nil, st.Slots()))
	if _, err := s1.RecordAnswer(ctx, "social", 2, true); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	// Fresh store over the same database simulates a process restart.
	s2 := NewStore(persist.New(nil, st.Slots()))
	p, err := s2.Get(ctx, "social")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !p.IsAnswered(2) || !p.IsCorrect(2) {
		t.Errorf("reloaded progress = %+v", p)
	}
}

func TestAll(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.RecordAnswer(ctx, "phishing", 0, true); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordAnswer(ctx, "password", 5, false); err != nil {
		t.Fatal(err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("All has %d modules, want 2", len(all))
	}
	if !all["phishing"].IsAnswered(0) {
		t.Error("phishing q0 missing from All")
	}
}

func TestInvalidateDropsCache(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.RecordAnswer(ctx, "culture", 1, true); err != nil {
		t.Fatal(err)
	}
	s.Invalidate()

	// After invalidation the cache repopulates from the durable store,
	// which still holds the recorded answer.
	p, err := s.Get(ctx, "culture")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !p.IsAnswered(1) {
		t.Errorf("progress lost after invalidate: %+v", p)
	}
}
