package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSlotReadMissing(t *testing.T) {
	s := openTestStore(t)
	data, err := s.Slots().Read(context.Background(), "stats")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data != nil {
		t.Errorf("missing slot returned %q, want nil", data)
	}
}

func TestSlotWriteReadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	slots := s.Slots()

	if err := slots.Write(ctx, "stats", []byte(`{"points":10}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := slots.Read(ctx, "stats")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != `{"points":10}` {
		t.Errorf("Read = %q", data)
	}

	// Upsert replaces.
	if err := slots.Write(ctx, "stats", []byte(`{"points":20}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err = slots.Read(ctx, "stats")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != `{"points":20}` {
		t.Errorf("Read after upsert = %q", data)
	}
}

func TestSlotDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	slots := s.Slots()

	if err := slots.Delete(ctx, "never-written"); err != nil {
		t.Errorf("Delete missing slot: %v", err)
	}

	if err := slots.Write(ctx, "session", []byte(`{}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := slots.Delete(ctx, "session"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	data, err := slots.Read(ctx, "session")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data != nil {
		t.Errorf("deleted slot still present: %q", data)
	}
}

func TestJournalCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	j := s.Journal()

	records := []AnswerRecord{
		{SessionID: "s1", ModuleKey: "phishing", QuestionIndex: 0, Correct: true},
		{SessionID: "s1", ModuleKey: "phishing", QuestionIndex: 1, Correct: false},
		{SessionID: "s1", ModuleKey: "password", QuestionIndex: 0, Correct: true},
	}
	for _, rec := range records {
		if err := j.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	answered, correct, err := j.ModuleAccuracy(ctx, "phishing")
	if err != nil {
		t.Fatalf("ModuleAccuracy: %v", err)
	}
	if answered != 2 || correct != 1 {
		t.Errorf("phishing accuracy = %d/%d, want 1/2", correct, answered)
	}

	answered, correct, err = j.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if answered != 3 || correct != 2 {
		t.Errorf("totals = %d/%d, want 2/3", correct, answered)
	}
}

func TestWipe(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Slots().Write(ctx, "progress", []byte(`{}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Journal().Append(ctx, AnswerRecord{SessionID: "s1", ModuleKey: "social"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := s.Wipe(ctx); err != nil {
		t.Fatalf("Wipe: %v", err)
	}

	data, err := s.Slots().Read(ctx, "progress")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data != nil {
		t.Error("slot survived wipe")
	}
	answered, _, err := s.Journal().Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if answered != 0 {
		t.Errorf("journal survived wipe: %d rows", answered)
	}
}
