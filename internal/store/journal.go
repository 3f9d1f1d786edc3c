package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AnswerRecord is one journaled answer event.
type AnswerRecord struct {
	ID            int64
	SessionID     string
	ModuleKey     string
	QuestionIndex int
	Correct       bool
	CreatedAt     time.Time
}

// Journal is an append-only log of answer events, kept locally for the
// stats command and offline inspection. It is informational: the
// progress slot, not the journal, is the source of truth for scoring.
type Journal struct {
	db *sql.DB
}

// Append records an answer event.
func (j *Journal) Append(ctx context.Context, rec AnswerRecord) error {
	correct := 0
	if rec.Correct {
		correct = 1
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO answer_journal (session_id, module_key, question_index, correct, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.ModuleKey, rec.QuestionIndex, correct,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append answer event: %w", err)
	}
	return nil
}

// ModuleAccuracy returns answered and correct counts for a module.
func (j *Journal) ModuleAccuracy(ctx context.Context, moduleKey string) (answered, correct int, err error) {
	err = j.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(correct), 0) FROM answer_journal WHERE module_key = ?`,
		moduleKey,
	).Scan(&answered, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("module accuracy for %q: %w", moduleKey, err)
	}
	return answered, correct, nil
}

// Totals returns overall answered and correct counts across modules.
func (j *Journal) Totals(ctx context.Context) (answered, correct int, err error) {
	err = j.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(correct), 0) FROM answer_journal`,
	).Scan(&answered, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("journal totals: %w", err)
	}
	return answered, correct, nil
}
