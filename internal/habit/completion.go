package habit

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/streak"
)

const completionColumns = `id, habit_id, user_id, completion_date, created_at`

func scanCompletion(row interface{ Scan(...any) error }) (*Completion, error) {
	var c Completion
	var created string
	if err := row.Scan(&c.ID, &c.HabitID, &c.UserID, &c.Date, &created); err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(timeLayout, created)
	return &c, nil
}

// Complete marks habitID done on day. The second result is true when the
// habit was already complete that day, in which case the existing row is
// returned and nothing is written.
func (s *Store) Complete(userID, habitID string, day daykey.Key) (*Completion, bool, error) {
	if day.IsZero() {
		return nil, false, ErrInvalidDay
	}
	if _, err := s.Get(userID, habitID); err != nil {
		return nil, false, err
	}

	res, err := s.db.Exec(
		`INSERT INTO habit_completions (id, habit_id, user_id, completion_date, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, habit_id, completion_date) DO NOTHING`,
		uuid.NewString(), habitID, userID, day, s.stamp(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("completing habit: %w", err)
	}
	n, _ := res.RowsAffected()

	c, err := scanCompletion(s.db.QueryRow(
		`SELECT `+completionColumns+` FROM habit_completions
		 WHERE user_id = ? AND habit_id = ? AND completion_date = ?`,
		userID, habitID, day,
	))
	if err != nil {
		return nil, false, fmt.Errorf("reading completion: %w", err)
	}
	return c, n == 0, nil
}

// Uncomplete removes the completion of habitID on day. It reports whether a
// row was removed; removing a missing completion is not an error.
func (s *Store) Uncomplete(userID, habitID string, day daykey.Key) (bool, error) {
	if day.IsZero() {
		return false, ErrInvalidDay
	}
	if _, err := s.Get(userID, habitID); err != nil {
		return false, err
	}
	res, err := s.db.Exec(
		`DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ? AND completion_date = ?`,
		userID, habitID, day,
	)
	if err != nil {
		return false, fmt.Errorf("removing completion: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CompletionsOn returns userID's completions on day, optionally narrowed to
// one habit. An empty habitID means all habits.
func (s *Store) CompletionsOn(userID string, day daykey.Key, habitID string) ([]Completion, error) {
	if day.IsZero() {
		return nil, ErrInvalidDay
	}
	q := `SELECT ` + completionColumns + ` FROM habit_completions WHERE user_id = ? AND completion_date = ?`
	args := []any{userID, day}
	if habitID != "" {
		q += ` AND habit_id = ?`
		args = append(args, habitID)
	}
	q += ` ORDER BY created_at ASC`
	return s.queryCompletions(q, args...)
}

// History returns every completion of habitID, most recent day first.
func (s *Store) History(userID, habitID string) ([]Completion, error) {
	if _, err := s.Get(userID, habitID); err != nil {
		return nil, err
	}
	return s.queryCompletions(
		`SELECT `+completionColumns+` FROM habit_completions
		 WHERE user_id = ? AND habit_id = ? ORDER BY completion_date DESC`,
		userID, habitID,
	)
}

func (s *Store) queryCompletions(q string, args ...any) ([]Completion, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying completions: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning completion: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Records loads userID's completion history as streak records. An empty
// habitID loads every habit.
func (s *Store) Records(userID, habitID string) ([]streak.Record, error) {
	q := `SELECT habit_id, completion_date FROM habit_completions WHERE user_id = ?`
	args := []any{userID}
	if habitID != "" {
		q += ` AND habit_id = ?`
		args = append(args, habitID)
	}
	q += ` ORDER BY completion_date DESC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	defer rows.Close()

	var out []streak.Record
	for rows.Next() {
		var r streak.Record
		if err := rows.Scan(&r.HabitID, &r.Date); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Streaks computes current and longest streaks per habit as of now. Habits
// with no completions are absent from the result.
func (s *Store) Streaks(userID, habitID string, now time.Time) (map[string]streak.Info, error) {
	records, err := s.Records(userID, habitID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]streak.Info)
	for id, recs := range streak.GroupByHabit(records) {
		out[id] = streak.Compute(recs, now)
	}
	return out, nil
}

// IsNotFound reports whether err means the habit does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
