package habit

import (
	"fmt"
	"time"
)

// SnapshotVersion is bumped when the Snapshot layout changes incompatibly.
const SnapshotVersion = 1

// Snapshot is a portable copy of one user's habits and completions.
type Snapshot struct {
	Version     int          `json:"version"`
	ExportedAt  time.Time    `json:"exported_at"`
	UserID      string       `json:"user_id"`
	Habits      []Habit      `json:"habits"`
	Completions []Completion `json:"completions"`
}

// RestoreResult counts rows written by Restore.
type RestoreResult struct {
	Habits      int
	Completions int
	// Skipped counts rows whose id already belongs to another user.
	Skipped int
}

// Snapshot collects everything userID owns, archived habits included.
func (s *Store) Snapshot(userID string) (*Snapshot, error) {
	habits, err := s.ListAll(userID)
	if err != nil {
		return nil, err
	}
	completions, err := s.queryCompletions(
		`SELECT `+completionColumns+` FROM habit_completions
		 WHERE user_id = ? ORDER BY habit_id, completion_date`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	if habits == nil {
		habits = []Habit{}
	}
	if completions == nil {
		completions = []Completion{}
	}
	return &Snapshot{
		Version:     SnapshotVersion,
		ExportedAt:  s.now().UTC(),
		UserID:      userID,
		Habits:      habits,
		Completions: completions,
	}, nil
}

// Restore merges snap into userID's data. Every restored row is owned by
// userID regardless of snap.UserID. Existing habits are renamed to match;
// completions already present are left alone.
func (s *Store) Restore(userID string, snap *Snapshot) (RestoreResult, error) {
	var res RestoreResult
	if snap == nil {
		return res, nil
	}
	if snap.Version > SnapshotVersion {
		return res, fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, SnapshotVersion)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return res, fmt.Errorf("restoring: %w", err)
	}
	defer tx.Rollback()

	restored := make(map[string]bool, len(snap.Habits))
	for _, h := range snap.Habits {
		name, err := ValidateName(h.Name)
		if err != nil {
			return res, fmt.Errorf("habit %s: %w", h.ID, err)
		}
		created := h.CreatedAt.UTC().Format(timeLayout)
		updated := h.UpdatedAt.UTC().Format(timeLayout)
		var archived any
		if h.ArchivedAt != nil {
			archived = h.ArchivedAt.UTC().Format(timeLayout)
		}

		r, err := tx.Exec(
			`INSERT INTO habits (id, user_id, name, created_at, updated_at, archived_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				updated_at = excluded.updated_at,
				archived_at = excluded.archived_at
			 WHERE habits.user_id = excluded.user_id`,
			h.ID, userID, name, created, updated, archived,
		)
		if err != nil {
			return res, fmt.Errorf("restoring habit %s: %w", h.ID, err)
		}
		if n, _ := r.RowsAffected(); n == 0 {
			res.Skipped++
			continue
		}
		restored[h.ID] = true
		res.Habits++
	}

	for _, c := range snap.Completions {
		if !restored[c.HabitID] || c.Date.IsZero() {
			res.Skipped++
			continue
		}
		r, err := tx.Exec(
			`INSERT INTO habit_completions (id, habit_id, user_id, completion_date, created_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT DO NOTHING`,
			c.ID, c.HabitID, userID, c.Date, c.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return res, fmt.Errorf("restoring completion %s: %w", c.ID, err)
		}
		if n, _ := r.RowsAffected(); n > 0 {
			res.Completions++
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("restoring: %w", err)
	}
	return res, nil
}
