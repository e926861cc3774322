// Package habit persists habits and their per-day completions, and gates
// every read and write on ownership.
package habit

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/streak"
)

// MaxNameLength is the longest accepted habit name, in characters.
const MaxNameLength = 100

var (
	ErrNotFound    = errors.New("habit not found")
	ErrInvalidName = errors.New("invalid habit name")
	ErrAmbiguous   = errors.New("habit name matches more than one habit")
	ErrInvalidDay  = errors.New("completion day is required")
)

// timeLayout is how row timestamps are stored. Fixed-width UTC keeps text
// ordering equal to chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Habit is a named recurring activity owned by one user.
type Habit struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Archived reports whether the habit is hidden from the default listing.
func (h Habit) Archived() bool { return h.ArchivedAt != nil }

// Completion records that a habit was done on one calendar day.
type Completion struct {
	ID        string     `json:"id"`
	HabitID   string     `json:"habit_id"`
	UserID    string     `json:"user_id"`
	Date      daykey.Key `json:"completion_date"`
	CreatedAt time.Time  `json:"created_at"`
}

// Record converts c for the streak calculator.
func (c Completion) Record() streak.Record {
	return streak.Record{HabitID: c.HabitID, Date: c.Date}
}

// ValidateName trims name and checks it is non-empty and at most
// MaxNameLength characters.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return "", fmt.Errorf("%w: %d characters, max %d", ErrInvalidName, n, MaxNameLength)
	}
	return name, nil
}

// Authorize is the ownership check every operation goes through. A habit
// owned by someone else is reported as ErrNotFound.
func Authorize(h Habit, callerID string) error {
	if callerID == "" || h.UserID != callerID {
		return ErrNotFound
	}
	return nil
}

// Store handles habit persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a new habit store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SetClock replaces the source of row timestamps. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

// Add creates a habit for userID.
func (s *Store) Add(userID, name string) (*Habit, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, errors.New("adding habit: user id is required")
	}

	id := uuid.NewString()
	ts := s.stamp()
	_, err = s.db.Exec(
		`INSERT INTO habits (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, name, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("adding habit: %w", err)
	}
	return s.Get(userID, id)
}

const habitColumns = `id, user_id, name, created_at, updated_at, archived_at`

func scanHabit(row interface{ Scan(...any) error }) (*Habit, error) {
	var h Habit
	var created, updated string
	var archived sql.NullString
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &created, &updated, &archived); err != nil {
		return nil, err
	}
	h.CreatedAt, _ = time.Parse(timeLayout, created)
	h.UpdatedAt, _ = time.Parse(timeLayout, updated)
	if archived.Valid && archived.String != "" {
		if t, err := time.Parse(timeLayout, archived.String); err == nil {
			h.ArchivedAt = &t
		}
	}
	return &h, nil
}

// Get returns habit id if userID owns it.
func (s *Store) Get(userID, id string) (*Habit, error) {
	h, err := scanHabit(s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting habit %s: %w", id, err)
	}
	if err := Authorize(*h, userID); err != nil {
		return nil, err
	}
	return h, nil
}

// List returns userID's active habits, newest first.
func (s *Store) List(userID string) ([]Habit, error) {
	return s.list(userID, false)
}

// ListAll is List including archived habits.
func (s *Store) ListAll(userID string) ([]Habit, error) {
	return s.list(userID, true)
}

func (s *Store) list(userID string, includeArchived bool) ([]Habit, error) {
	q := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ?`
	if !includeArchived {
		q += ` AND archived_at IS NULL`
	}
	q += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	defer rows.Close()

	var out []Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning habit: %w", err)
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// Find resolves ref to one of userID's habits. ref may be a full id, an id
// prefix of at least 4 characters, or a case-insensitive name.
func (s *Store) Find(userID, ref string) (*Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	if h, err := s.Get(userID, ref); err == nil {
		return h, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	all, err := s.ListAll(userID)
	if err != nil {
		return nil, err
	}

	var byName, byPrefix []Habit
	for _, h := range all {
		if strings.EqualFold(h.Name, ref) {
			byName = append(byName, h)
		}
		if len(ref) >= 4 && strings.HasPrefix(h.ID, strings.ToLower(ref)) {
			byPrefix = append(byPrefix, h)
		}
	}
	for _, matches := range [][]Habit{byName, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return &matches[0], nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
		}
	}
	return nil, ErrNotFound
}

// Rename changes the name of habit id.
func (s *Store) Rename(userID, id, name string) (*Habit, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(userID, id); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(
		`UPDATE habits SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, s.stamp(), id, userID,
	); err != nil {
		return nil, fmt.Errorf("renaming habit: %w", err)
	}
	return s.Get(userID, id)
}

// Archive hides habit id from List and the today view. Its completions stay.
func (s *Store) Archive(userID, id string) error {
	return s.setArchived(userID, id, true)
}

// Unarchive reverses Archive.
func (s *Store) Unarchive(userID, id string) error {
	return s.setArchived(userID, id, false)
}

func (s *Store) setArchived(userID, id string, archived bool) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}
	var at any
	ts := s.stamp()
	if archived {
		at = ts
	}
	if _, err := s.db.Exec(
		`UPDATE habits SET archived_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		at, ts, id, userID,
	); err != nil {
		return fmt.Errorf("archiving habit: %w", err)
	}
	return nil
}

// Delete removes habit id and all of its completions.
func (s *Store) Delete(userID, id string) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM habit_completions WHERE habit_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("deleting completions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}
	return tx.Commit()
}
