package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/rnwolfe/habit/internal/config"
	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/habit"
	"github.com/rnwolfe/habit/internal/store"
	"github.com/rnwolfe/habit/internal/ui"
)

// nowFunc is the wall clock. Tests pin it.
var nowFunc = time.Now

// errNotInitialized is returned by commands that need a user id.
var errNotInitialized = errors.New("habit isn't set up yet")

// session bundles what most commands need.
type session struct {
	cfg    *config.Config
	db     *store.DB
	habits *habit.Store
	userID string
	loc    *time.Location
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if cfg.User.ID == "" {
		return nil, fmt.Errorf("%w (run %s)", errNotInitialized, ui.Accent.Render("habit init"))
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := store.Open()
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	hs := habit.NewStore(db.Conn())
	hs.SetClock(func() time.Time { return nowFunc().UTC() })

	return &session{
		cfg:    cfg,
		db:     db,
		habits: hs,
		userID: cfg.User.ID,
		loc:    loc,
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

// now is the current instant in the configured timezone.
func (s *session) now() time.Time {
	return nowFunc().In(s.loc)
}

func (s *session) today() daykey.Key {
	return daykey.FromTime(s.now())
}

// day resolves a --date value. Empty means today.
func (s *session) day(raw string) (daykey.Key, error) {
	if raw == "" {
		return s.today(), nil
	}
	switch raw {
	case "today":
		return s.today(), nil
	case "yesterday":
		return s.today().AddDays(-1), nil
	}
	d, err := daykey.Parse(raw)
	if err != nil {
		return daykey.Key{}, fmt.Errorf("--date %q: %w (want YYYY-MM-DD)", raw, err)
	}
	return d, nil
}
