// Package streak derives consecutive-day streaks from habit completion days.
//
// Everything here is a pure function over a caller-supplied snapshot of
// records: nothing is cached, persisted, or shared between calls.
package streak

import (
	"slices"
	"time"

	"github.com/rnwolfe/habit/internal/daykey"
)

// Record says habit HabitID was done on calendar day Date.
type Record struct {
	HabitID string
	Date    daykey.Key
}

// Info holds current and longest streak values.
type Info struct {
	Current int
	Longest int
}

// Calculate returns the current streak for one habit's completion records.
//
// today is the calendar day of now in now's location. The walk starts at
// today when today is completed, otherwise at yesterday, so a streak is not
// broken just because today has not been checked off yet. It then counts
// backward one day at a time and stops at the first missing day. Records
// dated after today are ignored; duplicate days count once.
func Calculate(records []Record, now time.Time) int {
	if len(records) == 0 {
		return 0
	}

	today := daykey.FromTime(now)
	days := distinctDesc(records, today)
	if len(days) == 0 {
		return 0
	}

	expected := today
	if days[0] != today {
		expected = today.AddDays(-1)
	}

	var current int
	for _, d := range days {
		if d != expected {
			// days is strictly descending and never after expected here,
			// so anything else is a gap.
			break
		}
		current++
		expected = expected.AddDays(-1)
	}
	return current
}

// Current is Calculate measured against the current instant.
func Current(records []Record) int {
	return Calculate(records, time.Now())
}

// Longest returns the longest run of consecutive days anywhere in records,
// ignoring days after now's calendar day.
func Longest(records []Record, now time.Time) int {
	days := distinctDesc(records, daykey.FromTime(now))
	if len(days) == 0 {
		return 0
	}

	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1].AddDays(-1) {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}

// Compute returns both the current and longest streak.
func Compute(records []Record, now time.Time) Info {
	info := Info{
		Current: Calculate(records, now),
		Longest: Longest(records, now),
	}
	if info.Current > info.Longest {
		info.Longest = info.Current
	}
	return info
}

// IsCompletedOnDate reports whether any record falls on date's calendar day.
func IsCompletedOnDate(records []Record, date time.Time) bool {
	day := daykey.FromTime(date)
	for _, r := range records {
		if r.Date == day {
			return true
		}
	}
	return false
}

// Dates builds records for habitID from raw "YYYY-MM-DD" strings.
func Dates(habitID string, raw []string) ([]Record, error) {
	records := make([]Record, 0, len(raw))
	for _, s := range raw {
		d, err := daykey.Parse(s)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{HabitID: habitID, Date: d})
	}
	return records, nil
}

// GroupByHabit splits a mixed record list into per-habit lists, preserving
// input order within each habit.
func GroupByHabit(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.HabitID] = append(out[r.HabitID], r)
	}
	return out
}

// distinctDesc returns the distinct days on or before limit, most recent first.
// The input slice is not modified.
func distinctDesc(records []Record, limit daykey.Key) []daykey.Key {
	seen := make(map[daykey.Key]struct{}, len(records))
	days := make([]daykey.Key, 0, len(records))
	for _, r := range records {
		if r.Date.IsZero() || r.Date.After(limit) {
			continue
		}
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		days = append(days, r.Date)
	}
	slices.SortFunc(days, func(a, b daykey.Key) int {
		return daykey.Compare(b, a)
	})
	return days
}
