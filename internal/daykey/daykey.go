// Package daykey identifies calendar days independent of time of day.
//
// A Key is stored and transmitted as "YYYY-MM-DD". Keys are zone-less: the
// only place a time zone matters is FromTime/In, which project an instant onto
// the calendar of a location. Once projected, a Key is never reprojected.
package daykey

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical wire form of a Key.
const Layout = "2006-01-02"

// ErrInvalidDateFormat is returned when text is not a canonical day key.
var ErrInvalidDateFormat = errors.New("invalid date format")

// Key is a calendar day. The zero value is not a valid day.
type Key struct {
	year  int
	month time.Month
	day   int
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Key {
	y, m, d := t.Date()
	return Key{year: y, month: m, day: d}
}

// In returns the calendar day of t as seen from loc. A nil loc means time.Local.
func In(t time.Time, loc *time.Location) Key {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(t.In(loc))
}

// Parse parses a canonical "YYYY-MM-DD" day key.
func Parse(s string) (Key, error) {
	if len(s) != len(Layout) || s[4] != '-' || s[7] != '-' {
		return Key{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDateFormat, s)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDateFormat, s)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// Time returns midnight of k in loc. A nil loc means UTC.
func (k Key) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(k.year, k.month, k.day, 0, 0, 0, 0, loc)
}

// AddDays returns the day n days after k (before, for negative n).
func (k Key) AddDays(n int) Key {
	// UTC noon has no DST transitions to skip over.
	t := time.Date(k.year, k.month, k.day, 12, 0, 0, 0, time.UTC)
	return FromTime(t.AddDate(0, 0, n))
}

// String returns the canonical "YYYY-MM-DD" form.
func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.year, int(k.month), k.day)
}

// Compare returns -1 if a is before b, 0 if they are the same day, +1 otherwise.
func Compare(a, b Key) int {
	switch {
	case a.year != b.year:
		return sign(a.year - b.year)
	case a.month != b.month:
		return sign(int(a.month) - int(b.month))
	default:
		return sign(a.day - b.day)
	}
}

// Before reports whether k is strictly earlier than other.
func (k Key) Before(other Key) bool { return Compare(k, other) < 0 }

// After reports whether k is strictly later than other.
func (k Key) After(other Key) bool { return Compare(k, other) > 0 }

// Equal reports whether k and other are the same day.
func (k Key) Equal(other Key) bool { return k == other }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, fmt.Errorf("%w: zero day key", ErrInvalidDateFormat)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Scan implements sql.Scanner. SQLite returns DATE-ish columns as text.
func (k *Key) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	case time.Time:
		*k = FromTime(v)
		return nil
	case nil:
		return fmt.Errorf("%w: NULL day key", ErrInvalidDateFormat)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidDateFormat, src)
	}
}

// Value implements driver.Valuer.
func (k Key) Value() (driver.Value, error) {
	if k.IsZero() {
		return nil, fmt.Errorf("%w: zero day key", ErrInvalidDateFormat)
	}
	return k.String(), nil
}
