package shared

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod indicates a date string that does not resolve to a calendar month.
var ErrInvalidPeriod = errors.New("invalid period")

// Period identifies a calendar month, normalized to its first day in UTC.
type Period struct {
	t time.Time
}

// NewPeriod builds the Period for the month containing the given time.
func NewPeriod(t time.Time) Period {
	u := t.UTC()
	return Period{t: time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// PeriodOf builds a Period from a year and month.
func PeriodOf(year int, month time.Month) Period {
	return Period{t: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// ResolvePeriod parses an ISO full date (2006-01-02) or year-month (2006-01)
// string into the Period of its calendar month.
func ResolvePeriod(value string) (Period, error) {
	if value == "" {
		return Period{}, fmt.Errorf("%w: empty value", ErrInvalidPeriod)
	}
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return NewPeriod(t), nil
		}
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
}

// Time returns the first day of the month at midnight UTC.
func (p Period) Time() time.Time {
	return p.t
}

// IsZero reports whether the period is the zero value.
func (p Period) IsZero() bool {
	return p.t.IsZero()
}

// Year returns the calendar year.
func (p Period) Year() int {
	return p.t.Year()
}

// Month returns the calendar month.
func (p Period) Month() time.Month {
	return p.t.Month()
}

// AddMonths returns the period shifted by the given number of months.
func (p Period) AddMonths(n int) Period {
	return NewPeriod(p.t.AddDate(0, n, 0))
}

// Equal reports whether both periods identify the same month.
func (p Period) Equal(other Period) bool {
	return p.t.Equal(other.t)
}

// Before reports whether p is an earlier month than other.
func (p Period) Before(other Period) bool {
	return p.t.Before(other.t)
}

// After reports whether p is a later month than other.
func (p Period) After(other Period) bool {
	return p.t.After(other.t)
}

// String renders the canonical 2006-01 form.
func (p Period) String() string {
	return p.t.Format("2006-01")
}

// MarshalJSON encodes the period as its canonical string.
func (p Period) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON decodes a canonical period string.
func (p *Period) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, string(data))
	}
	parsed, err := ResolvePeriod(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
