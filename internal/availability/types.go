package availability

import (
	"fmt"
	"strings"
	"time"
)

// Day is a weekday carried by name ("Monday") on the wire.
type Day time.Weekday

var dayNames = map[string]Day{
	"sunday":    Day(time.Sunday),
	"monday":    Day(time.Monday),
	"tuesday":   Day(time.Tuesday),
	"wednesday": Day(time.Wednesday),
	"thursday":  Day(time.Thursday),
	"friday":    Day(time.Friday),
	"saturday":  Day(time.Saturday),
}

// ParseDay accepts full weekday names or their three letter abbreviations, case-insensitive.
func ParseDay(s string) (Day, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := dayNames[key]; ok {
		return d, nil
	}
	if len(key) == 3 {
		for name, d := range dayNames {
			if strings.HasPrefix(name, key) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid weekday: %q", s)
}

func (d Day) String() string { return time.Weekday(d).String() }

func (d Day) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Day) UnmarshalText(b []byte) error {
	v, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// WeekdaysOnly is the Monday to Friday set recruiters schedule against by default.
var WeekdaysOnly = []Day{
	Day(time.Monday), Day(time.Tuesday), Day(time.Wednesday), Day(time.Thursday), Day(time.Friday),
}

// Clock is a time of day in minutes after midnight.
type Clock int

const minutesPerDay = 24 * 60

// ParseClock reads "HH:MM", also accepting the "HH:MM:SS[.ffffff]" form postgres
// returns for TIME columns. Anything else, including trailing text, is rejected.
func ParseClock(s string) (Clock, error) {
	layout := "15:04"
	switch {
	case len(s) == 5:
	case len(s) >= 8 && s[5] == ':':
		layout = "15:04:05.999999"
	default:
		return 0, fmt.Errorf("invalid time string: %s", s)
	}
	if s[2] != ':' {
		return 0, fmt.Errorf("invalid time string: %s", s)
	}
	tt, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time string: %s", s)
	}
	return Clock(tt.Hour()*60 + tt.Minute()), nil
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60) }

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Date is a calendar date with no zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day) }

func (d Date) IsZero() bool { return d == Date{} }

// UTC returns midnight of d in UTC, the form the date is stored in.
func (d Date) UTC() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// At returns the instant of clock c on date d in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, int(c)/60, int(c)%60, 0, 0, loc)
}

func (d Date) AddDays(n int) Date { return DateOf(d.UTC().AddDate(0, 0, n)) }

func (d Date) Weekday() time.Weekday { return d.UTC().Weekday() }

func (d Date) Compare(o Date) int { return d.UTC().Compare(o.UTC()) }

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
