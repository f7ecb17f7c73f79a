// Package date provides a calendar date with day granularity.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the canonical ISO-8601 representation of a Date.
const Layout = "2006-01-02"

const readLayout = "2006-1-2" // permissive: accepts 2025-7-1

// Date is a calendar day with no time or zone component. The zero value means "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date, so New(2025, 1, 32) is 2025-02-01.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date { return New(t.Date()) }

// Yesterday returns the day before now, evaluated in loc.
func Yesterday(now time.Time, loc *time.Location) Date {
	if loc != nil {
		now = now.In(loc)
	}
	return FromTime(now).Add(-1)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Year returns the calendar year.
func (d Date) Year() int { return d.y }

// Month returns the month of the year.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// ISOWeek returns the ISO 8601 year and week number in which d occurs.
func (d Date) ISOWeek() (year, week int) { return d.Time().ISOWeek() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Add returns d shifted by n days.
func (d Date) Add(n int) Date { return New(d.y, d.m, d.d+n) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.Time().After(x.Time()) }

// Format formats d with a Go time layout.
func (d Date) Format(layout string) string { return d.Time().Format(layout) }

// String returns d in ISO format, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(Layout)
}

// Parse parses an ISO date, leniently accepting single-digit month and day.
func Parse(s string) (Date, error) {
	t, err := time.Parse(readLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", s, Layout, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Range returns every date from 'from' to 'to' inclusive, ascending. It is empty when from is after to.
func Range(from, to Date) []Date {
	var out []Date
	for d := from; !d.After(to); d = d.Add(1) {
		out = append(out, d)
	}
	return out
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = (*Date)(nil)
