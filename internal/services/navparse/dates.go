package navparse

import (
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/navsync/internal/date"
)

// dateLayouts are tried in order. Day-first numeric layouts precede
// month-first ones, so "03-04-2025" is the 3rd of April.
var dateLayouts = []string{
	// day-month-abbreviation-year
	"2-Jan-2006",
	"2 Jan 2006",
	"2/Jan/2006",
	"2-Jan-06",
	// day-month-numeric-year
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	// month-day-year
	"1/2/2006",
	"1-2-2006",
	// ISO year-month-day
	"2006-1-2",
	"2006/1/2",
}

// fallbackLayouts cover the general shapes seen in spreadsheet exports.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2-Jan-2006 15:04:05",
	"2/1/2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"20060102",
}

// spreadsheetEpoch is day zero of spreadsheet serial dates (1900 date system).
var spreadsheetEpoch = date.New(1899, time.December, 30)

// parseDate reads a NAV date. ok is false when nothing matched.
func parseDate(s string) (date.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return date.Date{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return date.FromTime(t), true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return date.FromTime(t), true
		}
	}

	// Spreadsheet serial day numbers, limited to a plausible range (1954..2119).
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 20000 && f < 80000 {
		return spreadsheetEpoch.Add(int(f)), true
	}

	return date.Date{}, false
}
