package navparse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/navsync/internal/date"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"18-Sep-2025", "2025-09-18"},
		{"8-SEP-2025", "2025-09-08"},
		{"18 Sep 2025", "2025-09-18"},
		{"18-Sep-25", "2025-09-18"},
		{"03-04-2025", "2025-04-03"}, // day first
		{"03/04/2025", "2025-04-03"},
		{"18.09.2025", "2025-09-18"},
		{"12/31/2025", "2025-12-31"}, // only month-first fits
		{"2025-09-18", "2025-09-18"},
		{"2025/9/18", "2025-09-18"},
		{"2025-09-18 00:00:00", "2025-09-18"},
		{"2025-09-18T00:00:00+05:30", "2025-09-18"},
		{"September 18, 2025", "2025-09-18"},
		{"20250918", "2025-09-18"},
		{"45918", "2025-09-18"}, // spreadsheet serial
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if assert.True(t, ok, "input %q", tt.in) {
			assert.Equal(t, date.MustParse(tt.want), got, "input %q", tt.in)
		}
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, in := range []string{"", "  ", "N.A.", "31-31-2025", "12", "yesterday"} {
		_, ok := parseDate(in)
		assert.False(t, ok, "input %q", in)
	}
}
