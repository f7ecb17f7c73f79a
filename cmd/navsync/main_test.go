package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
)

func TestPrintRunSummary(t *testing.T) {
	r := &models.RunReport{
		Outcomes: []models.DateOutcome{
			{Date: date.MustParse("2025-01-02"), Status: models.DateProcessed, Rows: 10, Matched: 2, Upsert: models.UpsertResult{Inserted: 2}},
			{Date: date.MustParse("2025-01-03"), Status: models.DateSkipped},
			{Date: date.MustParse("2025-01-04"), Status: models.DateFailed, Error: "fetch failed after 3 attempts"},
		},
	}

	var buf bytes.Buffer
	printRunSummary(&buf, r)

	assert.Equal(t, "2025-01-02  processed  rows=10 matched=2 inserted=2 updated=0\n"+
		"2025-01-03  skipped\n"+
		"2025-01-04  failed     fetch failed after 3 attempts\n"+
		"processed=1 skipped=1 failed=1 inserted=2 updated=0\n", buf.String())
}

func TestPrintRunSummary_UpToDate(t *testing.T) {
	var buf bytes.Buffer
	printRunSummary(&buf, &models.RunReport{UpToDate: true, From: date.MustParse("2025-01-05")})
	assert.Equal(t, "Up to date (latest stored date 2025-01-04)\n", buf.String())
}

func TestPrintRuns(t *testing.T) {
	started := time.Date(2025, 1, 5, 6, 30, 0, 0, time.UTC)
	runs := []*models.RunReport{
		{
			RunID: "run-2", Mode: models.RunModeGap, StartedAt: started,
			From: date.MustParse("2025-01-02"), To: date.MustParse("2025-01-04"),
			Outcomes: []models.DateOutcome{
				{Date: date.MustParse("2025-01-02"), Status: models.DateProcessed},
				{Date: date.MustParse("2025-01-03"), Status: models.DateSkipped},
				{Date: date.MustParse("2025-01-04"), Status: models.DateFailed},
			},
		},
		{RunID: "run-1", Mode: models.RunModeGap, StartedAt: started.Add(-time.Hour), UpToDate: true},
	}

	var buf bytes.Buffer
	printRuns(&buf, runs)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STARTED"))
	assert.Equal(t, []string{"2025-01-05", "06:30", "gap", "2025-01-02..2025-01-04", "1", "1", "1", "run-2"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2025-01-05", "05:30", "gap", "up", "to", "date", "0", "0", "0", "run-1"}, strings.Fields(lines[2]))
}

func TestPrintRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Equal(t, "No runs recorded.\n", buf.String())
}
