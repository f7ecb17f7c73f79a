package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navsync/internal/clients/amfi"
	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
	"github.com/bobmcallan/navsync/internal/services/pipeline"
	"github.com/bobmcallan/navsync/internal/services/report"
)

// feed publishes a semicolon report for every date except the holidays.
type feed struct {
	holidays map[string]bool
}

func (f feed) Fetch(_ context.Context, day date.Date) ([]byte, error) {
	if f.holidays[day.String()] {
		return nil, fmt.Errorf("%s: %w", day, amfi.ErrDataNotAvailable)
	}
	d := day.Format("02-Jan-2006")
	return []byte(fmt.Sprintf("Scheme Code;Scheme Name;Net Asset Value;Date\n"+
		"101;Alpha Fund;%d.50;%s\n"+
		"202;Beta Fund;12.0000;%s\n"+
		"303;Untracked Fund;1.0000;%s\n",
		40+day.Day(), d, d, d)), nil
}

func TestPipeline_GapFillAgainstSurrealDB(t *testing.T) {
	mgr := testManager(t)
	ctx := testContext()

	_, err := mgr.SchemeStore().SaveActiveSchemes(ctx, []models.ActiveScheme{
		{SchemeCode: "101", SchemeName: "Alpha", ActiveUnits: models.ParseAmount("100"), Category: "Equity"},
		{SchemeCode: "202", SchemeName: "Beta", ActiveUnits: models.ParseAmount("10"), Category: "Debt"},
	})
	require.NoError(t, err)

	_, err = mgr.MovementStore().BulkUpsert(ctx, []models.DailyMovement{
		{SchemeCode: "101", NavDate: date.MustParse("2025-01-01")},
	})
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC) }
	s := pipeline.NewScheduler(feed{holidays: map[string]bool{"2025-01-04": true}}, nil, nil,
		mgr.SchemeStore(), mgr.MovementStore(),
		pipeline.WithClock(now),
		pipeline.WithRunStore(mgr.RunStore()),
		pipeline.WithLogger(common.NewSilentLogger()),
	)

	run, err := s.RunGap(ctx)
	require.NoError(t, err)
	assert.Len(t, run.Outcomes, 4)
	assert.Len(t, run.Processed(), 3)
	assert.Equal(t, []date.Date{date.MustParse("2025-01-04")}, run.Skipped())

	latest, ok, err := mgr.MovementStore().LatestDate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-01-05", latest.String())

	again, err := s.RunGap(ctx)
	require.NoError(t, err)
	assert.True(t, again.UpToDate)

	// Re-running a stored date replaces records instead of duplicating them.
	single, err := s.RunDate(ctx, date.MustParse("2025-01-05"))
	require.NoError(t, err)
	assert.Equal(t, models.UpsertResult{Updated: 2}, single.Totals())

	table, err := report.NewService(mgr.MovementStore(), nil).Build(ctx, 2)
	require.NoError(t, err)
	require.Len(t, table.Dates, 2)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Equity", table.Rows[0].Category)
	// 100 units x 45.50 on the 5th, 100 x 43.50 on the 3rd
	assert.Equal(t, []int64{4550, 4350}, table.Rows[0].Values)
	assert.Equal(t, int64(200), *table.Rows[0].Change)

	runs, err := mgr.RunStore().ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
