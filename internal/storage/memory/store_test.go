package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
)

func movement(code, day string, value int64) models.DailyMovement {
	v := value
	return models.DailyMovement{
		SchemeCode: models.SchemeCode(code),
		NavDate:    date.MustParse(day),
		Value:      &v,
	}
}

func TestMovementStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMovementStore()

	res, err := s.BulkUpsert(ctx, []models.DailyMovement{movement("101", "2025-01-01", 1), movement("102", "2025-01-01", 2)})
	require.NoError(t, err)
	assert.Equal(t, models.UpsertResult{Inserted: 2}, res)

	res, err = s.BulkUpsert(ctx, []models.DailyMovement{movement("101", "2025-01-01", 5)})
	require.NoError(t, err)
	assert.Equal(t, models.UpsertResult{Updated: 1}, res)
	assert.Equal(t, 2, s.Len())

	got, ok := s.Get(models.MovementKey{Code: "101", Date: date.MustParse("2025-01-01")})
	require.True(t, ok)
	assert.Equal(t, int64(5), *got.Value)
}

func TestMovementStore_NumericAndTextCodesShareIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewMovementStore()

	_, err := s.BulkUpsert(ctx, []models.DailyMovement{movement("101", "2025-01-01", 1)})
	require.NoError(t, err)
	res, err := s.BulkUpsert(ctx, []models.DailyMovement{movement("0101", "2025-01-01", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, s.Len())
}

func TestMovementStore_PartialFailure(t *testing.T) {
	s := NewMovementStore()
	bad := models.DailyMovement{SchemeCode: "103"}

	res, err := s.BulkUpsert(context.Background(), []models.DailyMovement{movement("101", "2025-01-01", 1), bad})
	require.Error(t, err)
	var batchErr *models.BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 1, batchErr.Failed)
	assert.Equal(t, 2, batchErr.Total)
	assert.Equal(t, models.UpsertResult{Inserted: 1, Failed: 1}, res)
	assert.Equal(t, 1, s.Len())
}

func TestMovementStore_LatestAndRecentDates(t *testing.T) {
	ctx := context.Background()
	s := NewMovementStore()

	_, ok, err := s.LatestDate(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.BulkUpsert(ctx, []models.DailyMovement{
		movement("101", "2025-01-01", 1),
		movement("101", "2025-01-03", 1),
		movement("102", "2025-01-03", 1),
		movement("101", "2025-01-02", 1),
	})
	require.NoError(t, err)

	latest, ok, err := s.LatestDate(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-01-03", latest.String())

	dates, err := s.RecentDates(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []date.Date{date.MustParse("2025-01-03"), date.MustParse("2025-01-02")}, dates)

	ms, err := s.ListByDates(ctx, dates)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "2025-01-02", ms[0].NavDate.String())
	assert.Equal(t, "101", ms[1].SchemeCode.Key())
	assert.Equal(t, "102", ms[2].SchemeCode.Key())
}

func TestSchemeStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	s := NewSchemeStore(models.ActiveScheme{SchemeCode: "101", SchemeName: "A"})

	res, err := s.SaveActiveSchemes(ctx, []models.ActiveScheme{
		{SchemeCode: "101.0", SchemeName: "A2"},
		{SchemeCode: "202", SchemeName: "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.UpsertResult{Inserted: 1, Updated: 1}, res)

	list, err := s.ListActiveSchemes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A2", list[0].SchemeName)
	assert.Equal(t, "B", list[1].SchemeName)

	_, err = s.SaveActiveSchemes(ctx, []models.ActiveScheme{{SchemeName: "no code"}})
	assert.Error(t, err)
}

func TestRunStore_ListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewRunStore()
	require.NoError(t, s.SaveRun(ctx, &models.RunReport{RunID: "a"}))
	require.NoError(t, s.SaveRun(ctx, &models.RunReport{RunID: "b"}))
	require.NoError(t, s.SaveRun(ctx, &models.RunReport{RunID: "c"}))

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)

	assert.Error(t, s.SaveRun(ctx, nil))
}
