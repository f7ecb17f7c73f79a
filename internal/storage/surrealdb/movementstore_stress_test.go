package surrealdb

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
)

// Non-numeric scheme codes end up inside record IDs; they must round-trip
// without escaping problems or collisions.
func TestStress_MovementStore_HostileSchemeCodes(t *testing.T) {
	ctx := context.Background()
	store := NewMovementStore(testDB(t), testLogger())
	day := "2025-01-01"

	codes := []string{
		"INF209K01YY7",
		"'; DROP TABLE daily_movement; --",
		"daily_movement:injected",
		"ABC/2024:1",
		"code`; REMOVE TABLE daily_movement; `",
		"<script>",
		"{101}",
		"scheme code",
		strings.Repeat("A", 512),
	}

	var batch []models.DailyMovement
	for _, c := range codes {
		batch = append(batch, testMovement(c, day, "10", "1"))
	}

	res, err := store.BulkUpsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, len(codes), res.Inserted)

	ms, err := store.ListByDates(ctx, []date.Date{date.MustParse(day)})
	require.NoError(t, err)
	require.Len(t, ms, len(codes))

	got := map[string]bool{}
	for _, m := range ms {
		got[m.SchemeCode.String()] = true
	}
	for _, c := range codes {
		assert.True(t, got[c], "code %q did not round-trip", c)
	}

	res, err = store.BulkUpsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, len(codes), res.Updated)
}

func TestStress_MovementStore_LargeBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMovementStore(testDB(t), testLogger())

	var batch []models.DailyMovement
	for i := 0; i < 500; i++ {
		batch = append(batch, testMovement(strconv.Itoa(100000+i), "2025-01-01", "10.1234", "3"))
	}

	res, err := store.BulkUpsert(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 500, res.Inserted)

	latest, ok, err := store.LatestDate(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-01-01", latest.String())
}
