package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
	"github.com/bobmcallan/navsync/internal/storage/memory"
)

func seed(t *testing.T, rows ...models.DailyMovement) *memory.MovementStore {
	t.Helper()
	store := memory.NewMovementStore()
	_, err := store.BulkUpsert(context.Background(), rows)
	require.NoError(t, err)
	return store
}

func mv(code, day, category string, value int64) models.DailyMovement {
	v := value
	return models.DailyMovement{SchemeCode: models.SchemeCode(code), NavDate: date.MustParse(day), Category: category, Value: &v}
}

func TestBuild_PivotsByCategory(t *testing.T) {
	store := seed(t,
		mv("101", "2025-01-01", "Equity", 100),
		mv("102", "2025-01-01", "Equity", 50),
		mv("201", "2025-01-01", "Debt", 400),
		mv("101", "2025-01-02", "Equity", 120),
		mv("102", "2025-01-02", "Equity", 60),
		mv("201", "2025-01-02", "Debt", 390),
		mv("301", "2025-01-02", "", 7),
	)

	table, err := NewService(store, nil).Build(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []date.Date{date.MustParse("2025-01-02"), date.MustParse("2025-01-01")}, table.Dates)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, "Debt", table.Rows[0].Category)
	assert.Equal(t, []int64{390, 400}, table.Rows[0].Values)
	assert.Equal(t, int64(-10), *table.Rows[0].Change)

	assert.Equal(t, "Equity", table.Rows[1].Category)
	assert.Equal(t, []int64{180, 150}, table.Rows[1].Values)
	assert.Equal(t, int64(30), *table.Rows[1].Change)

	assert.Equal(t, Uncategorized, table.Rows[2].Category)
	assert.Equal(t, []int64{7, 0}, table.Rows[2].Values)

	assert.Equal(t, []int64{577, 550}, table.Total.Values)
	assert.Equal(t, int64(27), *table.Total.Change)
}

func TestBuild_LimitsToRecentDates(t *testing.T) {
	var rows []models.DailyMovement
	for i, d := range date.Range(date.MustParse("2025-01-01"), date.MustParse("2025-01-10")) {
		rows = append(rows, mv("101", d.String(), "Equity", int64(i)))
	}

	table, err := NewService(seed(t, rows...), nil).Build(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, table.Dates, 7)
	assert.Equal(t, "2025-01-10", table.Dates[0].String())
	assert.Equal(t, "2025-01-04", table.Dates[6].String())
}

func TestBuild_NullValuesCountAsZero(t *testing.T) {
	null := mv("102", "2025-01-01", "Equity", 0)
	null.Value = nil

	table, err := NewService(seed(t, mv("101", "2025-01-01", "Equity", 10), null), nil).Build(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []int64{10}, table.Rows[0].Values)
	assert.Nil(t, table.Rows[0].Change)
}

func TestBuild_EmptyStore(t *testing.T) {
	table, err := NewService(memory.NewMovementStore(), nil).Build(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())

	md, err := table.Markdown()
	require.NoError(t, err)
	assert.Contains(t, md, "No movements stored.")
}

func TestBuild_RejectsNonPositiveCount(t *testing.T) {
	_, err := NewService(memory.NewMovementStore(), nil).Build(context.Background(), 0)
	assert.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	store := seed(t,
		mv("101", "2025-01-01", "Equity", 1000000),
		mv("101", "2025-01-02", "Equity", 1234567),
	)
	table, err := NewService(store, nil).Build(context.Background(), 7)
	require.NoError(t, err)

	md, err := table.Markdown()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(md), "\n")
	assert.Equal(t, "# Daily Movement", lines[0])
	assert.Contains(t, md, "| Category | Change | 2025-01-02 | 2025-01-01 |")
	assert.Contains(t, md, "| Equity | +234,567 | 1,234,567 | 1,000,000 |")
	assert.Contains(t, md, "| **Total** | **+234,567** | **1,234,567** | **1,000,000** |")

	styled, err := RenderTerminal(md, "notty")
	require.NoError(t, err)
	assert.Contains(t, styled, "Equity")
}

func TestFormatChange(t *testing.T) {
	neg := int64(-1500)
	zero := int64(0)
	assert.Equal(t, "-1,500", FormatChange(&neg))
	assert.Equal(t, "0", FormatChange(&zero))
	assert.Equal(t, "", FormatChange(nil))
}

func TestRenderChart(t *testing.T) {
	store := seed(t,
		mv("101", "2025-01-01", "Equity", 100),
		mv("201", "2025-01-01", "Debt", 300),
		mv("101", "2025-01-02", "Equity", 120),
		mv("201", "2025-01-02", "Debt", 310),
	)
	table, err := NewService(store, nil).Build(context.Background(), 7)
	require.NoError(t, err)

	png, err := RenderChart(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = RenderChart(&Table{Dates: table.Dates[:1]})
	assert.Error(t, err)
}
