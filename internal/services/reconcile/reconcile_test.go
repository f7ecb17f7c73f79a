package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
)

func nav(code string, amount string, day string) models.NavRow {
	row := models.NavRow{SchemeCode: models.SchemeCode(code), SchemeName: "Scheme " + code}
	if amount != "" {
		row.NAV = models.ParseAmount(amount)
	}
	if day != "" {
		row.NavDate = date.MustParse(day)
	}
	return row
}

func active(code any, units any) models.ActiveScheme {
	return models.ActiveScheme{
		SchemeCode:  models.SchemeCodeFrom(code),
		SchemeName:  "Active",
		ActiveUnits: models.AmountFrom(units),
		Category:    "Equity",
	}
}

func TestReconcile_JoinComputesValue(t *testing.T) {
	out, stats := NewReconciler(nil).Reconcile(
		[]models.NavRow{nav("101", "50.0", "2025-01-01")},
		[]models.ActiveScheme{active(101, "10")},
	)

	require.Len(t, out, 1)
	m := out[0]
	require.NotNil(t, m.Value)
	assert.Equal(t, int64(500), *m.Value)
	assert.Equal(t, "Scheme 101", m.SchemeName)
	assert.Equal(t, "Equity", m.Category)
	assert.Equal(t, 1, m.WeekOfYear)
	assert.Equal(t, 2025, m.Year)
	assert.Equal(t, Stats{}, stats)
}

func TestReconcile_StringCodeJoinsNumericCode(t *testing.T) {
	out, _ := NewReconciler(nil).Reconcile(
		[]models.NavRow{nav(" 101", "12.5", "2025-01-01"), nav("0202", "1", "2025-01-01")},
		[]models.ActiveScheme{active(101, 4), active(202.0, "3")},
	)

	require.Len(t, out, 2)
	assert.Equal(t, int64(50), *out[0].Value)
	assert.Equal(t, int64(3), *out[1].Value)
}

func TestReconcile_InnerJoinExcludesUnmatched(t *testing.T) {
	out, stats := NewReconciler(nil).Reconcile(
		[]models.NavRow{nav("101", "1", "2025-01-01"), nav("999", "1", "2025-01-01")},
		[]models.ActiveScheme{active(101, 1), active(555, 1)},
	)

	require.Len(t, out, 1)
	assert.Equal(t, "101", out[0].SchemeCode.Key())
	assert.Equal(t, 1, stats.Unmatched)
}

func TestReconcile_NullOperandsGiveNullValue(t *testing.T) {
	out, stats := NewReconciler(nil).Reconcile(
		[]models.NavRow{
			nav("101", "", "2025-01-01"),
			nav("102", "20", "2025-01-01"),
			nav("103", "30", "2025-01-01"),
		},
		[]models.ActiveScheme{active(101, 10), active(102, "n/a"), active(103, "2")},
	)

	require.Len(t, out, 3)
	assert.Nil(t, out[0].Value)
	assert.Nil(t, out[1].Value)
	require.NotNil(t, out[2].Value)
	assert.Equal(t, int64(60), *out[2].Value)
	assert.Equal(t, 2, stats.NullValues)
}

func TestReconcile_DedupKeepsLast(t *testing.T) {
	first := nav("101", "10", "2025-01-01")
	other := nav("102", "5", "2025-01-01")
	second := nav("101", "11", "2025-01-01")
	second.SchemeName = "Renamed"

	out, stats := NewReconciler(nil).Reconcile(
		[]models.NavRow{first, other, second},
		[]models.ActiveScheme{active(101, 1), active(102, 1)},
	)

	require.Len(t, out, 2)
	assert.Equal(t, "102", out[0].SchemeCode.Key())
	assert.Equal(t, "101", out[1].SchemeCode.Key())
	assert.Equal(t, "Renamed", out[1].SchemeName)
	assert.Equal(t, int64(11), *out[1].Value)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestReconcile_SameCodeDifferentDatesKept(t *testing.T) {
	out, _ := NewReconciler(nil).Reconcile(
		[]models.NavRow{nav("101", "10", "2025-01-01"), nav("101", "11", "2025-01-02")},
		[]models.ActiveScheme{active(101, 1)},
	)
	assert.Len(t, out, 2)
}

func TestReconcile_UndatedRowsExcluded(t *testing.T) {
	out, stats := NewReconciler(nil).Reconcile(
		[]models.NavRow{nav("101", "10", "")},
		[]models.ActiveScheme{active(101, 1)},
	)
	assert.Empty(t, out)
	assert.Equal(t, 1, stats.Undated)
}

func TestReconcile_NameFallsBackToActiveScheme(t *testing.T) {
	row := nav("101", "10", "2025-01-01")
	row.SchemeName = ""
	out, _ := NewReconciler(nil).Reconcile([]models.NavRow{row}, []models.ActiveScheme{active(101, 1)})
	require.Len(t, out, 1)
	assert.Equal(t, "Active", out[0].SchemeName)
}

func TestReconcile_Idempotent(t *testing.T) {
	rows := []models.NavRow{nav("101", "50.1234", "2025-01-01"), nav("102", "7.5", "2025-01-01")}
	schemes := []models.ActiveScheme{active(101, "10.5"), active(102, "3")}

	a, _ := NewReconciler(nil).Reconcile(rows, schemes)
	b, _ := NewReconciler(nil).Reconcile(rows, schemes)
	assert.Equal(t, a, b)
}

func TestValue(t *testing.T) {
	d := func(s string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(s)) }

	assert.Equal(t, int64(526), *Value(d("10.5"), d("50.1234")))
	assert.Equal(t, int64(2), *Value(d("1"), d("2.5")))  // half to even
	assert.Equal(t, int64(4), *Value(d("1"), d("3.5")))
	assert.Equal(t, int64(1234568), *Value(d("1000"), d("1234.5678")))
	assert.Nil(t, Value(decimal.NullDecimal{}, d("1")))
	assert.Nil(t, Value(d("1"), decimal.NullDecimal{}))
}
