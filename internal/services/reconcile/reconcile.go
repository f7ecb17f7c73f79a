// Package reconcile joins parsed NAV rows with the tracked schemes and
// computes each holding's daily value.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/models"
)

// Stats describes what the join left out or could not compute.
type Stats struct {
	Unmatched  int // NAV rows with no tracked scheme
	Undated    int // joined rows without a NAV date, which cannot be keyed
	NullValues int // movements whose value could not be computed
	Duplicates int // rows collapsed by the (scheme, date) dedup
}

// Reconciler performs the NAV x active scheme join
type Reconciler struct {
	logger *common.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(logger *common.Logger) *Reconciler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Reconciler{logger: logger}
}

// Reconcile inner-joins rows with schemes on the canonical scheme key and
// shapes the result into movements. When several joined rows share a
// (scheme, date) key the last one wins.
func (r *Reconciler) Reconcile(rows []models.NavRow, schemes []models.ActiveScheme) ([]models.DailyMovement, Stats) {
	var stats Stats

	active := make(map[string][]models.ActiveScheme, len(schemes))
	for _, s := range schemes {
		key := s.SchemeCode.Key()
		if key == "" {
			continue
		}
		active[key] = append(active[key], s)
	}

	var joined []models.DailyMovement
	for _, row := range rows {
		matches, ok := active[row.SchemeCode.Key()]
		if !ok {
			stats.Unmatched++
			continue
		}
		if row.NavDate.IsZero() {
			stats.Undated++
			r.logger.Debug().Str("scheme_code", row.SchemeCode.String()).Msg("NAV row has no date, skipped")
			continue
		}
		for _, s := range matches {
			joined = append(joined, movement(row, s))
		}
	}

	out := dedupKeepLast(joined)
	stats.Duplicates = len(joined) - len(out)

	for _, m := range out {
		if m.Value == nil {
			stats.NullValues++
			r.logger.Debug().
				Str("scheme_code", m.SchemeCode.String()).
				Str("scheme_name", m.SchemeName).
				Str("date", m.NavDate.String()).
				Bool("nav", m.NAV.Valid).
				Bool("units", m.ActiveUnits.Valid).
				Msg("Movement value unavailable")
		}
	}

	return out, stats
}

func movement(row models.NavRow, s models.ActiveScheme) models.DailyMovement {
	name := row.SchemeName
	if name == "" {
		name = s.SchemeName
	}
	_, week := row.NavDate.ISOWeek()
	return models.DailyMovement{
		SchemeCode:  row.SchemeCode,
		SchemeName:  name,
		NavDate:     row.NavDate,
		NAV:         row.NAV,
		ActiveUnits: s.ActiveUnits,
		Value:       Value(s.ActiveUnits, row.NAV),
		WeekOfYear:  week,
		Year:        row.NavDate.Year(),
		Category:    s.Category,
	}
}

// Value returns units x nav rounded to the nearest integer (half to even),
// or nil when either operand is missing.
func Value(units, nav decimal.NullDecimal) *int64 {
	if !units.Valid || !nav.Valid {
		return nil
	}
	v := units.Decimal.Mul(nav.Decimal).RoundBank(0).IntPart()
	return &v
}

// dedupKeepLast keeps, for each key, the last movement in input order, placed
// at the position of that last occurrence.
func dedupKeepLast(in []models.DailyMovement) []models.DailyMovement {
	last := make(map[models.MovementKey]int, len(in))
	for i, m := range in {
		last[m.Key()] = i
	}
	out := make([]models.DailyMovement, 0, len(last))
	for i, m := range in {
		if last[m.Key()] == i {
			out = append(out, m)
		}
	}
	return out
}
