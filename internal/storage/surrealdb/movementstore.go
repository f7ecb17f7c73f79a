package surrealdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// MovementStore persists daily movements in the daily_movement table.
// Record ID format: daily_movement:<scheme key>_<YYYY-MM-DD>
type MovementStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewMovementStore(db *surrealdb.DB, logger *common.Logger) *MovementStore {
	return &MovementStore{
		db:     db,
		logger: logger,
	}
}

func movementID(key models.MovementKey) string {
	return key.Code + "_" + key.Date.String()
}

// movementDoc is the stored shape of a DailyMovement.
type movementDoc struct {
	Key         string   `json:"key"`
	SchemeCode  string   `json:"scheme_code"`
	SchemeName  string   `json:"scheme_name"`
	NavDate     string   `json:"nav_date"`
	NAV         *float64 `json:"nav"`
	ActiveUnits *float64 `json:"active_units"`
	Value       *int64   `json:"value"`
	WeekOfYear  int      `json:"week_of_year"`
	Year        int      `json:"year"`
	Category    string   `json:"category,omitempty"`
}

func toMovementDoc(m models.DailyMovement) movementDoc {
	return movementDoc{
		Key:         movementID(m.Key()),
		SchemeCode:  m.SchemeCode.Key(),
		SchemeName:  m.SchemeName,
		NavDate:     m.NavDate.String(),
		NAV:         floatPtr(m.NAV),
		ActiveUnits: floatPtr(m.ActiveUnits),
		Value:       m.Value,
		WeekOfYear:  m.WeekOfYear,
		Year:        m.Year,
		Category:    m.Category,
	}
}

func (d movementDoc) toModel() (models.DailyMovement, error) {
	day, err := date.Parse(d.NavDate)
	if err != nil {
		return models.DailyMovement{}, fmt.Errorf("record %s: %w", d.Key, err)
	}
	m := models.DailyMovement{
		SchemeCode: models.SchemeCode(d.SchemeCode),
		SchemeName: d.SchemeName,
		NavDate:    day,
		Value:      d.Value,
		WeekOfYear: d.WeekOfYear,
		Year:       d.Year,
		Category:   d.Category,
	}
	if d.NAV != nil {
		m.NAV = models.AmountFrom(*d.NAV)
	}
	if d.ActiveUnits != nil {
		m.ActiveUnits = models.AmountFrom(*d.ActiveUnits)
	}
	return m, nil
}

func (s *MovementStore) LatestDate(ctx context.Context) (date.Date, bool, error) {
	sql := "SELECT nav_date FROM daily_movement ORDER BY nav_date DESC LIMIT 1"

	type dateResult struct {
		NavDate string `json:"nav_date"`
	}

	results, err := surrealdb.Query[[]dateResult](ctx, s.db, sql, nil)
	if err != nil {
		return date.Date{}, false, fmt.Errorf("failed to query latest movement date: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return date.Date{}, false, nil
	}

	latest, err := date.Parse((*results)[0].Result[0].NavDate)
	if err != nil {
		return date.Date{}, false, fmt.Errorf("invalid stored nav_date: %w", err)
	}
	return latest, true, nil
}

// BulkUpsert writes each record on its own; a failed record does not stop the
// rest of the batch. Failures are reported together as a *models.BatchError.
func (s *MovementStore) BulkUpsert(ctx context.Context, records []models.DailyMovement) (models.UpsertResult, error) {
	var result models.UpsertResult
	if len(records) == 0 {
		return result, nil
	}

	existing, err := s.existingKeys(ctx, records)
	if err != nil {
		return models.UpsertResult{Failed: len(records)}, &models.BatchError{Failed: len(records), Total: len(records), Err: err}
	}

	sql := "UPSERT $rid CONTENT $data"
	var errs []error
	for _, m := range records {
		key := m.Key()
		if key.Code == "" || key.Date.IsZero() {
			result.Failed++
			errs = append(errs, fmt.Errorf("movement %q on %q has no identity", m.SchemeCode, m.NavDate))
			continue
		}

		id := movementID(key)
		vars := map[string]any{"rid": surrealmodels.NewRecordID(tableMovement, id), "data": toMovementDoc(m)}

		var lastErr error
		for attempt := 1; attempt <= 3; attempt++ {
			if _, lastErr = surrealdb.Query[[]movementDoc](ctx, s.db, sql, vars); lastErr == nil {
				break
			}
		}
		if lastErr != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("upsert %s: %w", id, lastErr))
			continue
		}

		if existing[id] {
			result.Updated++
		} else {
			result.Inserted++
			existing[id] = true
		}
	}

	if len(errs) > 0 {
		s.logger.Warn().Int("failed", result.Failed).Int("total", len(records)).Msg("Movement batch partially failed")
		return result, &models.BatchError{Failed: result.Failed, Total: len(records), Err: errors.Join(errs...)}
	}
	return result, nil
}

// existingKeys returns the record keys already stored for the batch's dates.
func (s *MovementStore) existingKeys(ctx context.Context, records []models.DailyMovement) (map[string]bool, error) {
	dates := distinctDates(records)
	sql := "SELECT VALUE key FROM daily_movement WHERE nav_date IN $dates"
	vars := map[string]any{"dates": dates}

	results, err := surrealdb.Query[[]string](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing movements: %w", err)
	}

	existing := make(map[string]bool)
	if results != nil && len(*results) > 0 {
		for _, k := range (*results)[0].Result {
			existing[k] = true
		}
	}
	return existing, nil
}

func distinctDates(records []models.DailyMovement) []string {
	seen := make(map[date.Date]bool)
	var out []string
	for _, m := range records {
		if m.NavDate.IsZero() || seen[m.NavDate] {
			continue
		}
		seen[m.NavDate] = true
		out = append(out, m.NavDate.String())
	}
	return out
}

func (s *MovementStore) RecentDates(ctx context.Context, n int) ([]date.Date, error) {
	if n <= 0 {
		return nil, nil
	}
	sql := "SELECT nav_date FROM daily_movement GROUP BY nav_date ORDER BY nav_date DESC LIMIT $n"
	vars := map[string]any{"n": n}

	type dateResult struct {
		NavDate string `json:"nav_date"`
	}

	results, err := surrealdb.Query[[]dateResult](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent movement dates: %w", err)
	}

	var dates []date.Date
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			d, err := date.Parse(r.NavDate)
			if err != nil {
				return nil, fmt.Errorf("invalid stored nav_date: %w", err)
			}
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func (s *MovementStore) ListByDates(ctx context.Context, dates []date.Date) ([]models.DailyMovement, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = d.String()
	}

	sql := "SELECT * FROM daily_movement WHERE nav_date IN $dates ORDER BY nav_date, key"
	vars := map[string]any{"dates": keys}

	results, err := surrealdb.Query[[]movementDoc](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	var out []models.DailyMovement
	if results != nil && len(*results) > 0 {
		for _, doc := range (*results)[0].Result {
			m, err := doc.toModel()
			if err != nil {
				s.logger.Warn().Err(err).Msg("Skipping unreadable movement")
				continue
			}
			out = append(out, m)
		}
	}
	return out, nil
}

// Compile-time check
var _ interfaces.MovementStore = (*MovementStore)(nil)
