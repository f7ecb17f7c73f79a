package surrealdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// SchemeStore reads and maintains the active_scheme table.
// Record ID format: active_scheme:<scheme key>
type SchemeStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewSchemeStore(db *surrealdb.DB, logger *common.Logger) *SchemeStore {
	return &SchemeStore{
		db:     db,
		logger: logger,
	}
}

// schemeDoc is read loosely: documents maintained outside navsync carry the
// code and units either as numbers or as text, and may use the field names of
// the original mf_activeSchemes collection (categoryCode, activeUnits,
// category_name). navsync's own field names win when both are present.
type schemeDoc struct {
	SchemeCode  any    `json:"scheme_code"`
	SchemeName  string `json:"scheme_name"`
	ActiveUnits any    `json:"active_units"`
	Category    string `json:"category,omitempty"`

	CategoryCode   any    `json:"categoryCode,omitempty"`
	LegacyUnits    any    `json:"activeUnits,omitempty"`
	LegacyCategory string `json:"category_name,omitempty"`
}

func (d schemeDoc) toModel() models.ActiveScheme {
	sc := models.ActiveScheme{
		SchemeCode:  models.SchemeCodeFrom(d.SchemeCode),
		SchemeName:  d.SchemeName,
		ActiveUnits: models.AmountFrom(d.ActiveUnits),
		Category:    d.Category,
	}
	if sc.SchemeCode.IsEmpty() {
		sc.SchemeCode = models.SchemeCodeFrom(d.CategoryCode)
	}
	if !sc.ActiveUnits.Valid {
		sc.ActiveUnits = models.AmountFrom(d.LegacyUnits)
	}
	if sc.Category == "" {
		sc.Category = d.LegacyCategory
	}
	return sc
}

func (s *SchemeStore) ListActiveSchemes(ctx context.Context) ([]models.ActiveScheme, error) {
	sql := "SELECT * FROM active_scheme"

	results, err := surrealdb.Query[[]schemeDoc](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list active schemes: %w", err)
	}

	var out []models.ActiveScheme
	if results != nil && len(*results) > 0 {
		for _, doc := range (*results)[0].Result {
			sc := doc.toModel()
			if sc.SchemeCode.IsEmpty() {
				s.logger.Warn().Str("scheme_name", sc.SchemeName).Msg("Active scheme without code ignored")
				continue
			}
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *SchemeStore) SaveActiveSchemes(ctx context.Context, schemes []models.ActiveScheme) (models.UpsertResult, error) {
	var result models.UpsertResult
	if len(schemes) == 0 {
		return result, nil
	}

	existing, err := s.existingKeys(ctx)
	if err != nil {
		return models.UpsertResult{Failed: len(schemes)}, &models.BatchError{Failed: len(schemes), Total: len(schemes), Err: err}
	}

	sql := "UPSERT $rid CONTENT $data"
	var errs []error
	for _, sc := range schemes {
		key := sc.SchemeCode.Key()
		if key == "" {
			result.Failed++
			errs = append(errs, fmt.Errorf("scheme %q has no code", sc.SchemeName))
			continue
		}

		doc := schemeDoc{SchemeCode: key, SchemeName: sc.SchemeName, Category: sc.Category}
		if u := floatPtr(sc.ActiveUnits); u != nil {
			doc.ActiveUnits = *u
		}
		vars := map[string]any{"rid": surrealmodels.NewRecordID(tableScheme, key), "data": doc}

		var lastErr error
		for attempt := 1; attempt <= 3; attempt++ {
			if _, lastErr = surrealdb.Query[[]schemeDoc](ctx, s.db, sql, vars); lastErr == nil {
				break
			}
		}
		if lastErr != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("upsert scheme %s: %w", key, lastErr))
			continue
		}

		if existing[key] {
			result.Updated++
		} else {
			result.Inserted++
			existing[key] = true
		}
	}

	if len(errs) > 0 {
		return result, &models.BatchError{Failed: result.Failed, Total: len(schemes), Err: errors.Join(errs...)}
	}
	return result, nil
}

func (s *SchemeStore) existingKeys(ctx context.Context) (map[string]bool, error) {
	sql := "SELECT scheme_code, categoryCode FROM active_scheme"
	results, err := surrealdb.Query[[]schemeDoc](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing schemes: %w", err)
	}
	existing := make(map[string]bool)
	if results != nil && len(*results) > 0 {
		for _, doc := range (*results)[0].Result {
			existing[doc.toModel().SchemeCode.Key()] = true
		}
	}
	return existing, nil
}

// Compile-time check
var _ interfaces.SchemeStore = (*SchemeStore)(nil)
