package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/models"
)

// schemeColumns maps accepted header spellings to the active scheme fields.
// categoryCode and activeUnits are the names used by the legacy holdings sheet.
var schemeColumns = map[string][]string{
	"scheme_code":  {"scheme code", "categorycode", "category code", "amfi code", "code"},
	"scheme_name":  {"scheme name", "name", "fund name"},
	"active_units": {"active units", "activeunits", "units"},
	"category":     {"category", "category name", "categoryname"},
}

func normalizeColumn(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// ReadActiveSchemes reads the active scheme table from a CSV or XLSX file.
// Rows without a scheme code are skipped.
func ReadActiveSchemes(filePath string) ([]models.ActiveScheme, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schemes file %s: %w", filePath, err)
	}

	var table [][]string
	if strings.EqualFold(filepath.Ext(filePath), ".xlsx") {
		table, err = readSheet(data)
	} else {
		table, err = readCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schemes file %s: %w", filePath, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("schemes file %s is empty", filePath)
	}

	cols := make(map[string]int)
	for i, h := range table[0] {
		n := normalizeColumn(h)
		for field, aliases := range schemeColumns {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, a := range aliases {
				if n == a {
					cols[field] = i
					break
				}
			}
		}
	}
	if _, ok := cols["scheme_code"]; !ok {
		return nil, fmt.Errorf("schemes file %s has no scheme code column", filePath)
	}

	get := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var schemes []models.ActiveScheme
	for _, row := range table[1:] {
		code := models.SchemeCode(get(row, "scheme_code"))
		if code.IsEmpty() {
			continue
		}
		schemes = append(schemes, models.ActiveScheme{
			SchemeCode:  code,
			SchemeName:  get(row, "scheme_name"),
			ActiveUnits: models.ParseAmount(get(row, "active_units")),
			Category:    get(row, "category"),
		})
	}
	return schemes, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	if first, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		r.Comma = ';'
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func readSheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

// ImportActiveSchemes loads a schemes file into the scheme store. Existing
// schemes with the same code are replaced.
func ImportActiveSchemes(ctx context.Context, store interfaces.SchemeStore, logger *common.Logger, filePath string) (models.UpsertResult, error) {
	schemes, err := ReadActiveSchemes(filePath)
	if err != nil {
		return models.UpsertResult{}, err
	}

	result, err := store.SaveActiveSchemes(ctx, schemes)
	if err != nil {
		return result, fmt.Errorf("failed to save active schemes: %w", err)
	}

	logger.Info().
		Str("file", filePath).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Msg("Active schemes imported")
	return result, nil
}
