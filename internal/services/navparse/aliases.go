package navparse

import "strings"

// Canonical field names.
const (
	FieldSchemeCode = "scheme_code"
	FieldSchemeID   = "scheme_id" // legacy fallback identifier
	FieldSchemeName = "scheme_name"
	FieldNAV        = "nav"
	FieldNavDate    = "nav_date"
)

// headerAliases lists, per canonical field, every header spelling seen across
// upstream generations in priority order. Spellings are stored normalized.
var headerAliases = []struct {
	field   string
	aliases []string
}{
	{FieldSchemeCode, []string{"scheme code", "sd id", "schemecode", "amfi code", "amfi scheme code", "code"}},
	{FieldSchemeID, []string{"scheme id", "schemeid"}},
	{FieldSchemeName, []string{"scheme name", "schemename", "nav name", "fund name"}},
	{FieldNAV, []string{"net asset value", "hnav amt", "nav amt", "nav amount", "nav"}},
	{FieldNavDate, []string{"date", "nav date", "hnav date", "navdate", "as on date"}},
}

// normalizeHeader lower-cases a header, treats '_' and '-' as spaces and
// collapses runs of whitespace.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(h)
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// columnMap maps canonical field names to column indexes.
type columnMap map[string]int

// resolveColumns applies the alias table to a header row. For each canonical
// field the first alias present wins; a header column is claimed at most once.
func resolveColumns(header []string) columnMap {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if n == "" {
			continue
		}
		if _, dup := byName[n]; !dup {
			byName[n] = i
		}
	}

	cols := make(columnMap)
	claimed := make(map[int]bool)
	for _, entry := range headerAliases {
		for _, alias := range entry.aliases {
			idx, ok := byName[alias]
			if !ok || claimed[idx] {
				continue
			}
			cols[entry.field] = idx
			claimed[idx] = true
			break
		}
	}
	return cols
}

// identifierField returns the column used as the join identifier.
func (c columnMap) identifierField() (string, bool) {
	if _, ok := c[FieldSchemeCode]; ok {
		return FieldSchemeCode, true
	}
	if _, ok := c[FieldSchemeID]; ok {
		return FieldSchemeID, true
	}
	return "", false
}

// isHeader reports whether the resolved columns look like a NAV report header.
func (c columnMap) isHeader() bool {
	_, id := c.identifierField()
	_, nav := c[FieldNAV]
	return id && nav
}

func (c columnMap) get(row []string, field string) string {
	idx, ok := c[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
