// Package navparse turns a raw NAV report, whatever generation of the upstream
// produced it, into canonical NAV rows.
package navparse

import (
	"errors"
	"fmt"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/models"
)

// ErrNoHeader means no row of the payload could be recognised as a NAV report header.
var ErrNoHeader = errors.New("no NAV report header found")

// Anomaly is a field that could not be coerced. The field is left null.
type Anomaly struct {
	Line  int // 1-based row number within the payload's table
	Field string
	Value string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("row %d: %s=%q", a.Line, a.Field, a.Value)
}

// Result is the outcome of parsing one payload.
type Result struct {
	Format    string
	Rows      []models.NavRow
	Anomalies []Anomaly
	Dropped   int // rows without an identifier
}

// Parser converts payloads into NAV rows
type Parser struct {
	delimiter rune
	logger    *common.Logger
}

// Option configures the parser
type Option func(*Parser)

// WithDelimiter fixes the text delimiter instead of detecting it
func WithDelimiter(d rune) Option {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: common.NewSilentLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse detects the payload shape and extracts NAV rows in input order.
// Unreadable fields become null and are reported as anomalies; only a payload
// with no recognisable table is an error.
func (p *Parser) Parse(raw []byte) (*Result, error) {
	format := detectFormat(raw)

	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatXLS:
		table, err = readXLS(raw)
	case FormatXLSX:
		table, err = readXLSX(raw)
	default:
		table, err = readDelimited(raw, p.delimiter)
	}
	if err != nil {
		return nil, err
	}

	res, err := extractRows(table)
	if err != nil {
		return nil, fmt.Errorf("%s payload: %w", format, err)
	}
	res.Format = format

	for _, a := range res.Anomalies {
		p.logger.Debug().Int("row", a.Line).Str("field", a.Field).Str("value", a.Value).Msg("Unparseable field set to null")
	}
	p.logger.Debug().
		Str("format", format).
		Int("rows", len(res.Rows)).
		Int("anomalies", len(res.Anomalies)).
		Int("dropped", res.Dropped).
		Msg("NAV payload parsed")

	return res, nil
}

// extractRows locates the header row and maps the following rows onto NavRow.
func extractRows(table [][]string) (*Result, error) {
	headerAt := -1
	var cols columnMap
	for i, row := range table {
		if c := resolveColumns(row); c.isHeader() {
			headerAt, cols = i, c
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrNoHeader
	}

	idField, _ := cols.identifierField()
	res := &Result{}
	for i := headerAt + 1; i < len(table); i++ {
		row := table[i]
		line := i + 1
		if resolveColumns(row).isHeader() {
			continue
		}

		code := models.SchemeCode(cols.get(row, idField))
		if code.IsEmpty() {
			res.Dropped++
			continue
		}

		nr := models.NavRow{
			SchemeCode: code,
			SchemeName: cols.get(row, FieldSchemeName),
		}

		if raw := cols.get(row, FieldNAV); raw != "" {
			nr.NAV = models.ParseAmount(raw)
		}
		if !nr.NAV.Valid {
			res.Anomalies = append(res.Anomalies, Anomaly{Line: line, Field: FieldNAV, Value: cols.get(row, FieldNAV)})
		}

		if _, ok := cols[FieldNavDate]; ok {
			raw := cols.get(row, FieldNavDate)
			if d, ok := parseDate(raw); ok {
				nr.NavDate = d
			} else {
				res.Anomalies = append(res.Anomalies, Anomaly{Line: line, Field: FieldNavDate, Value: raw})
			}
		}

		res.Rows = append(res.Rows, nr)
	}
	return res, nil
}
