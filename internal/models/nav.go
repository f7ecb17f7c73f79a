package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/navsync/internal/date"
)

// SchemeCode identifies a mutual fund scheme. Upstream generations have
// published it both as a number and as text, so it is kept as text and
// compared through Key.
type SchemeCode string

// Key returns the join key: the canonical integer when the code is numeric
// ("0101", "101.0" and 101 all give "101"), otherwise the trimmed text.
func (c SchemeCode) Key() string {
	s := strings.TrimSpace(string(c))
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if d, err := decimal.NewFromString(s); err == nil {
		if i := d.Truncate(0); i.Equal(d) {
			return i.String()
		}
	}
	return s
}

// IsEmpty reports whether the code carries no identifier.
func (c SchemeCode) IsEmpty() bool { return c.Key() == "" }

func (c SchemeCode) String() string { return strings.TrimSpace(string(c)) }

// SchemeCodeFrom coerces a stored value (number or text) into a SchemeCode.
func SchemeCodeFrom(v any) SchemeCode {
	switch t := v.(type) {
	case nil:
		return ""
	case SchemeCode:
		return t
	case string:
		return SchemeCode(strings.TrimSpace(t))
	case int:
		return SchemeCode(strconv.Itoa(t))
	case int32:
		return SchemeCode(strconv.FormatInt(int64(t), 10))
	case int64:
		return SchemeCode(strconv.FormatInt(t, 10))
	case uint64:
		return SchemeCode(strconv.FormatUint(t, 10))
	case float32:
		return SchemeCode(strconv.FormatFloat(float64(t), 'f', -1, 32))
	case float64:
		return SchemeCode(strconv.FormatFloat(t, 'f', -1, 64))
	case fmt.Stringer:
		return SchemeCode(strings.TrimSpace(t.String()))
	default:
		return SchemeCode(strings.TrimSpace(fmt.Sprint(t)))
	}
}

// ParseAmount parses a numeric field as published upstream: thousands
// separators and surrounding blanks are ignored, placeholders such as
// "N.A." or "-" yield an invalid NullDecimal.
func ParseAmount(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// AmountFrom coerces a stored value (number or text) into a NullDecimal.
func AmountFrom(v any) decimal.NullDecimal {
	switch t := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NewNullDecimal(t)
	case decimal.NullDecimal:
		return t
	case string:
		return ParseAmount(t)
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(t)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(t))
	case uint64:
		return ParseAmount(strconv.FormatUint(t, 10))
	case float32:
		return AmountFrom(float64(t))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(t))
	default:
		return ParseAmount(fmt.Sprint(t))
	}
}

// NavRow is one scheme's NAV for one day as read from the upstream report.
type NavRow struct {
	SchemeCode SchemeCode
	SchemeName string
	NAV        decimal.NullDecimal
	NavDate    date.Date // zero when the report's date could not be read
}

// ActiveScheme is a scheme being tracked together with the units currently held.
type ActiveScheme struct {
	SchemeCode  SchemeCode
	SchemeName  string
	ActiveUnits decimal.NullDecimal
	Category    string
}
