package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/navsync/internal/date"
)

// DailyMovement is the holding value of one scheme on one day. Its identity is
// (SchemeCode, NavDate); persisting the same identity again replaces the record.
type DailyMovement struct {
	SchemeCode  SchemeCode
	SchemeName  string
	NavDate     date.Date
	NAV         decimal.NullDecimal
	ActiveUnits decimal.NullDecimal
	Value       *int64 // nil when NAV or units are unavailable
	WeekOfYear  int
	Year        int
	Category    string
}

// MovementKey is the identity of a DailyMovement.
type MovementKey struct {
	Code string
	Date date.Date
}

// Key returns the movement's identity using the canonical scheme key.
func (m DailyMovement) Key() MovementKey {
	return MovementKey{Code: m.SchemeCode.Key(), Date: m.NavDate}
}

// UpsertResult counts what a batch write did.
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// Add accumulates another result into r.
func (r *UpsertResult) Add(o UpsertResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Failed += o.Failed
}

// BatchError reports the records of a batch write that could not be
// persisted. The rest of the batch was still attempted.
type BatchError struct {
	Failed int
	Total  int
	Err    error // errors.Join of the per-record failures
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d records failed: %v", e.Failed, e.Total, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
