package models

import (
	"time"

	"github.com/bobmcallan/navsync/internal/date"
)

// DateStatus is the outcome of processing one date.
type DateStatus string

const (
	DateProcessed DateStatus = "processed"
	DateSkipped   DateStatus = "skipped" // upstream published nothing for the date
	DateFailed    DateStatus = "failed"
)

// Run modes
const (
	RunModeGap    = "gap"
	RunModeSingle = "single"
)

// DateOutcome records what happened to a single date in a run.
type DateOutcome struct {
	Date    date.Date    `json:"date"`
	Status  DateStatus   `json:"status"`
	Rows    int          `json:"rows"`
	Matched int          `json:"matched"`
	Upsert  UpsertResult `json:"upsert"`
	Error   string       `json:"error,omitempty"`
}

// RunReport is the result of one scheduler run: one outcome per attempted date.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Mode       string        `json:"mode"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	From       date.Date     `json:"from"`
	To         date.Date     `json:"to"`
	UpToDate   bool          `json:"up_to_date"`
	Outcomes   []DateOutcome `json:"outcomes"`
}

func (r *RunReport) datesWith(status DateStatus) []date.Date {
	var out []date.Date
	for _, o := range r.Outcomes {
		if o.Status == status {
			out = append(out, o.Date)
		}
	}
	return out
}

// Processed returns the dates that were persisted.
func (r *RunReport) Processed() []date.Date { return r.datesWith(DateProcessed) }

// Skipped returns the dates for which no data was published.
func (r *RunReport) Skipped() []date.Date { return r.datesWith(DateSkipped) }

// Failed returns the dates that could not be processed.
func (r *RunReport) Failed() []date.Date { return r.datesWith(DateFailed) }

// Totals sums the persistence results of every processed date.
func (r *RunReport) Totals() UpsertResult {
	var total UpsertResult
	for _, o := range r.Outcomes {
		total.Add(o.Upsert)
	}
	return total
}
