package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RunStore is the job_runs journal.
// Record ID format: job_runs:<run id>
type RunStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewRunStore(db *surrealdb.DB, logger *common.Logger) *RunStore {
	return &RunStore{
		db:     db,
		logger: logger,
	}
}

type outcomeDoc struct {
	Date    string              `json:"date"`
	Status  string              `json:"status"`
	Rows    int                 `json:"rows"`
	Matched int                 `json:"matched"`
	Upsert  models.UpsertResult `json:"upsert"`
	Error   string              `json:"error,omitempty"`
}

type runDoc struct {
	RunID      string       `json:"run_id"`
	Mode       string       `json:"mode"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	UpToDate   bool         `json:"up_to_date"`
	Outcomes   []outcomeDoc `json:"outcomes"`
}

func toRunDoc(r *models.RunReport) runDoc {
	doc := runDoc{
		RunID:      r.RunID,
		Mode:       r.Mode,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		From:       r.From.String(),
		To:         r.To.String(),
		UpToDate:   r.UpToDate,
	}
	for _, o := range r.Outcomes {
		doc.Outcomes = append(doc.Outcomes, outcomeDoc{
			Date:    o.Date.String(),
			Status:  string(o.Status),
			Rows:    o.Rows,
			Matched: o.Matched,
			Upsert:  o.Upsert,
			Error:   o.Error,
		})
	}
	return doc
}

func (d runDoc) toModel() *models.RunReport {
	parse := func(s string) date.Date {
		v, _ := date.Parse(s)
		return v
	}
	r := &models.RunReport{
		RunID:      d.RunID,
		Mode:       d.Mode,
		StartedAt:  d.StartedAt,
		FinishedAt: d.FinishedAt,
		From:       parse(d.From),
		To:         parse(d.To),
		UpToDate:   d.UpToDate,
	}
	for _, o := range d.Outcomes {
		r.Outcomes = append(r.Outcomes, models.DateOutcome{
			Date:    parse(o.Date),
			Status:  models.DateStatus(o.Status),
			Rows:    o.Rows,
			Matched: o.Matched,
			Upsert:  o.Upsert,
			Error:   o.Error,
		})
	}
	return r
}

func (s *RunStore) SaveRun(ctx context.Context, report *models.RunReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("run report has no id")
	}
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(tableRuns, report.RunID), "data": toRunDoc(report)}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]runDoc](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save run after retries: %w", lastErr)
}

// ListRuns returns up to limit runs, most recent first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error) {
	if limit <= 0 {
		limit = 100
	}
	sql := "SELECT * FROM job_runs ORDER BY started_at DESC LIMIT $limit"
	vars := map[string]any{"limit": limit}

	results, err := surrealdb.Query[[]runDoc](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var out []*models.RunReport
	if results != nil && len(*results) > 0 {
		for _, doc := range (*results)[0].Result {
			out = append(out, doc.toModel())
		}
	}
	return out, nil
}

// Compile-time check
var _ interfaces.RunStore = (*RunStore)(nil)
