// Package pipeline drives the daily fetch, parse, reconcile and persist cycle
// over every date missing from the movement store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/navsync/internal/clients/amfi"
	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/models"
	"github.com/bobmcallan/navsync/internal/services/navparse"
	"github.com/bobmcallan/navsync/internal/services/reconcile"
)

// Window is the inclusive range of dates a gap run covers.
type Window struct {
	From     date.Date
	To       date.Date
	UpToDate bool
}

// Dates lists the window's dates in ascending order.
func (w Window) Dates() []date.Date {
	if w.UpToDate {
		return nil
	}
	return date.Range(w.From, w.To)
}

// Scheduler runs the ingestion pipeline one date at a time.
type Scheduler struct {
	fetcher    interfaces.NavFetcher
	parser     *navparse.Parser
	reconciler *reconcile.Reconciler
	schemes    interfaces.SchemeSource
	movements  interfaces.MovementStore
	runs       interfaces.RunStore
	now        func() time.Time
	loc        *time.Location
	logger     *common.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the wall clock used to compute "yesterday".
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation sets the time zone in which "yesterday" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRunStore enables the run journal.
func WithRunStore(runs interfaces.RunStore) Option {
	return func(s *Scheduler) { s.runs = runs }
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler wires the pipeline stages together.
func NewScheduler(
	fetcher interfaces.NavFetcher,
	parser *navparse.Parser,
	reconciler *reconcile.Reconciler,
	schemes interfaces.SchemeSource,
	movements interfaces.MovementStore,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		fetcher:    fetcher,
		parser:     parser,
		reconciler: reconciler,
		schemes:    schemes,
		movements:  movements,
		now:        time.Now,
		loc:        time.UTC,
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = navparse.NewParser(navparse.WithLogger(s.logger))
	}
	if s.reconciler == nil {
		s.reconciler = reconcile.NewReconciler(s.logger)
	}
	return s
}

// Plan computes the coverage gap: from the day after the latest stored date
// (or yesterday on an empty store) through yesterday.
func (s *Scheduler) Plan(ctx context.Context) (Window, error) {
	yesterday := date.Yesterday(s.now(), s.loc)

	latest, ok, err := s.movements.LatestDate(ctx)
	if err != nil {
		return Window{}, fmt.Errorf("failed to read latest stored date: %w", err)
	}

	from := yesterday
	if ok {
		from = latest.Add(1)
	}
	return Window{From: from, To: yesterday, UpToDate: from.After(yesterday)}, nil
}

// RunGap processes every date in the coverage gap, oldest first. Per-date
// failures are recorded in the report; an error is returned only when the
// gap cannot be planned or the context is cancelled.
func (s *Scheduler) RunGap(ctx context.Context) (*models.RunReport, error) {
	window, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}

	report := s.newReport(models.RunModeGap, window.From, window.To)
	if window.UpToDate {
		report.UpToDate = true
		report.FinishedAt = s.now()
		s.logger.Info().Str("latest", window.From.Add(-1).String()).Msg("Movements up to date")
		s.journal(ctx, report)
		return report, nil
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Str("from", window.From.String()).
		Str("to", window.To.String()).
		Int("dates", len(window.Dates())).
		Msg("Filling coverage gap")

	err = s.run(ctx, report, window.Dates())
	return report, err
}

// RunDate processes a single explicit date regardless of what is stored.
func (s *Scheduler) RunDate(ctx context.Context, day date.Date) (*models.RunReport, error) {
	report := s.newReport(models.RunModeSingle, day, day)
	err := s.run(ctx, report, []date.Date{day})
	return report, err
}

func (s *Scheduler) newReport(mode string, from, to date.Date) *models.RunReport {
	return &models.RunReport{
		RunID:     uuid.New().String(),
		Mode:      mode,
		StartedAt: s.now(),
		From:      from,
		To:        to,
	}
}

func (s *Scheduler) run(ctx context.Context, report *models.RunReport, dates []date.Date) error {
	state := &runState{}
	var runErr error

	for _, day := range dates {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		outcome := s.processDate(ctx, state, day)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.FinishedAt = s.now()
	total := report.Totals()
	s.logger.Info().
		Str("run_id", report.RunID).
		Str("mode", report.Mode).
		Int("processed", len(report.Processed())).
		Int("skipped", len(report.Skipped())).
		Int("failed", len(report.Failed())).
		Int("inserted", total.Inserted).
		Int("updated", total.Updated).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Run complete")

	s.journal(ctx, report)
	return runErr
}

// runState carries the active scheme table across the dates of one run.
type runState struct {
	schemes []models.ActiveScheme
	loaded  bool
}

func (s *Scheduler) activeSchemes(ctx context.Context, state *runState) ([]models.ActiveScheme, error) {
	if state.loaded {
		return state.schemes, nil
	}
	schemes, err := s.schemes.ListActiveSchemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active schemes: %w", err)
	}
	state.schemes = schemes
	state.loaded = true
	s.logger.Debug().Int("schemes", len(schemes)).Msg("Active schemes loaded")
	return schemes, nil
}

// processDate runs one date through the pipeline. A panic in any stage fails
// the date only.
func (s *Scheduler) processDate(ctx context.Context, state *runState, day date.Date) (outcome models.DateOutcome) {
	outcome = models.DateOutcome{Date: day}
	ds := day.String()

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = models.DateFailed
			outcome.Error = fmt.Sprintf("panic: %v", r)
			s.logger.Error().
				Str("date", ds).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic while processing date")
		}
	}()

	fail := func(err error) models.DateOutcome {
		outcome.Status = models.DateFailed
		outcome.Error = err.Error()
		s.logger.Warn().Err(err).Str("date", ds).Msg("Date failed")
		return outcome
	}

	raw, err := s.fetcher.Fetch(ctx, day)
	if err != nil {
		if errors.Is(err, amfi.ErrDataNotAvailable) {
			outcome.Status = models.DateSkipped
			s.logger.Info().Str("date", ds).Msg("No NAV data published, skipped")
			return outcome
		}
		return fail(err)
	}

	parsed, err := s.parser.Parse(raw)
	if err != nil {
		return fail(fmt.Errorf("failed to parse NAV report: %w", err))
	}
	rows := fillDates(parsed.Rows, day)
	outcome.Rows = len(rows)

	schemes, err := s.activeSchemes(ctx, state)
	if err != nil {
		return fail(err)
	}

	movements, stats := s.reconciler.Reconcile(rows, schemes)
	outcome.Matched = len(movements)

	result, err := s.movements.BulkUpsert(ctx, movements)
	outcome.Upsert = result
	if err != nil {
		return fail(fmt.Errorf("failed to persist movements: %w", err))
	}

	outcome.Status = models.DateProcessed
	s.logger.Info().
		Str("date", ds).
		Str("format", parsed.Format).
		Int("rows", outcome.Rows).
		Int("anomalies", len(parsed.Anomalies)).
		Int("matched", outcome.Matched).
		Int("unmatched", stats.Unmatched).
		Int("null_values", stats.NullValues).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Msg("Date processed")
	return outcome
}

// fillDates assigns the requested date to rows whose own date was missing or
// unreadable.
func fillDates(rows []models.NavRow, day date.Date) []models.NavRow {
	for i := range rows {
		if rows[i].NavDate.IsZero() {
			rows[i].NavDate = day
		}
	}
	return rows
}

func (s *Scheduler) journal(ctx context.Context, report *models.RunReport) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), report); err != nil {
		s.logger.Warn().Err(err).Str("run_id", report.RunID).Msg("Failed to record run")
	}
}
