// Package interfaces defines service contracts for navsync
package interfaces

import (
	"context"

	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
)

// NavFetcher retrieves the raw NAV report published for one day.
type NavFetcher interface {
	Fetch(ctx context.Context, day date.Date) ([]byte, error)
}

// SchemeSource lists the schemes being tracked.
type SchemeSource interface {
	ListActiveSchemes(ctx context.Context) ([]models.ActiveScheme, error)
}

// MovementStore persists DailyMovement records keyed by (scheme, date).
type MovementStore interface {
	// LatestDate returns the most recent NAV date stored; ok is false when the store is empty.
	LatestDate(ctx context.Context) (latest date.Date, ok bool, err error)

	// BulkUpsert writes every record independently (unordered, not transactional).
	// On partial failure it returns the counts achieved together with an error.
	BulkUpsert(ctx context.Context, records []models.DailyMovement) (models.UpsertResult, error)

	// RecentDates returns up to n distinct stored dates, most recent first.
	RecentDates(ctx context.Context, n int) ([]date.Date, error)

	// ListByDates returns every movement stored for the given dates.
	ListByDates(ctx context.Context, dates []date.Date) ([]models.DailyMovement, error)
}

// SchemeStore manages the active scheme table.
type SchemeStore interface {
	SchemeSource
	SaveActiveSchemes(ctx context.Context, schemes []models.ActiveScheme) (models.UpsertResult, error)
}

// RunStore is the journal of scheduler runs.
type RunStore interface {
	SaveRun(ctx context.Context, report *models.RunReport) error
	ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error)
}

// StorageManager coordinates the stores of one backend
type StorageManager interface {
	MovementStore() MovementStore
	SchemeStore() SchemeStore
	RunStore() RunStore
	Close() error
}
