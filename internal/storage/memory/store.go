// Package memory implements the navsync stores in process memory. It backs
// the "memory" storage backend and the pipeline tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/models"
)

// MovementStore keeps daily movements keyed by (scheme, date).
type MovementStore struct {
	mu      sync.RWMutex
	records map[models.MovementKey]models.DailyMovement
}

// NewMovementStore creates an empty movement store
func NewMovementStore() *MovementStore {
	return &MovementStore{records: make(map[models.MovementKey]models.DailyMovement)}
}

func (s *MovementStore) LatestDate(_ context.Context) (date.Date, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest date.Date
	for k := range s.records {
		if k.Date.After(latest) {
			latest = k.Date
		}
	}
	return latest, !latest.IsZero(), nil
}

func (s *MovementStore) BulkUpsert(ctx context.Context, records []models.DailyMovement) (models.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.UpsertResult
	var errs []error
	for _, m := range records {
		if err := ctx.Err(); err != nil {
			result.Failed++
			errs = append(errs, err)
			continue
		}
		key := m.Key()
		if key.Code == "" || key.Date.IsZero() {
			result.Failed++
			errs = append(errs, fmt.Errorf("movement %q on %q has no identity", m.SchemeCode, m.NavDate))
			continue
		}
		if _, exists := s.records[key]; exists {
			result.Updated++
		} else {
			result.Inserted++
		}
		s.records[key] = m
	}

	if len(errs) > 0 {
		return result, &models.BatchError{Failed: result.Failed, Total: len(records), Err: errors.Join(errs...)}
	}
	return result, nil
}

func (s *MovementStore) RecentDates(_ context.Context, n int) ([]date.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[date.Date]struct{})
	var dates []date.Date
	for k := range s.records {
		if _, ok := seen[k.Date]; ok {
			continue
		}
		seen[k.Date] = struct{}{}
		dates = append(dates, k.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	if n > 0 && len(dates) > n {
		dates = dates[:n]
	}
	return dates, nil
}

func (s *MovementStore) ListByDates(_ context.Context, dates []date.Date) ([]models.DailyMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[date.Date]struct{}, len(dates))
	for _, d := range dates {
		want[d] = struct{}{}
	}

	var out []models.DailyMovement
	for k, m := range s.records {
		if _, ok := want[k.Date]; ok {
			out = append(out, m)
		}
	}
	sortMovements(out)
	return out, nil
}

// Get returns the stored movement for a key.
func (s *MovementStore) Get(key models.MovementKey) (models.DailyMovement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.records[key]
	return m, ok
}

// Len returns the number of stored movements.
func (s *MovementStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func sortMovements(ms []models.DailyMovement) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].NavDate != ms[j].NavDate {
			return ms[i].NavDate.Before(ms[j].NavDate)
		}
		return ms[i].SchemeCode.Key() < ms[j].SchemeCode.Key()
	})
}

// SchemeStore keeps the active scheme table keyed by scheme code.
type SchemeStore struct {
	mu      sync.RWMutex
	order   []string
	schemes map[string]models.ActiveScheme
}

// NewSchemeStore creates a scheme store holding the given schemes.
func NewSchemeStore(schemes ...models.ActiveScheme) *SchemeStore {
	s := &SchemeStore{schemes: make(map[string]models.ActiveScheme)}
	_, _ = s.SaveActiveSchemes(context.Background(), schemes)
	return s
}

func (s *SchemeStore) ListActiveSchemes(_ context.Context) ([]models.ActiveScheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ActiveScheme, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.schemes[key])
	}
	return out, nil
}

func (s *SchemeStore) SaveActiveSchemes(_ context.Context, schemes []models.ActiveScheme) (models.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.UpsertResult
	var errs []error
	for _, sc := range schemes {
		key := sc.SchemeCode.Key()
		if key == "" {
			result.Failed++
			errs = append(errs, fmt.Errorf("scheme %q has no code", sc.SchemeName))
			continue
		}
		if _, exists := s.schemes[key]; exists {
			result.Updated++
		} else {
			result.Inserted++
			s.order = append(s.order, key)
		}
		s.schemes[key] = sc
	}
	if len(errs) > 0 {
		return result, &models.BatchError{Failed: result.Failed, Total: len(schemes), Err: errors.Join(errs...)}
	}
	return result, nil
}

// RunStore keeps the run journal.
type RunStore struct {
	mu   sync.RWMutex
	runs []*models.RunReport
}

// NewRunStore creates an empty run journal
func NewRunStore() *RunStore {
	return &RunStore{}
}

func (s *RunStore) SaveRun(_ context.Context, report *models.RunReport) error {
	if report == nil {
		return fmt.Errorf("run report is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *report
	cp.Outcomes = append([]models.DateOutcome(nil), report.Outcomes...)
	s.runs = append(s.runs, &cp)
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]*models.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.RunReport
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.runs[i])
	}
	return out, nil
}

// Manager implements interfaces.StorageManager in memory.
type Manager struct {
	movements *MovementStore
	schemes   *SchemeStore
	runs      *RunStore
}

// NewManager creates an empty in-memory storage manager.
func NewManager(logger *common.Logger) *Manager {
	if logger != nil {
		logger.Info().Msg("In-memory storage manager initialized")
	}
	return &Manager{
		movements: NewMovementStore(),
		schemes:   NewSchemeStore(),
		runs:      NewRunStore(),
	}
}

func (m *Manager) MovementStore() interfaces.MovementStore { return m.movements }
func (m *Manager) SchemeStore() interfaces.SchemeStore     { return m.schemes }
func (m *Manager) RunStore() interfaces.RunStore           { return m.runs }
func (m *Manager) Close() error                            { return nil }

// Compile-time checks
var (
	_ interfaces.StorageManager = (*Manager)(nil)
	_ interfaces.MovementStore  = (*MovementStore)(nil)
	_ interfaces.SchemeStore    = (*SchemeStore)(nil)
	_ interfaces.RunStore       = (*RunStore)(nil)
)
