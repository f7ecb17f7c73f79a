// Package report summarises recent daily movements: total holding value per
// category for the latest dates, and the change between the last two.
package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/interfaces"
)

// Uncategorized labels movements whose scheme has no category.
const Uncategorized = "Uncategorized"

// Row is one category's value on each report date.
type Row struct {
	Category string
	Values   []int64 // aligned with Table.Dates
	Change   *int64  // latest minus previous; nil with fewer than two dates
}

// Latest returns the value on the most recent date.
func (r Row) Latest() int64 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[0]
}

// Table is a pivot of movement values: categories by date, most recent date first.
type Table struct {
	Dates []date.Date
	Rows  []Row
	Total Row
}

// IsEmpty reports whether there was nothing to summarise.
func (t *Table) IsEmpty() bool { return len(t.Dates) == 0 }

// Service builds reports from the movement store.
type Service struct {
	movements interfaces.MovementStore
	logger    *common.Logger
}

// NewService creates a report service
func NewService(movements interfaces.MovementStore, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{movements: movements, logger: logger}
}

// Build pivots the movements of the n most recent stored dates.
func (s *Service) Build(ctx context.Context, n int) (*Table, error) {
	if n < 1 {
		return nil, fmt.Errorf("report needs at least one date, got %d", n)
	}

	dates, err := s.movements.RecentDates(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent dates: %w", err)
	}
	if len(dates) == 0 {
		return &Table{}, nil
	}

	movements, err := s.movements.ListByDates(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to read movements: %w", err)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	col := make(map[date.Date]int, len(dates))
	for i, d := range dates {
		col[d] = i
	}

	byCategory := make(map[string][]int64)
	for _, m := range movements {
		i, ok := col[m.NavDate]
		if !ok {
			continue
		}
		category := m.Category
		if category == "" {
			category = Uncategorized
		}
		values, ok := byCategory[category]
		if !ok {
			values = make([]int64, len(dates))
			byCategory[category] = values
		}
		if m.Value != nil {
			values[i] += *m.Value
		}
	}

	table := &Table{Dates: dates, Total: Row{Category: "Total", Values: make([]int64, len(dates))}}
	for category, values := range byCategory {
		table.Rows = append(table.Rows, Row{Category: category, Values: values, Change: change(values)})
		for i, v := range values {
			table.Total.Values[i] += v
		}
	}
	table.Total.Change = change(table.Total.Values)

	sort.Slice(table.Rows, func(i, j int) bool {
		a, b := table.Rows[i], table.Rows[j]
		if a.Latest() != b.Latest() {
			return a.Latest() > b.Latest()
		}
		return a.Category < b.Category
	})

	s.logger.Debug().
		Int("dates", len(dates)).
		Int("categories", len(table.Rows)).
		Int("movements", len(movements)).
		Msg("Report built")

	return table, nil
}

func change(values []int64) *int64 {
	if len(values) < 2 {
		return nil
	}
	c := values[0] - values[1]
	return &c
}
