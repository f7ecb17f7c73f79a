package app

import (
	"context"
	"time"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/models"
)

// gapRunner is the part of the pipeline the watch loop drives.
type gapRunner interface {
	RunGap(ctx context.Context) (*models.RunReport, error)
}

// Watch fills the coverage gap immediately and then on every interval tick
// until ctx is cancelled. Runs happen on one goroutine and never overlap.
func (a *App) Watch(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	defer cancel()

	a.Logger.Info().Dur("interval", interval).Msg("Watch: started")
	watch(ctx, a.Scheduler, interval, a.Logger)
}

func watch(ctx context.Context, runner gapRunner, interval time.Duration, logger *common.Logger) {
	fillGap(ctx, runner, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Watch: stopped")
			return
		case <-ticker.C:
			fillGap(ctx, runner, logger)
		}
	}
}

func fillGap(ctx context.Context, runner gapRunner, logger *common.Logger) {
	start := time.Now()

	report, err := runner.RunGap(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Watch: gap fill failed")
		return
	}
	if report.UpToDate {
		logger.Debug().Msg("Watch: nothing to do")
		return
	}

	logger.Info().
		Int("processed", len(report.Processed())).
		Int("skipped", len(report.Skipped())).
		Int("failed", len(report.Failed())).
		Dur("elapsed", time.Since(start)).
		Msg("Watch: gap fill complete")
}
