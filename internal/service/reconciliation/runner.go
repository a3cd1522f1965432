package reconciliation

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/storesync/reconciliation-backend/internal/domain/errors"
)

const defaultPollInterval = time.Minute

// Runner drives scheduled reconciliation. It polls on a fixed interval and
// fires a run whenever the schedule says one is due, using the most recent
// report as the "last run" marker so restarts never double-fire within a
// period.
type Runner struct {
	service  Service
	settings SettingsProvider
	schedule Schedule
	logger   *slog.Logger
	interval time.Duration
}

// NewRunner creates a schedule loop around the service
func NewRunner(service Service, settings SettingsProvider, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		service:  service,
		settings: settings,
		logger:   logger,
		interval: defaultPollInterval,
	}
}

// Start blocks until the context is cancelled, checking the schedule once
// per interval
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "schedule runner started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "schedule runner stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	settings, err := r.settings.Load(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "schedule tick: loading settings failed", "error", err)
		return
	}
	settings.Normalize()
	if !settings.Enabled {
		return
	}

	now := time.Now().UTC()
	lastRun := r.lastRunAt(ctx)
	if !r.schedule.Due(settings, lastRun, now) {
		return
	}

	start, end := r.schedule.Period(settings.Frequency, now)
	r.logger.InfoContext(ctx, "scheduled reconciliation due",
		"frequency", settings.Frequency,
		"period_start", start.Format("2006-01-02"),
		"period_end", end.Format("2006-01-02"))

	report, err := r.service.Run(ctx, start, end)
	if err != nil {
		if stderrors.Is(err, errors.ErrRunInProgress) {
			r.logger.InfoContext(ctx, "scheduled run skipped, another run in progress")
			return
		}
		r.logger.ErrorContext(ctx, "scheduled run failed to start", "error", err)
		return
	}

	r.logger.InfoContext(ctx, "scheduled run finished",
		"report_id", report.ID,
		"status", report.Status)
}

// lastRunAt reads the newest report's timestamp; a missing report means no
// run has ever happened
func (r *Runner) lastRunAt(ctx context.Context) *time.Time {
	latest, err := r.service.GetLatestReport(ctx)
	if err != nil {
		if !stderrors.Is(err, errors.ErrReportNotFound) {
			r.logger.WarnContext(ctx, "schedule tick: loading latest report failed", "error", err)
		}
		return nil
	}
	t := latest.GeneratedAt
	return &t
}
