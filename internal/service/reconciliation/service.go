package reconciliation

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storesync/reconciliation-backend/internal/domain/errors"
	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
	"github.com/storesync/reconciliation-backend/internal/infrastructure/repository"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type service struct {
	reports  reconciliation.ReportRepository
	orders   OrderSource
	invoices InvoiceSource
	settings SettingsProvider
	locker   RunLocker
	notifier Notifier
	metrics  MetricsCollector
	logger   *slog.Logger

	staleThreshold time.Duration
}

// NewService assembles the reconciliation engine. The notifier and metrics
// collector are optional; everything else is required.
func NewService(
	reports reconciliation.ReportRepository,
	orders OrderSource,
	invoices InvoiceSource,
	settings SettingsProvider,
	locker RunLocker,
	notifier Notifier,
	metrics MetricsCollector,
	logger *slog.Logger,
	staleThreshold time.Duration,
) (Service, error) {
	if reports == nil {
		return nil, fmt.Errorf("report repository is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order source is required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice source is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings provider is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("run locker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if staleThreshold <= 0 {
		staleThreshold = 60 * time.Minute
	}

	return &service{
		reports:        reports,
		orders:         orders,
		invoices:       invoices,
		settings:       settings,
		locker:         locker,
		notifier:       notifier,
		metrics:        metrics,
		logger:         logger,
		staleThreshold: staleThreshold,
	}, nil
}

// Run executes one reconciliation over [start, end]. Upstream fetch failures
// finalize the report as failed and return it with a nil error; only
// pre-run problems (bad period, lock contention, persistence failures)
// surface as errors.
func (s *service) Run(ctx context.Context, start, end time.Time) (*reconciliation.Report, error) {
	period, err := values.NewPeriod(start, end)
	if err != nil {
		return nil, errors.ErrInvalidPeriod
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, errors.NewInternalError("failed to load reconciliation settings").WithCause(err)
	}
	settings.Normalize()
	if !settings.Enabled {
		return nil, errors.ErrSettingsDisabled
	}

	// Reclaim orphaned running rows before taking the lock so a crashed
	// predecessor never blocks this run's report from being the latest
	if swept, err := s.reports.MarkStaleReportsFailed(ctx, s.staleThreshold); err != nil {
		s.logger.WarnContext(ctx, "stale report sweep failed", "error", err)
	} else if swept > 0 {
		s.logger.InfoContext(ctx, "swept stale reports", "count", swept)
		if s.metrics != nil {
			s.metrics.StaleReportsSwept(swept)
		}
	}

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		if stderrors.Is(err, errors.ErrRunInProgress) {
			return nil, errors.ErrRunInProgress
		}
		return nil, errors.NewInternalError("failed to acquire run lock").WithCause(err)
	}
	defer release()

	report := reconciliation.NewReport(period)
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, errors.NewInternalError("failed to persist report").WithCause(err)
	}

	if s.metrics != nil {
		s.metrics.RunStarted()
	}
	started := time.Now()

	s.logger.InfoContext(ctx, "reconciliation run started",
		"report_id", report.ID,
		"period", period.String())

	orders, invoices, fetchErr := s.fetchBothSides(ctx, period)
	if fetchErr != nil {
		return s.finalizeFailed(ctx, report, started, fetchErr)
	}

	summary, discrepancies := reconcile(orders, invoices, settings)

	if err := report.Complete(summary, discrepancies); err != nil {
		return nil, errors.NewInternalError("report lifecycle violation").WithCause(err)
	}
	if err := s.reports.Finalize(ctx, report); err != nil {
		return nil, errors.NewInternalError("failed to finalize report").WithCause(err)
	}

	duration := time.Since(started)
	if s.metrics != nil {
		s.metrics.RunFinished(string(reconciliation.StatusCompleted), duration)
		for _, d := range discrepancies {
			s.metrics.DiscrepancyFound(string(d.Type))
		}
	}

	s.logger.InfoContext(ctx, "reconciliation run completed",
		"report_id", report.ID,
		"orders", summary.TotalWCOrders,
		"invoices", summary.TotalZohoInvoices,
		"matched", summary.MatchedCount,
		"discrepancies", len(discrepancies),
		"duration", duration)

	s.applyRetention(ctx, settings)
	s.notify(ctx, report, settings)

	return report, nil
}

// fetchBothSides drains both upstream sources concurrently. The first error
// wins; the other side's result is discarded.
func (s *service) fetchBothSides(ctx context.Context, period values.Period) (
	[]reconciliation.Order, []reconciliation.Invoice, error) {

	var (
		wg       sync.WaitGroup
		orders   []reconciliation.Order
		invoices []reconciliation.Invoice
		orderErr error
		invErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		began := time.Now()
		orders, orderErr = s.orders.ListOrders(ctx, period.Start(), period.End())
		if orderErr == nil && s.metrics != nil {
			s.metrics.FetchCompleted("woocommerce", time.Since(began))
		}
	}()
	go func() {
		defer wg.Done()
		began := time.Now()
		invoices, invErr = s.invoices.ListInvoices(ctx, period.Start(), period.End())
		if invErr == nil && s.metrics != nil {
			s.metrics.FetchCompleted("zoho", time.Since(began))
		}
	}()
	wg.Wait()

	if orderErr != nil {
		return nil, nil, errors.Wrap(orderErr, "failed to fetch WooCommerce orders")
	}
	if invErr != nil {
		return nil, nil, errors.Wrap(invErr, "failed to fetch Zoho invoices")
	}
	return orders, invoices, nil
}

// finalizeFailed records the terminal failed state. The failed report is a
// valid run outcome, so the caller gets it back without an error.
func (s *service) finalizeFailed(ctx context.Context, report *reconciliation.Report,
	started time.Time, cause error) (*reconciliation.Report, error) {

	if err := report.Fail(cause.Error()); err != nil {
		return nil, errors.NewInternalError("report lifecycle violation").WithCause(err)
	}
	if err := s.reports.Finalize(ctx, report); err != nil {
		return nil, errors.NewInternalError("failed to finalize report").WithCause(err)
	}

	if s.metrics != nil {
		s.metrics.RunFinished(string(reconciliation.StatusFailed), time.Since(started))
	}
	s.logger.ErrorContext(ctx, "reconciliation run failed",
		"report_id", report.ID,
		"error", cause)

	return report, nil
}

// applyRetention prunes reports past the configured retention window.
// Pruning failures are logged, never fatal to the run that triggered them.
func (s *service) applyRetention(ctx context.Context, settings reconciliation.Settings) {
	if settings.KeepDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -settings.KeepDays)
	removed, err := s.reports.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WarnContext(ctx, "report retention pruning failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "pruned old reports",
			"count", removed,
			"keep_days", settings.KeepDays)
	}
}

// notify delivers the completion email. Delivery problems never fail a run
// that already completed.
func (s *service) notify(ctx context.Context, report *reconciliation.Report,
	settings reconciliation.Settings) {

	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyCompleted(ctx, report, settings); err != nil {
		s.logger.WarnContext(ctx, "report notification failed",
			"report_id", report.ID,
			"error", err)
	}
}

func (s *service) GetReport(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ErrReportNotFound
		}
		return nil, errors.NewInternalError("failed to load report").WithCause(err)
	}
	return report, nil
}

func (s *service) GetLatestReport(ctx context.Context) (*reconciliation.Report, error) {
	report, err := s.reports.GetLatest(ctx)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ErrReportNotFound
		}
		return nil, errors.NewInternalError("failed to load latest report").WithCause(err)
	}
	return report, nil
}

// ListReports sweeps stale runs first so a crashed run can never present
// itself as perpetually running in the listing
func (s *service) ListReports(ctx context.Context, page, perPage int) (*reconciliation.ReportPage, error) {
	if swept, err := s.reports.MarkStaleReportsFailed(ctx, s.staleThreshold); err != nil {
		s.logger.WarnContext(ctx, "stale report sweep failed", "error", err)
	} else if swept > 0 && s.metrics != nil {
		s.metrics.StaleReportsSwept(swept)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	result, err := s.reports.List(ctx, page, perPage)
	if err != nil {
		return nil, errors.NewInternalError("failed to list reports").WithCause(err)
	}
	return result, nil
}

func (s *service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.reports.Delete(ctx, id)
	if err != nil {
		return errors.NewInternalError("failed to delete report").WithCause(err)
	}
	if !deleted {
		return errors.ErrReportNotFound
	}
	return nil
}

func (s *service) DeleteAllReports(ctx context.Context) (int64, error) {
	removed, err := s.reports.DeleteAll(ctx)
	if err != nil {
		return 0, errors.NewInternalError("failed to delete reports").WithCause(err)
	}
	return removed, nil
}

func (s *service) SweepStaleRuns(ctx context.Context) (int64, error) {
	swept, err := s.reports.MarkStaleReportsFailed(ctx, s.staleThreshold)
	if err != nil {
		return 0, errors.NewInternalError("stale report sweep failed").WithCause(err)
	}
	if swept > 0 && s.metrics != nil {
		s.metrics.StaleReportsSwept(swept)
	}
	return swept, nil
}
