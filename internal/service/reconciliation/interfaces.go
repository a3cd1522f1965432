package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
)

// OrderSource yields all commerce orders created inside the period. The
// implementation must fully drain its pagination before returning.
type OrderSource interface {
	ListOrders(ctx context.Context, start, end time.Time) ([]reconciliation.Order, error)
}

// InvoiceSource yields all accounting invoices dated inside the period,
// with the same full-drain requirement
type InvoiceSource interface {
	ListInvoices(ctx context.Context, start, end time.Time) ([]reconciliation.Invoice, error)
}

// SettingsProvider supplies the reconciliation settings snapshot. Run reads
// it exactly once at start; later changes never affect a run in progress.
type SettingsProvider interface {
	Load(ctx context.Context) (reconciliation.Settings, error)
}

// RunLocker serializes runs. Acquire returns an error satisfying
// errors.ErrRunInProgress when another run holds the lock.
type RunLocker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Notifier delivers a completed report summary. Suppression rules live in
// the implementation; the engine calls it unconditionally after completion.
type Notifier interface {
	NotifyCompleted(ctx context.Context, report *reconciliation.Report, settings reconciliation.Settings) error
}

// MetricsCollector records engine metrics
type MetricsCollector interface {
	RunStarted()
	RunFinished(status string, duration time.Duration)
	DiscrepancyFound(discrepancyType string)
	FetchCompleted(source string, duration time.Duration)
	StaleReportsSwept(count int64)
}

// Service is the reconciliation engine plus the report read side used by
// the API layer
type Service interface {
	// Run executes one reconciliation over [start, end]. It always returns
	// a terminal report on a started run; upstream failures surface as a
	// failed report, not an error.
	Run(ctx context.Context, start, end time.Time) (*reconciliation.Report, error)

	// GetReport retrieves one report
	GetReport(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error)

	// GetLatestReport returns the most recent report
	GetLatestReport(ctx context.Context) (*reconciliation.Report, error)

	// ListReports returns a page of reports, sweeping stale runs first
	ListReports(ctx context.Context, page, perPage int) (*reconciliation.ReportPage, error)

	// DeleteReport removes one report
	DeleteReport(ctx context.Context, id uuid.UUID) error

	// DeleteAllReports removes every report
	DeleteAllReports(ctx context.Context) (int64, error)

	// SweepStaleRuns force-fails running reports older than the threshold
	SweepStaleRuns(ctx context.Context) (int64, error)
}

// StaticSettings is a SettingsProvider returning a fixed settings value
// loaded from configuration at startup
type StaticSettings struct {
	Settings reconciliation.Settings
}

func (s StaticSettings) Load(ctx context.Context) (reconciliation.Settings, error) {
	return s.Settings, nil
}
