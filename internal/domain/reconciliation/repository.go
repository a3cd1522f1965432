package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReportPage is one page of a descending generated_at listing
type ReportPage struct {
	Reports []*Report `json:"reports"`
	Pages   int       `json:"pages"`
	Total   int       `json:"total"`
}

// ReportRepository is the durable store for reconciliation reports. Rows are
// append-only apart from finalization, the stale sweep's forced transition,
// and explicit deletion.
type ReportRepository interface {
	// Save inserts a freshly created running report
	Save(ctx context.Context, report *Report) error

	// Finalize persists the terminal state (completed or failed) of a report
	Finalize(ctx context.Context, report *Report) error

	// GetByID retrieves one report with its summary and discrepancies
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// GetLatest returns the most recent report by generated_at, or
	// ErrReportNotFound when none exist
	GetLatest(ctx context.Context) (*Report, error)

	// List returns the requested page ordered by generated_at descending.
	// Page clamping is the caller's concern, not the repository's.
	List(ctx context.Context, page, perPage int) (*ReportPage, error)

	// Delete removes one report; returns false when no row matched
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteAll removes every report and returns the count removed
	DeleteAll(ctx context.Context) (int64, error)

	// DeleteOlderThan removes reports generated before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// MarkStaleReportsFailed force-fails running reports whose generated_at
	// is older than the threshold. Idempotent; younger running rows are left
	// alone since they may legitimately still be executing.
	MarkStaleReportsFailed(ctx context.Context, threshold time.Duration) (int64, error)
}
