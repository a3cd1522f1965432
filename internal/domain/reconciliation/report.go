package reconciliation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// Status is the report lifecycle state
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status permits no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus converts a stored string into a Status, defaulting to pending
// for anything unrecognized
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusRunning, StatusCompleted, StatusFailed:
		return Status(s)
	default:
		return StatusPending
	}
}

// Summary is the fixed-shape aggregate recomputed from the discrepancy list
// on every run. It is never persisted apart from its Report.
type Summary struct {
	TotalWCOrders     int          `json:"total_wc_orders"`
	TotalZohoInvoices int          `json:"total_zoho_invoices"`
	MatchedCount      int          `json:"matched_count"`
	MissingInZoho     int          `json:"missing_in_zoho"`
	MissingInWC       int          `json:"missing_in_wc"`
	AmountMismatches  int          `json:"amount_mismatches"`
	PaymentMismatches int          `json:"payment_mismatches"`
	RefundMismatches  int          `json:"refund_mismatches"`
	StatusMismatches  int          `json:"status_mismatches"`
	AmountDifference  values.Money `json:"amount_difference"`
}

// Report is one immutable reconciliation run result. It is created in the
// running state, finalized exactly once to completed or failed, and after
// that mutated only by explicit deletion. A crashed run leaves the row in
// running until the stale sweep reclaims it.
type Report struct {
	ID            uuid.UUID     `json:"id"`
	PeriodStart   time.Time     `json:"period_start"`
	PeriodEnd     time.Time     `json:"period_end"`
	Status        Status        `json:"status"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Error         string        `json:"error,omitempty"`
	Summary       *Summary      `json:"summary,omitempty"`
	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`
}

// NewReport creates a running report for the given period. GeneratedAt is
// set once here and never updated.
func NewReport(period values.Period) *Report {
	return &Report{
		ID:          uuid.New(),
		PeriodStart: period.Start(),
		PeriodEnd:   period.End(),
		Status:      StatusRunning,
		GeneratedAt: clock.Now().UTC(),
	}
}

// Complete transitions running → completed, attaching the summary and the
// ordered discrepancy list
func (r *Report) Complete(summary Summary, discrepancies []Discrepancy) error {
	if r.Status != StatusRunning {
		return fmt.Errorf("cannot complete report in status %s", r.Status)
	}
	r.Status = StatusCompleted
	r.Summary = &summary
	r.Discrepancies = discrepancies
	r.Error = ""
	return nil
}

// Fail transitions running → failed with the diagnostic message preserved
func (r *Report) Fail(message string) error {
	if r.Status != StatusRunning {
		return fmt.Errorf("cannot fail report in status %s", r.Status)
	}
	r.Status = StatusFailed
	r.Error = message
	r.Summary = nil
	r.Discrepancies = nil
	return nil
}

// DiscrepancyCount returns the number of recorded discrepancies
func (r *Report) DiscrepancyCount() int {
	return len(r.Discrepancies)
}

// HasDiscrepancies reports whether the run found any issues
func (r *Report) HasDiscrepancies() bool {
	return len(r.Discrepancies) > 0
}
