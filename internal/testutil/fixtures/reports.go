package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// ReportBuilder builds test Report values through the real lifecycle so
// fixtures can never be in a state the domain forbids
type ReportBuilder struct {
	t             *testing.T
	period        values.Period
	summary       reconciliation.Summary
	discrepancies []reconciliation.Discrepancy
	failMessage   string
}

// NewReportBuilder creates a ReportBuilder for January 2024
func NewReportBuilder(t *testing.T) *ReportBuilder {
	return &ReportBuilder{
		t: t,
		period: values.MustNewPeriod(
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
		summary: reconciliation.Summary{
			AmountDifference: values.Zero(values.USD),
		},
	}
}

func (b *ReportBuilder) WithPeriod(start, end time.Time) *ReportBuilder {
	b.period = values.MustNewPeriod(start, end)
	return b
}

func (b *ReportBuilder) WithSummary(summary reconciliation.Summary) *ReportBuilder {
	b.summary = summary
	return b
}

func (b *ReportBuilder) WithDiscrepancies(discrepancies ...reconciliation.Discrepancy) *ReportBuilder {
	b.discrepancies = discrepancies
	return b
}

func (b *ReportBuilder) WithFailure(message string) *ReportBuilder {
	b.failMessage = message
	return b
}

// BuildRunning returns a report still in the running state
func (b *ReportBuilder) BuildRunning() *reconciliation.Report {
	return reconciliation.NewReport(b.period)
}

// Build returns a terminal report: failed when WithFailure was used,
// otherwise completed
func (b *ReportBuilder) Build() *reconciliation.Report {
	report := reconciliation.NewReport(b.period)
	if b.failMessage != "" {
		require.NoError(b.t, report.Fail(b.failMessage))
		return report
	}
	require.NoError(b.t, report.Complete(b.summary, b.discrepancies))
	return report
}
