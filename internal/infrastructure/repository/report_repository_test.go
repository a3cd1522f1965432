package repository

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
	"github.com/storesync/reconciliation-backend/internal/testutil/fixtures"
)

// memReportStore mirrors the SQL semantics of ReportRepository in memory so
// the repository contract (ordering, offset math, sweep idempotency) can be
// exercised without a database
type memReportStore struct {
	reports []*reconciliation.Report
}

var _ reconciliation.ReportRepository = (*memReportStore)(nil)

func (s *memReportStore) Save(_ context.Context, report *reconciliation.Report) error {
	clone := *report
	s.reports = append(s.reports, &clone)
	return nil
}

func (s *memReportStore) Finalize(_ context.Context, report *reconciliation.Report) error {
	for _, stored := range s.reports {
		if stored.ID == report.ID {
			stored.Status = report.Status
			stored.Error = report.Error
			stored.Summary = report.Summary
			stored.Discrepancies = report.Discrepancies
			return nil
		}
	}
	return ErrNotFound
}

func (s *memReportStore) GetByID(_ context.Context, id uuid.UUID) (*reconciliation.Report, error) {
	for _, stored := range s.reports {
		if stored.ID == id {
			return stored, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memReportStore) GetLatest(_ context.Context) (*reconciliation.Report, error) {
	ordered := s.ordered()
	if len(ordered) == 0 {
		return nil, ErrNotFound
	}
	return ordered[0], nil
}

func (s *memReportStore) List(_ context.Context, page, perPage int) (*reconciliation.ReportPage, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page < 1 {
		page = 1
	}

	ordered := s.ordered()
	total := len(ordered)

	offset := (page - 1) * perPage
	if offset > total {
		offset = total
	}
	limit := offset + perPage
	if limit > total {
		limit = total
	}

	return &reconciliation.ReportPage{
		Reports: ordered[offset:limit],
		Pages:   pageCount(total, perPage),
		Total:   total,
	}, nil
}

func (s *memReportStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	for i, stored := range s.reports {
		if stored.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memReportStore) DeleteAll(_ context.Context) (int64, error) {
	removed := int64(len(s.reports))
	s.reports = nil
	return removed, nil
}

func (s *memReportStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*reconciliation.Report
	var removed int64
	for _, stored := range s.reports {
		if stored.GeneratedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, stored)
	}
	s.reports = kept
	return removed, nil
}

func (s *memReportStore) MarkStaleReportsFailed(_ context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	var swept int64
	for _, stored := range s.reports {
		if stored.Status == reconciliation.StatusRunning && stored.GeneratedAt.Before(cutoff) {
			stored.Status = reconciliation.StatusFailed
			stored.Error = staleRunError
			swept++
		}
	}
	return swept, nil
}

func (s *memReportStore) ordered() []*reconciliation.Report {
	ordered := make([]*reconciliation.Report, len(s.reports))
	copy(ordered, s.reports)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].GeneratedAt.After(ordered[j].GeneratedAt)
	})
	return ordered
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		perPage int
		want    int
	}{
		{"empty table", 0, 10, 0},
		{"exact multiple", 20, 10, 2},
		{"partial last page", 25, 10, 3},
		{"fewer rows than a page", 3, 10, 1},
		{"single row", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageCount(tt.total, tt.perPage))
		})
	}
}

func seedReports(t *testing.T, store *memReportStore, count int, base time.Time) {
	t.Helper()
	for i := 0; i < count; i++ {
		mock := &reconciliation.MockClock{CurrentTime: base.Add(time.Duration(i) * time.Hour)}
		reconciliation.SetClock(mock)
		require.NoError(t, store.Save(context.Background(),
			fixtures.NewReportBuilder(t).Build()))
	}
	reconciliation.ResetClock()
}

func TestList_PaginationOverTwentyFiveReports(t *testing.T) {
	store := &memReportStore{}
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedReports(t, store, 25, base)

	page, err := store.List(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Reports, 10)

	// descending generated_at: page 2 of 10 holds reports ranked 11-20,
	// i.e. seeded hours 14 down to 5
	assert.Equal(t, base.Add(14*time.Hour), page.Reports[0].GeneratedAt)
	assert.Equal(t, base.Add(5*time.Hour), page.Reports[9].GeneratedAt)

	for i := 1; i < len(page.Reports); i++ {
		assert.True(t, page.Reports[i].GeneratedAt.Before(page.Reports[i-1].GeneratedAt),
			"reports must be ordered newest first")
	}

	last, err := store.List(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Len(t, last.Reports, 5)

	past, err := store.List(context.Background(), 4, 10)
	require.NoError(t, err)
	assert.Empty(t, past.Reports)
}

func TestMarkStaleReportsFailed_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := &memReportStore{}

	// two stale running reports, one fresh running report
	for _, age := range []time.Duration{3 * time.Hour, 2 * time.Hour, 5 * time.Minute} {
		mock := &reconciliation.MockClock{CurrentTime: time.Now().UTC().Add(-age)}
		reconciliation.SetClock(mock)
		require.NoError(t, store.Save(ctx, fixtures.NewReportBuilder(t).BuildRunning()))
	}
	reconciliation.ResetClock()

	swept, err := store.MarkStaleReportsFailed(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), swept)

	// swept rows carry the diagnostic and the young run is untouched
	var running, failed int
	for _, r := range store.reports {
		switch r.Status {
		case reconciliation.StatusFailed:
			failed++
			assert.Equal(t, staleRunError, r.Error)
		case reconciliation.StatusRunning:
			running++
		}
	}
	assert.Equal(t, 2, failed)
	assert.Equal(t, 1, running)

	// a second sweep matches nothing: the status predicate no longer holds
	swept, err = store.MarkStaleReportsFailed(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestMarshalReportBody_CompletedReport(t *testing.T) {
	order := fixtures.NewOrderBuilder("#42").WithTotal(120.00).Build()
	report := fixtures.NewReportBuilder(t).
		WithSummary(reconciliation.Summary{
			TotalWCOrders:    1,
			MissingInZoho:    1,
			AmountDifference: values.Zero(values.USD),
		}).
		WithDiscrepancies(reconciliation.NewMissingInZoho(order)).
		Build()

	summary, discrepancies, err := marshalReportBody(report)
	require.NoError(t, err)

	var gotSummary reconciliation.Summary
	require.NoError(t, json.Unmarshal(summary, &gotSummary))
	assert.Equal(t, 1, gotSummary.TotalWCOrders)

	var gotDiscrepancies []reconciliation.Discrepancy
	require.NoError(t, json.Unmarshal(discrepancies, &gotDiscrepancies))
	require.Len(t, gotDiscrepancies, 1)
	assert.Equal(t, reconciliation.DiscrepancyMissingInZoho, gotDiscrepancies[0].Type)
	assert.Equal(t, "#42", gotDiscrepancies[0].OrderNumber)
}

func TestMarshalReportBody_FailedReportHasNoBody(t *testing.T) {
	report := fixtures.NewReportBuilder(t).WithFailure("upstream down").Build()

	summary, discrepancies, err := marshalReportBody(report)
	require.NoError(t, err)
	assert.Nil(t, summary)
	assert.Nil(t, discrepancies)
}
