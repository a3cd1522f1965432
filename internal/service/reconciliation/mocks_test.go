package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
)

type mockReportRepository struct {
	mock.Mock
}

func (m *mockReportRepository) Save(ctx context.Context, report *reconciliation.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *mockReportRepository) Finalize(ctx context.Context, report *reconciliation.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *mockReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Report), args.Error(1)
}

func (m *mockReportRepository) GetLatest(ctx context.Context) (*reconciliation.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Report), args.Error(1)
}

func (m *mockReportRepository) List(ctx context.Context, page, perPage int) (*reconciliation.ReportPage, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.ReportPage), args.Error(1)
}

func (m *mockReportRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockReportRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReportRepository) MarkStaleReportsFailed(ctx context.Context, threshold time.Duration) (int64, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(int64), args.Error(1)
}

type mockOrderSource struct {
	mock.Mock
}

func (m *mockOrderSource) ListOrders(ctx context.Context, start, end time.Time) ([]reconciliation.Order, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.Order), args.Error(1)
}

type mockInvoiceSource struct {
	mock.Mock
}

func (m *mockInvoiceSource) ListInvoices(ctx context.Context, start, end time.Time) ([]reconciliation.Invoice, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.Invoice), args.Error(1)
}

type mockRunLocker struct {
	mock.Mock
}

func (m *mockRunLocker) Acquire(ctx context.Context) (func(), error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyCompleted(ctx context.Context, report *reconciliation.Report,
	settings reconciliation.Settings) error {
	args := m.Called(ctx, report, settings)
	return args.Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(to, subject, textBody string) error {
	args := m.Called(to, subject, textBody)
	return args.Error(0)
}
