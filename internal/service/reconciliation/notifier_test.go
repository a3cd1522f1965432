package reconciliation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
)

func TestEmailNotifier_SuppressionMatrix(t *testing.T) {
	clean := completedTestReport(t)
	clean.Discrepancies = nil

	dirty := completedTestReport(t)

	tests := []struct {
		name              string
		enabled           bool
		onDiscrepancyOnly bool
		address           string
		report            *reconciliation.Report
		wantSent          bool
	}{
		{"disabled", false, false, "ops@example.com", dirty, false},
		{"no address", true, false, "", dirty, false},
		{"always send, clean run", true, false, "ops@example.com", clean, true},
		{"discrepancy only, clean run", true, true, "ops@example.com", clean, false},
		{"discrepancy only, dirty run", true, true, "ops@example.com", dirty, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := defaultTestSettings()
			settings.EmailEnabled = tt.enabled
			settings.EmailOnDiscrepancyOnly = tt.onDiscrepancyOnly
			settings.EmailAddress = tt.address

			sender := new(mockSender)
			if tt.wantSent {
				sender.On("Send", tt.address, mock.Anything, mock.Anything).Return(nil)
			}

			notifier := NewEmailNotifier(sender, nil)
			err := notifier.NotifyCompleted(context.Background(), tt.report, settings)

			require.NoError(t, err)
			if tt.wantSent {
				sender.AssertCalled(t, "Send", tt.address, mock.Anything, mock.Anything)
			} else {
				sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestEmailNotifier_SubjectReflectsOutcome(t *testing.T) {
	settings := defaultTestSettings()
	settings.EmailEnabled = true
	settings.EmailAddress = "ops@example.com"

	report := completedTestReport(t)

	var gotSubject, gotBody string
	sender := new(mockSender)
	sender.On("Send", "ops@example.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotSubject = args.String(1)
			gotBody = args.String(2)
		}).Return(nil)

	notifier := NewEmailNotifier(sender, nil)
	require.NoError(t, notifier.NotifyCompleted(context.Background(), report, settings))

	assert.Contains(t, gotSubject, "2 discrepancies found")
	assert.Contains(t, gotBody, "Orders checked:")
	assert.Contains(t, gotBody, "missing_in_zoho")
}

func TestEmailNotifier_SendFailurePropagates(t *testing.T) {
	settings := defaultTestSettings()
	settings.EmailEnabled = true
	settings.EmailAddress = "ops@example.com"

	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	notifier := NewEmailNotifier(sender, nil)
	err := notifier.NotifyCompleted(context.Background(), completedTestReport(t), settings)

	assert.Error(t, err)
}
