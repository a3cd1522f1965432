package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
)

// Sender delivers one plain-text message
type Sender interface {
	Send(to, subject, textBody string) error
}

// EmailNotifier turns a completed report into a plain-text summary email.
// Suppression follows the settings snapshot the run was executed with:
// nothing is sent when email is disabled, no address is configured, or the
// on-discrepancy-only flag is set and the run came back clean.
type EmailNotifier struct {
	sender Sender
	logger *slog.Logger
}

// NewEmailNotifier creates a notifier delivering through the given sender
func NewEmailNotifier(sender Sender, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailNotifier{sender: sender, logger: logger}
}

// NotifyCompleted sends the summary email when the settings ask for one
func (n *EmailNotifier) NotifyCompleted(ctx context.Context, report *reconciliation.Report,
	settings reconciliation.Settings) error {

	if !settings.EmailEnabled || settings.EmailAddress == "" {
		return nil
	}
	if settings.EmailOnDiscrepancyOnly && !report.HasDiscrepancies() {
		n.logger.DebugContext(ctx, "notification suppressed, run is clean",
			"report_id", report.ID)
		return nil
	}

	subject := buildSubject(report)
	body := buildBody(report)

	if err := n.sender.Send(settings.EmailAddress, subject, body); err != nil {
		return fmt.Errorf("sending report email: %w", err)
	}

	n.logger.InfoContext(ctx, "report notification sent",
		"report_id", report.ID,
		"discrepancies", report.DiscrepancyCount())
	return nil
}

func buildSubject(report *reconciliation.Report) string {
	count := report.DiscrepancyCount()
	if count == 0 {
		return fmt.Sprintf("Reconciliation %s to %s: all matched",
			report.PeriodStart.Format("2006-01-02"),
			report.PeriodEnd.Format("2006-01-02"))
	}
	return fmt.Sprintf("Reconciliation %s to %s: %d discrepancies found",
		report.PeriodStart.Format("2006-01-02"),
		report.PeriodEnd.Format("2006-01-02"),
		count)
}

func buildBody(report *reconciliation.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reconciliation report for %s to %s\r\n",
		report.PeriodStart.Format("2006-01-02"),
		report.PeriodEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "Generated at %s\r\n\r\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if report.Summary != nil {
		s := report.Summary
		fmt.Fprintf(&b, "Orders checked:        %d\r\n", s.TotalWCOrders)
		fmt.Fprintf(&b, "Invoices checked:      %d\r\n", s.TotalZohoInvoices)
		fmt.Fprintf(&b, "Fully matched:         %d\r\n", s.MatchedCount)
		fmt.Fprintf(&b, "Missing in Zoho:       %d\r\n", s.MissingInZoho)
		fmt.Fprintf(&b, "Missing in WooCommerce: %d\r\n", s.MissingInWC)
		fmt.Fprintf(&b, "Amount mismatches:     %d\r\n", s.AmountMismatches)
		fmt.Fprintf(&b, "Payment mismatches:    %d\r\n", s.PaymentMismatches)
		fmt.Fprintf(&b, "Refund mismatches:     %d\r\n", s.RefundMismatches)
		fmt.Fprintf(&b, "Status mismatches:     %d\r\n", s.StatusMismatches)
		fmt.Fprintf(&b, "Total amount off:      %s\r\n", s.AmountDifference.String())
	}

	if report.HasDiscrepancies() {
		fmt.Fprintf(&b, "\r\nTop findings:\r\n")
		limit := len(report.Discrepancies)
		if limit > 20 {
			limit = 20
		}
		for _, d := range report.Discrepancies[:limit] {
			fmt.Fprintf(&b, "  [%s] %s\r\n", d.Type, d.Message)
		}
		if len(report.Discrepancies) > limit {
			fmt.Fprintf(&b, "  ... and %d more\r\n", len(report.Discrepancies)-limit)
		}
	}

	return b.String()
}
