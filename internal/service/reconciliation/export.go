package reconciliation

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// WriteCSV renders a report as a UTF-8 CSV stream: a header block, the
// summary as label,value rows, then one row per discrepancy. The BOM keeps
// spreadsheet tools from misreading the encoding.
func WriteCSV(w io.Writer, report *reconciliation.Report) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	header := [][]string{
		{"Reconciliation Report"},
		{"Period", fmt.Sprintf("%s to %s",
			report.PeriodStart.Format("2006-01-02"),
			report.PeriodEnd.Format("2006-01-02"))},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Status", string(report.Status)},
		{},
	}
	if err := cw.WriteAll(header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	if report.Summary != nil {
		if err := writeSummary(cw, report.Summary); err != nil {
			return err
		}
	}

	if err := writeDiscrepancies(cw, report.Discrepancies); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func writeSummary(cw *csv.Writer, s *reconciliation.Summary) error {
	rows := [][]string{
		{"Summary"},
		{"Total WC Orders", strconv.Itoa(s.TotalWCOrders)},
		{"Total Zoho Invoices", strconv.Itoa(s.TotalZohoInvoices)},
		{"Matched", strconv.Itoa(s.MatchedCount)},
		{"Missing in Zoho", strconv.Itoa(s.MissingInZoho)},
		{"Missing in WC", strconv.Itoa(s.MissingInWC)},
		{"Amount Mismatches", strconv.Itoa(s.AmountMismatches)},
		{"Payment Mismatches", strconv.Itoa(s.PaymentMismatches)},
		{"Refund Mismatches", strconv.Itoa(s.RefundMismatches)},
		{"Status Mismatches", strconv.Itoa(s.StatusMismatches)},
		{"Amount Difference", s.AmountDifference.StringFixed()},
		{},
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing summary block: %w", err)
	}
	return nil
}

func writeDiscrepancies(cw *csv.Writer, discrepancies []reconciliation.Discrepancy) error {
	rows := [][]string{
		{fmt.Sprintf("Discrepancies (%d)", len(discrepancies))},
		{"Type", "Order/Invoice", "Date", "WC Amount", "Zoho Amount", "Difference", "Details"},
	}

	for _, d := range discrepancies {
		rows = append(rows, []string{
			string(d.Type),
			placeholder(d.Reference()),
			discrepancyDate(d),
			moneyCell(d.OrderTotal),
			moneyCell(d.InvoiceTotal),
			moneyCell(d.Difference),
			stripHTML(d.Message),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing discrepancy block: %w", err)
	}
	return nil
}

// discrepancyDate prefers the order date, falling back to the invoice date
// for invoice-only findings
func discrepancyDate(d reconciliation.Discrepancy) string {
	if d.OrderDate != nil {
		return d.OrderDate.Format("2006-01-02")
	}
	if d.InvoiceDate != nil {
		return d.InvoiceDate.Format("2006-01-02")
	}
	return "—"
}

func moneyCell(m *values.Money) string {
	if m == nil {
		return "—"
	}
	return m.StringFixed()
}

func placeholder(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// stripHTML removes markup from presentation messages so cells stay plain
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}
