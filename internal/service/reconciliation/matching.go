package reconciliation

import (
	"github.com/shopspring/decimal"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// invoiceIndex maps a normalized reference to the invoice elected to
// represent it. Invoices whose reference collides with a newer one are
// displaced and reported as missing_in_wc.
type invoiceIndex struct {
	byRef     map[string]reconciliation.Invoice
	displaced []reconciliation.Invoice
	consumed  map[string]bool
}

// buildInvoiceIndex indexes invoices by normalized reference. When two
// invoices share a reference the newest by date wins; ties keep the later
// arrival. Invoices without any usable reference are treated as unmatched
// immediately.
func buildInvoiceIndex(invoices []reconciliation.Invoice, prefix string) *invoiceIndex {
	idx := &invoiceIndex{
		byRef:    make(map[string]reconciliation.Invoice, len(invoices)),
		consumed: make(map[string]bool),
	}

	for _, inv := range invoices {
		key := reconciliation.NormalizeReference(invoiceReference(inv), prefix)
		if key == "" {
			idx.displaced = append(idx.displaced, inv)
			continue
		}

		existing, ok := idx.byRef[key]
		if !ok {
			idx.byRef[key] = inv
			continue
		}
		if inv.Date.Before(existing.Date) {
			idx.displaced = append(idx.displaced, inv)
			continue
		}
		idx.displaced = append(idx.displaced, existing)
		idx.byRef[key] = inv
	}

	return idx
}

// take returns the invoice for the key and marks it consumed
func (idx *invoiceIndex) take(key string) (reconciliation.Invoice, bool) {
	inv, ok := idx.byRef[key]
	if !ok {
		return reconciliation.Invoice{}, false
	}
	idx.consumed[key] = true
	return inv, true
}

// unmatched returns elected invoices never claimed by an order, preserving
// their original input order, followed by the displaced duplicates
func (idx *invoiceIndex) unmatched(invoices []reconciliation.Invoice, prefix string) []reconciliation.Invoice {
	var out []reconciliation.Invoice
	seen := make(map[string]bool, len(idx.byRef))
	for _, inv := range invoices {
		key := reconciliation.NormalizeReference(invoiceReference(inv), prefix)
		if key == "" || seen[key] {
			continue
		}
		elected := idx.byRef[key]
		if elected.ID != inv.ID {
			continue
		}
		seen[key] = true
		if !idx.consumed[key] {
			out = append(out, inv)
		}
	}
	return append(out, idx.displaced...)
}

// invoiceReference picks the field used for matching: the explicit
// reference when the invoice carries one, otherwise its own number
func invoiceReference(inv reconciliation.Invoice) string {
	if inv.Reference != "" {
		return inv.Reference
	}
	return inv.Number
}

// reconcile matches orders against invoices and returns the ordered
// discrepancy list plus the recomputed summary. Order-side findings come
// first in input order, then invoice-side missing_in_wc entries.
func reconcile(orders []reconciliation.Order, invoices []reconciliation.Invoice,
	settings reconciliation.Settings) (reconciliation.Summary, []reconciliation.Discrepancy) {

	idx := buildInvoiceIndex(invoices, settings.ReferencePrefix)
	tolerance := settings.Tolerance()

	var discrepancies []reconciliation.Discrepancy
	matched := 0

	for _, order := range orders {
		key := reconciliation.NormalizeReference(order.Number, settings.ReferencePrefix)
		if key == "" {
			discrepancies = append(discrepancies, reconciliation.NewMissingInZoho(order))
			continue
		}

		invoice, ok := idx.take(key)
		if !ok {
			discrepancies = append(discrepancies, reconciliation.NewMissingInZoho(order))
			continue
		}

		found := reconciliation.Classify(order, invoice, tolerance)
		if len(found) == 0 {
			matched++
			continue
		}
		discrepancies = append(discrepancies, found...)
	}

	for _, invoice := range idx.unmatched(invoices, settings.ReferencePrefix) {
		discrepancies = append(discrepancies, reconciliation.NewMissingInWC(invoice))
	}

	summary := summarize(orders, invoices, matched, discrepancies)
	return summary, discrepancies
}

// summarize recomputes the fixed-shape aggregate from the discrepancy list.
// AmountDifference is the sum of absolute differences across amount-bearing
// types; its currency follows the first such discrepancy.
func summarize(orders []reconciliation.Order, invoices []reconciliation.Invoice,
	matched int, discrepancies []reconciliation.Discrepancy) reconciliation.Summary {

	summary := reconciliation.Summary{
		TotalWCOrders:     len(orders),
		TotalZohoInvoices: len(invoices),
		MatchedCount:      matched,
	}

	total := decimal.Zero
	currency := ""

	for _, d := range discrepancies {
		switch d.Type {
		case reconciliation.DiscrepancyMissingInZoho:
			summary.MissingInZoho++
		case reconciliation.DiscrepancyMissingInWC:
			summary.MissingInWC++
		case reconciliation.DiscrepancyAmountMismatch:
			summary.AmountMismatches++
		case reconciliation.DiscrepancyPaymentMismatch:
			summary.PaymentMismatches++
		case reconciliation.DiscrepancyRefundMismatch:
			summary.RefundMismatches++
		case reconciliation.DiscrepancyStatusMismatch:
			summary.StatusMismatches++
		}

		if d.Type.IsAmountBearing() && d.Difference != nil {
			total = total.Add(d.Difference.Amount().Abs())
			if currency == "" {
				currency = d.Difference.Currency()
			}
		}
	}

	if currency == "" {
		currency = values.USD
	}
	summary.AmountDifference = values.MustNewMoney(total, currency)

	return summary
}
