package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// acceptableInvoiceStatuses maps a commerce order status to the invoice
// statuses that agree with it. An order status absent from the table is not
// checked; dirty upstream data must not abort a run.
var acceptableInvoiceStatuses = map[string]map[string]bool{
	"pending":    {"draft": true, "sent": true, "overdue": true},
	"on-hold":    {"draft": true, "sent": true, "overdue": true},
	"processing": {"sent": true, "paid": true, "partially_paid": true, "overdue": true},
	"completed":  {"sent": true, "paid": true, "partially_paid": true},
	"cancelled":  {"void": true, "draft": true},
	"failed":     {"void": true, "draft": true},
	"refunded":   {"void": true},
}

// Classify compares one matched order/invoice pair and returns every
// mismatch it finds. It is pure: no I/O, no side effects, and it never
// fails — malformed values degrade rather than abort. A pair producing an
// empty slice counts as matched.
//
// Tolerance is inclusive at the boundary: a difference exactly equal to
// tolerance does not trigger a mismatch.
func Classify(order Order, invoice Invoice, tolerance decimal.Decimal) []Discrepancy {
	var found []Discrepancy

	if d, ok := compareAmounts(order, invoice, order.Total, invoice.Total, tolerance,
		DiscrepancyAmountMismatch, "total"); ok {
		found = append(found, d)
	}

	if d, ok := compareAmounts(order, invoice, order.AmountPaid, invoice.AmountPaid, tolerance,
		DiscrepancyPaymentMismatch, "amount paid"); ok {
		found = append(found, d)
	}

	if d, ok := compareAmounts(order, invoice, order.RefundTotal, invoice.CreditTotal, tolerance,
		DiscrepancyRefundMismatch, "refund"); ok {
		found = append(found, d)
	}

	if d, ok := compareStatuses(order, invoice); ok {
		found = append(found, d)
	}

	return found
}

// compareAmounts emits a discrepancy when |orderAmount - invoiceAmount|
// exceeds the tolerance. The stored difference keeps its sign
// (order minus invoice); exports may render the absolute value.
func compareAmounts(order Order, invoice Invoice, orderAmount, invoiceAmount values.Money,
	tolerance decimal.Decimal, typ DiscrepancyType, label string) (Discrepancy, bool) {

	diff := orderAmount.Amount().Sub(invoiceAmount.Amount())
	if !diff.Abs().GreaterThan(tolerance) {
		return Discrepancy{}, false
	}

	currency := orderAmount.Currency()
	if currency == "" {
		currency = invoiceAmount.Currency()
	}
	if currency == "" {
		currency = values.USD
	}
	difference := values.MustNewMoney(diff, currency)

	d := Discrepancy{
		Type:       typ,
		Difference: &difference,
		Message: fmt.Sprintf("Order %s %s is %s but invoice %s shows %s (difference %s)",
			displayNumber(order.Number), label, orderAmount.StringFixed(),
			displayNumber(invoice.Number), invoiceAmount.StringFixed(),
			difference.Abs().StringFixed()),
	}
	d.attachOrder(order)
	d.attachInvoice(invoice)
	return d, true
}

// compareStatuses applies the fixed cross-mapping table. A refunded order is
// also satisfied by an invoice carrying applied credits even when its status
// never reached void.
func compareStatuses(order Order, invoice Invoice) (Discrepancy, bool) {
	acceptable, known := acceptableInvoiceStatuses[order.Status]
	if !known {
		return Discrepancy{}, false
	}
	if acceptable[invoice.Status] {
		return Discrepancy{}, false
	}
	if order.Status == "refunded" && !invoice.CreditTotal.IsZero() {
		return Discrepancy{}, false
	}

	d := Discrepancy{
		Type: DiscrepancyStatusMismatch,
		Message: fmt.Sprintf("Order %s is %q but invoice %s is %q",
			displayNumber(order.Number), order.Status,
			displayNumber(invoice.Number), invoice.Status),
	}
	d.attachOrder(order)
	d.attachInvoice(invoice)
	return d, true
}
