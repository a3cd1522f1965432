package reconciliation

import (
	"fmt"
	"time"

	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// DiscrepancyType is the closed taxonomy of detected issues
type DiscrepancyType string

const (
	DiscrepancyMissingInZoho   DiscrepancyType = "missing_in_zoho"
	DiscrepancyMissingInWC     DiscrepancyType = "missing_in_wc"
	DiscrepancyAmountMismatch  DiscrepancyType = "amount_mismatch"
	DiscrepancyPaymentMismatch DiscrepancyType = "payment_mismatch"
	DiscrepancyRefundMismatch  DiscrepancyType = "refund_mismatch"
	DiscrepancyStatusMismatch  DiscrepancyType = "status_mismatch"
)

// IsAmountBearing reports whether the type carries a numeric difference that
// feeds into Summary.AmountDifference
func (t DiscrepancyType) IsAmountBearing() bool {
	switch t {
	case DiscrepancyAmountMismatch, DiscrepancyPaymentMismatch, DiscrepancyRefundMismatch:
		return true
	}
	return false
}

// Discrepancy is one detected mismatch between an order and its (possibly
// absent) counterpart invoice. For missing_in_zoho only the order side is
// populated; for missing_in_wc only the invoice side. Mismatch types carry
// both sides. Message is presentation-only and never drives matching.
type Discrepancy struct {
	Type DiscrepancyType `json:"type"`

	OrderID     string        `json:"order_id,omitempty"`
	OrderNumber string        `json:"order_number,omitempty"`
	OrderDate   *time.Time    `json:"order_date,omitempty"`
	OrderStatus string        `json:"order_status,omitempty"`
	OrderTotal  *values.Money `json:"order_total,omitempty"`
	OrderPaid   *values.Money `json:"order_paid,omitempty"`

	InvoiceID     string        `json:"invoice_id,omitempty"`
	InvoiceNumber string        `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time    `json:"invoice_date,omitempty"`
	InvoiceStatus string        `json:"invoice_status,omitempty"`
	InvoiceTotal  *values.Money `json:"invoice_total,omitempty"`
	InvoicePaid   *values.Money `json:"invoice_paid,omitempty"`
	ZohoCredits   *values.Money `json:"zoho_credits,omitempty"`

	Difference *values.Money `json:"difference,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// Reference returns the best identifier for display: the order number when
// an order side exists, otherwise the invoice number
func (d Discrepancy) Reference() string {
	if d.OrderNumber != "" {
		return d.OrderNumber
	}
	return d.InvoiceNumber
}

// NewMissingInZoho builds the discrepancy for an order with no counterpart
// invoice
func NewMissingInZoho(order Order) Discrepancy {
	d := Discrepancy{
		Type:    DiscrepancyMissingInZoho,
		Message: fmt.Sprintf("Order %s has no matching invoice", displayNumber(order.Number)),
	}
	d.attachOrder(order)
	return d
}

// NewMissingInWC builds the discrepancy for an invoice with no counterpart
// order
func NewMissingInWC(invoice Invoice) Discrepancy {
	d := Discrepancy{
		Type:    DiscrepancyMissingInWC,
		Message: fmt.Sprintf("Invoice %s has no matching order", displayNumber(invoice.Number)),
	}
	d.attachInvoice(invoice)
	return d
}

func (d *Discrepancy) attachOrder(order Order) {
	d.OrderID = order.ID
	d.OrderNumber = order.Number
	d.OrderStatus = order.Status
	if !order.Date.IsZero() {
		date := order.Date
		d.OrderDate = &date
	}
	total := order.Total
	paid := order.AmountPaid
	d.OrderTotal = &total
	d.OrderPaid = &paid
}

func (d *Discrepancy) attachInvoice(invoice Invoice) {
	d.InvoiceID = invoice.ID
	d.InvoiceNumber = invoice.Number
	d.InvoiceStatus = invoice.Status
	if !invoice.Date.IsZero() {
		date := invoice.Date
		d.InvoiceDate = &date
	}
	total := invoice.Total
	paid := invoice.AmountPaid
	credits := invoice.CreditTotal
	d.InvoiceTotal = &total
	d.InvoicePaid = &paid
	d.ZohoCredits = &credits
}

// displayNumber degrades a missing identifier to a placeholder instead of
// emitting an empty string into messages
func displayNumber(number string) string {
	if number == "" {
		return "—"
	}
	return number
}
