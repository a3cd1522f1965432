package fixtures

import (
	"fmt"
	"time"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// InvoiceBuilder builds test Invoice values
type InvoiceBuilder struct {
	id          string
	number      string
	reference   string
	date        time.Time
	status      string
	total       values.Money
	amountPaid  values.Money
	creditTotal values.Money
	currency    string
}

// NewInvoiceBuilder creates an InvoiceBuilder for a fully paid invoice
// referencing the given order number
func NewInvoiceBuilder(reference string) *InvoiceBuilder {
	total := values.MustNewMoneyFromFloat(100.00, values.USD)
	return &InvoiceBuilder{
		id:          fmt.Sprintf("zb-%s", reference),
		number:      fmt.Sprintf("INV-%s", reference),
		reference:   reference,
		date:        time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		status:      "paid",
		total:       total,
		amountPaid:  total,
		creditTotal: values.Zero(values.USD),
		currency:    values.USD,
	}
}

func (b *InvoiceBuilder) WithID(id string) *InvoiceBuilder {
	b.id = id
	return b
}

func (b *InvoiceBuilder) WithNumber(number string) *InvoiceBuilder {
	b.number = number
	return b
}

func (b *InvoiceBuilder) WithDate(date time.Time) *InvoiceBuilder {
	b.date = date
	return b
}

func (b *InvoiceBuilder) WithStatus(status string) *InvoiceBuilder {
	b.status = status
	return b
}

func (b *InvoiceBuilder) WithTotal(amount float64) *InvoiceBuilder {
	b.total = values.MustNewMoneyFromFloat(amount, b.currency)
	return b
}

func (b *InvoiceBuilder) WithAmountPaid(amount float64) *InvoiceBuilder {
	b.amountPaid = values.MustNewMoneyFromFloat(amount, b.currency)
	return b
}

func (b *InvoiceBuilder) WithCreditTotal(amount float64) *InvoiceBuilder {
	b.creditTotal = values.MustNewMoneyFromFloat(amount, b.currency)
	return b
}

func (b *InvoiceBuilder) Build() reconciliation.Invoice {
	return reconciliation.Invoice{
		ID:          b.id,
		Number:      b.number,
		Reference:   b.reference,
		Date:        b.date,
		Status:      b.status,
		Total:       b.total,
		AmountPaid:  b.amountPaid,
		CreditTotal: b.creditTotal,
		Currency:    b.currency,
	}
}
