package fixtures

import (
	"fmt"
	"time"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// OrderBuilder builds test Order values
type OrderBuilder struct {
	id          string
	number      string
	date        time.Time
	status      string
	total       values.Money
	amountPaid  values.Money
	refundTotal values.Money
	currency    string
}

// NewOrderBuilder creates an OrderBuilder with a paid, completed order
func NewOrderBuilder(number string) *OrderBuilder {
	total := values.MustNewMoneyFromFloat(100.00, values.USD)
	return &OrderBuilder{
		id:          fmt.Sprintf("wc-%s", number),
		number:      number,
		date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		status:      "completed",
		total:       total,
		amountPaid:  total,
		refundTotal: values.Zero(values.USD),
		currency:    values.USD,
	}
}

func (b *OrderBuilder) WithID(id string) *OrderBuilder {
	b.id = id
	return b
}

func (b *OrderBuilder) WithDate(date time.Time) *OrderBuilder {
	b.date = date
	return b
}

func (b *OrderBuilder) WithStatus(status string) *OrderBuilder {
	b.status = status
	return b
}

func (b *OrderBuilder) WithTotal(amount float64) *OrderBuilder {
	b.total = values.MustNewMoneyFromFloat(amount, b.currency)
	return b
}

func (b *OrderBuilder) WithAmountPaid(amount float64) *OrderBuilder {
	b.amountPaid = values.MustNewMoneyFromFloat(amount, b.currency)
	return b
}

func (b *OrderBuilder) WithRefundTotal(amount float64) *OrderBuilder {
	b.refundTotal = values.MustNewMoneyFromFloat(amount, b.currency)
	return b
}

func (b *OrderBuilder) Build() reconciliation.Order {
	return reconciliation.Order{
		ID:          b.id,
		Number:      b.number,
		Date:        b.date,
		Status:      b.status,
		Total:       b.total,
		AmountPaid:  b.amountPaid,
		RefundTotal: b.refundTotal,
		Currency:    b.currency,
	}
}
