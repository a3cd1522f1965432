package reconciliation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

func testOrder(number string, total, paid, refund float64, status string) Order {
	return Order{
		ID:          "10" + number,
		Number:      number,
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Status:      status,
		Total:       values.MustNewMoneyFromFloat(total, values.USD),
		AmountPaid:  values.MustNewMoneyFromFloat(paid, values.USD),
		RefundTotal: values.MustNewMoneyFromFloat(refund, values.USD),
		Currency:    values.USD,
	}
}

func testInvoice(number, reference string, total, paid, credits float64, status string) Invoice {
	return Invoice{
		ID:          "inv-" + number,
		Number:      number,
		Reference:   reference,
		Date:        time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
		Status:      status,
		Total:       values.MustNewMoneyFromFloat(total, values.USD),
		AmountPaid:  values.MustNewMoneyFromFloat(paid, values.USD),
		CreditTotal: values.MustNewMoneyFromFloat(credits, values.USD),
		Currency:    values.USD,
	}
}

func TestClassify_MatchedPair(t *testing.T) {
	order := testOrder("1002", 100.00, 100.00, 0, "completed")
	invoice := testInvoice("INV-1002", "#1002", 100.03, 100.03, 0, "paid")

	// 0.03 off with tolerance 0.05 is a match
	found := Classify(order, invoice, decimal.NewFromFloat(0.05))
	assert.Empty(t, found)
}

func TestClassify_ToleranceBoundary(t *testing.T) {
	tolerance := decimal.NewFromFloat(0.05)

	t.Run("difference exactly at tolerance does not fire", func(t *testing.T) {
		order := testOrder("2001", 100.05, 100.05, 0, "completed")
		invoice := testInvoice("INV-2001", "2001", 100.00, 100.00, 0, "paid")

		assert.Empty(t, Classify(order, invoice, tolerance))
	})

	t.Run("one cent past tolerance fires with true delta", func(t *testing.T) {
		order := testOrder("2002", 100.06, 100.06, 0, "completed")
		invoice := testInvoice("INV-2002", "2002", 100.00, 100.00, 0, "paid")

		found := Classify(order, invoice, tolerance)
		require.Len(t, found, 2) // amount and payment both differ by 0.06

		assert.Equal(t, DiscrepancyAmountMismatch, found[0].Type)
		require.NotNil(t, found[0].Difference)
		assert.Equal(t, "0.06", found[0].Difference.StringFixed())

		assert.Equal(t, DiscrepancyPaymentMismatch, found[1].Type)
	})
}

func TestClassify_DifferenceKeepsSign(t *testing.T) {
	order := testOrder("1002", 100.00, 100.00, 0, "completed")
	invoice := testInvoice("INV-1002", "1002", 100.03, 100.00, 0, "paid")

	found := Classify(order, invoice, decimal.NewFromFloat(0.01))
	require.Len(t, found, 1)
	assert.Equal(t, DiscrepancyAmountMismatch, found[0].Type)
	assert.Equal(t, "-0.03", found[0].Difference.StringFixed())

	// both sides are referenced on a mismatch
	assert.NotEmpty(t, found[0].OrderID)
	assert.NotEmpty(t, found[0].InvoiceID)
}

func TestClassify_RefundMismatch(t *testing.T) {
	order := testOrder("3001", 50.00, 50.00, 50.00, "refunded")
	invoice := testInvoice("INV-3001", "3001", 50.00, 50.00, 0, "paid")

	found := Classify(order, invoice, decimal.NewFromFloat(0.05))

	types := make([]DiscrepancyType, 0, len(found))
	for _, d := range found {
		types = append(types, d.Type)
	}
	assert.Contains(t, types, DiscrepancyRefundMismatch)
	assert.Contains(t, types, DiscrepancyStatusMismatch)
}

func TestClassify_StatusMismatch(t *testing.T) {
	tests := []struct {
		name          string
		orderStatus   string
		invoiceStatus string
		credits       float64
		wantMismatch  bool
	}{
		{"completed order with paid invoice", "completed", "paid", 0, false},
		{"completed order with draft invoice", "completed", "draft", 0, true},
		{"refunded order with void invoice", "refunded", "void", 0, false},
		{"refunded order with credited invoice", "refunded", "paid", 50.00, false},
		{"refunded order with untouched invoice", "refunded", "paid", 0, true},
		{"cancelled order with void invoice", "cancelled", "void", 0, false},
		{"unknown order status is not checked", "weird-custom-status", "draft", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder("4001", 50.00, 50.00, 0, tt.orderStatus)
			if tt.orderStatus == "refunded" {
				order.RefundTotal = values.MustNewMoneyFromFloat(tt.credits, values.USD)
			}
			invoice := testInvoice("INV-4001", "4001", 50.00, 50.00, tt.credits, tt.invoiceStatus)

			found := Classify(order, invoice, decimal.NewFromFloat(0.05))

			var hasStatus bool
			for _, d := range found {
				if d.Type == DiscrepancyStatusMismatch {
					hasStatus = true
				}
			}
			assert.Equal(t, tt.wantMismatch, hasStatus)
		})
	}
}

func TestClassify_NeverPanicsOnZeroValues(t *testing.T) {
	// records with missing fields degrade instead of aborting the run
	assert.NotPanics(t, func() {
		Classify(Order{}, Invoice{}, decimal.NewFromFloat(0.05))
	})
}

func TestNormalizeReference(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#1001", "1001"},
		{"  #1001  ", "1001"},
		{"INV-1001", "inv-1001"},
		{"1001", "1001"},
		{"# 1001", "1001"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeReference(tt.in, "#"), "input %q", tt.in)
	}
}

func TestNewMissingDiscrepancies(t *testing.T) {
	order := testOrder("1001", 50.00, 50.00, 0, "completed")
	d := NewMissingInZoho(order)
	assert.Equal(t, DiscrepancyMissingInZoho, d.Type)
	assert.Equal(t, "101001", d.OrderID)
	assert.Empty(t, d.InvoiceID)

	invoice := testInvoice("INV-2000", "2000", 75.00, 0, 0, "sent")
	d = NewMissingInWC(invoice)
	assert.Equal(t, DiscrepancyMissingInWC, d.Type)
	assert.Equal(t, "inv-INV-2000", d.InvoiceID)
	assert.Empty(t, d.OrderID)
}
