package reconciliation

import (
	"strings"
	"time"

	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// Order is the canonical commerce-side sales record. Upstream payload quirks
// (string-or-number totals, absent fields) are resolved by the source client
// before an Order is constructed; nothing past that boundary inspects raw
// upstream shapes.
type Order struct {
	ID          string        `json:"id"`
	Number      string        `json:"number"`
	Date        time.Time     `json:"date"`
	Status      string        `json:"status"`
	Total       values.Money  `json:"total"`
	AmountPaid  values.Money  `json:"amount_paid"`
	RefundTotal values.Money  `json:"refund_total"`
	Currency    string        `json:"currency"`
}

// NormalizeReference canonicalizes an order reference for matching: trims
// whitespace, strips the configured prefix (e.g. "#"), and lowercases the
// rest so comparison is case-insensitive.
func NormalizeReference(ref, prefix string) string {
	ref = strings.TrimSpace(ref)
	if prefix != "" {
		ref = strings.TrimPrefix(ref, prefix)
	}
	return strings.ToLower(strings.TrimSpace(ref))
}
