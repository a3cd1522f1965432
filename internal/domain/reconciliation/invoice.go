package reconciliation

import (
	"time"

	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// Invoice is the canonical accounting-side record. Reference carries the
// order number the invoice was raised against, as entered in the books
// system's reference/notes field.
type Invoice struct {
	ID          string       `json:"id"`
	Number      string       `json:"number"`
	Reference   string       `json:"reference"`
	Date        time.Time    `json:"date"`
	Status      string       `json:"status"`
	Total       values.Money `json:"total"`
	AmountPaid  values.Money `json:"amount_paid"`
	CreditTotal values.Money `json:"credit_total"`
	Currency    string       `json:"currency"`
}
