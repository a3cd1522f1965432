package woocommerce

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/storesync/reconciliation-backend/internal/domain/values"
)

// flexAmount tolerates the upstream API's inconsistent amount encoding:
// quoted strings ("100.00"), bare numbers (100), null, or absent. Anything
// unparseable decodes to zero.
type flexAmount struct {
	dec decimal.Decimal
}

func (f *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.dec = decimal.Zero
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			f.dec = decimal.Zero
			return nil
		}
	} else {
		raw = string(data)
	}

	dec, err := decimal.NewFromString(raw)
	if err != nil {
		f.dec = decimal.Zero
		return nil
	}

	f.dec = dec
	return nil
}

// Money converts the amount into a Money value in the given currency
func (f flexAmount) Money(currency string) values.Money {
	m, err := values.NewMoney(f.dec, currency)
	if err != nil {
		return values.Zero(values.USD)
	}
	return m
}
