package values

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		wantErr  bool
	}{
		{
			name:     "valid USD amount",
			amount:   "123.45",
			currency: "USD",
			wantErr:  false,
		},
		{
			name:     "lowercase currency is normalized",
			amount:   "10.00",
			currency: "eur",
			wantErr:  false,
		},
		{
			name:     "negative amount is allowed",
			amount:   "-5.00",
			currency: "USD",
			wantErr:  false,
		},
		{
			name:     "empty currency",
			amount:   "10.00",
			currency: "",
			wantErr:  true,
		},
		{
			name:     "malformed currency code",
			amount:   "10.00",
			currency: "US",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, m.Amount().StringFixed(2))
		})
	}
}

func TestMoney_DiffExceeds(t *testing.T) {
	tolerance := decimal.NewFromFloat(0.05)

	tests := []struct {
		name string
		a    float64
		b    float64
		want bool
	}{
		{"identical amounts", 100.00, 100.00, false},
		{"difference inside tolerance", 100.00, 100.03, false},
		{"difference exactly at tolerance", 100.00, 100.05, false},
		{"difference one cent past tolerance", 100.00, 100.06, true},
		{"sign of difference is irrelevant", 99.94, 100.00, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustNewMoneyFromFloat(tt.a, USD)
			b := MustNewMoneyFromFloat(tt.b, USD)
			assert.Equal(t, tt.want, a.DiffExceeds(b, tolerance))
		})
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustNewMoneyFromFloat(100.00, USD)
	b := MustNewMoneyFromFloat(100.03, USD)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "-0.03", diff.StringFixed())
	assert.Equal(t, "0.03", diff.Abs().StringFixed())

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "200.03", sum.StringFixed())

	_, err = a.Sub(MustNewMoneyFromFloat(1, EUR))
	assert.Error(t, err)
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := MustNewMoneyFromFloat(75.50, GBP)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var got Money
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, m.Equal(got))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan([]byte(`{"amount":"12.34","currency":"USD"}`)))
	assert.Equal(t, "12.34", m.StringFixed())

	var plain Money
	require.NoError(t, plain.Scan("99.99"))
	assert.Equal(t, "99.99", plain.StringFixed())
	assert.Equal(t, USD, plain.Currency())
}
