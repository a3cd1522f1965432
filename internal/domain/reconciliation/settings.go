package reconciliation

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Frequency controls how often scheduled reconciliation runs
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

const (
	// DefaultAmountTolerance is the currency difference ignored when
	// comparing totals
	DefaultAmountTolerance = 0.05

	// DefaultReferencePrefix is stripped from order references before
	// matching
	DefaultReferencePrefix = "#"

	// MaxDayOfMonth caps monthly scheduling so every month qualifies
	MaxDayOfMonth = 28
)

var validate = validator.New()

// Settings is the process-wide reconciliation configuration. A run snapshots
// it once at start; changes never affect a run already in progress.
type Settings struct {
	Enabled                bool      `koanf:"enabled" json:"enabled"`
	Frequency              Frequency `koanf:"frequency" json:"frequency" validate:"oneof=daily weekly monthly"`
	DayOfWeek              int       `koanf:"day_of_week" json:"day_of_week" validate:"min=0,max=6"`
	DayOfMonth             int       `koanf:"day_of_month" json:"day_of_month" validate:"min=1,max=31"`
	AmountTolerance        float64   `koanf:"amount_tolerance" json:"amount_tolerance" validate:"gte=0"`
	ReferencePrefix        string    `koanf:"reference_prefix" json:"reference_prefix"`
	EmailEnabled           bool      `koanf:"email_enabled" json:"email_enabled"`
	EmailOnDiscrepancyOnly bool      `koanf:"email_on_discrepancy_only" json:"email_on_discrepancy_only"`
	EmailAddress           string    `koanf:"email_address" json:"email_address" validate:"omitempty,email"`
	KeepDays               int       `koanf:"keep_days" json:"keep_days" validate:"gte=0"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		Enabled:         true,
		Frequency:       FrequencyDaily,
		DayOfWeek:       1,
		DayOfMonth:      1,
		AmountTolerance: DefaultAmountTolerance,
		ReferencePrefix: DefaultReferencePrefix,
	}
}

// Normalize clamps and defaults fields that arrive out of range from
// configuration: day_of_month capped at 28 to avoid invalid dates, a
// negative tolerance replaced by the default.
func (s *Settings) Normalize() {
	if s.DayOfMonth > MaxDayOfMonth {
		s.DayOfMonth = MaxDayOfMonth
	}
	if s.DayOfMonth < 1 {
		s.DayOfMonth = 1
	}
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		s.DayOfWeek = 0
	}
	if s.AmountTolerance < 0 {
		s.AmountTolerance = DefaultAmountTolerance
	}
	if s.ReferencePrefix == "" {
		s.ReferencePrefix = DefaultReferencePrefix
	}
	if s.Frequency == "" {
		s.Frequency = FrequencyDaily
	}
}

// Validate checks field constraints after normalization
func (s Settings) Validate() error {
	return validate.Struct(s)
}

// Tolerance returns the amount tolerance as a decimal for exact comparison
func (s Settings) Tolerance() decimal.Decimal {
	return decimal.NewFromFloat(s.AmountTolerance)
}
