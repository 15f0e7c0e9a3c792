package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// HourlyRate is a strictly positive Money-per-hour labor rate.
// A zero rate is a configuration error, not a valid state.
type HourlyRate struct {
	rate Money
}

// NewHourlyRate creates a new HourlyRate
func NewHourlyRate(amount decimal.Decimal, currency Currency) (HourlyRate, error) {
	m, err := NewMoney(amount, currency)
	if err != nil {
		return HourlyRate{}, err
	}
	if m.IsZero() {
		return HourlyRate{}, shared.ErrZeroRate
	}
	return HourlyRate{rate: m}, nil
}

// NewHourlyRateFromFloat creates an HourlyRate from a float64 value
func NewHourlyRateFromFloat(amount float64, currency Currency) (HourlyRate, error) {
	d, err := DecimalFromFloat(amount)
	if err != nil {
		return HourlyRate{}, err
	}
	return NewHourlyRate(d, currency)
}

// Money returns the rate as a Money value
func (r HourlyRate) Money() Money {
	return r.rate
}

// Amount returns the rate amount per hour
func (r HourlyRate) Amount() decimal.Decimal {
	return r.rate.Amount()
}

// Currency returns the currency code
func (r HourlyRate) Currency() Currency {
	return r.rate.Currency()
}

// CalculateCost returns the labor cost for the given number of hours
func (r HourlyRate) CalculateCost(hours decimal.Decimal) (Money, error) {
	if hours.IsNegative() {
		return Money{}, shared.NewDomainError(shared.ErrNegativeHours.Code,
			fmt.Sprintf("hours cannot be negative: %s", hours.String()))
	}
	return r.rate.Multiply(hours)
}

// Equals returns true if both rates are equal
func (r HourlyRate) Equals(other HourlyRate) bool {
	return r.rate.Equals(other.rate)
}

// String returns a string representation of the rate
func (r HourlyRate) String() string {
	return r.rate.String() + "/h"
}

// MarshalJSON implements json.Marshaler
func (r HourlyRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.rate)
}
