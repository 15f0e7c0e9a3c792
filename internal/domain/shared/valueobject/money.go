package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency is an opaque currency tag. Tags are only ever compared for
// equality; no conversion between currencies is performed.
type Currency string

const (
	SAR Currency = "SAR" // Saudi Riyal (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	CNY Currency = "CNY" // Chinese Yuan
)

// DefaultCurrency is used whenever a currency tag is omitted
const DefaultCurrency = SAR

// Money is a value object representing a non-negative monetary amount.
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency.
// An empty currency falls back to DefaultCurrency.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, shared.NewDomainError(shared.ErrInvalidAmount.Code,
			fmt.Sprintf("amount cannot be negative: %s", amount.String()))
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	d, err := DecimalFromFloat(amount)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d, currency)
}

// NewMoneyFromInt creates Money from an int64 value
func NewMoneyFromInt(amount int64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount), currency)
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// MustNewMoney creates Money and panics on error
func MustNewMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, currencyMismatch("add", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount.Add(other.amount),
		currency: m.currency,
	}, nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns a new Money with the difference.
// Negative balances are not representable, so a result below zero is an error.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, currencyMismatch("subtract", m.currency, other.currency)
	}
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, shared.NewDomainError(shared.ErrNegativeResult.Code,
			fmt.Sprintf("cannot subtract %s from %s: result would be negative", other.String(), m.String()))
	}
	return Money{
		amount:   result,
		currency: m.currency,
	}, nil
}

// Multiply returns a new Money multiplied by the given factor
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if err := checkFactor(factor); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   m.amount.Mul(factor),
		currency: m.currency,
	}, nil
}

// MultiplyByFloat returns a new Money multiplied by a float
func (m Money) MultiplyByFloat(factor float64) (Money, error) {
	d, err := DecimalFromFloat(factor)
	if err != nil {
		return Money{}, err
	}
	return m.Multiply(d)
}

// Divide returns a new Money divided by the given divisor
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if err := checkDivisor(divisor); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   m.amount.Div(divisor),
		currency: m.currency,
	}, nil
}

// DivideByFloat returns a new Money divided by a float
func (m Money) DivideByFloat(divisor float64) (Money, error) {
	d, err := DecimalFromFloat(divisor)
	if err != nil {
		return Money{}, err
	}
	return m.Divide(d)
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, currencyMismatch("compare", m.currency, other.currency)
	}
	return m.amount.LessThan(other.amount), nil
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, currencyMismatch("compare", m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// Float64 returns the amount as a float64 (may lose precision)
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// MarshalJSON implements json.Marshaler.
// The amount is written as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency Currency    `json:"currency"`
	}{
		Amount:   json.Number(m.amount.String()),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// The amount may be a JSON number or a quoted decimal string; the decoded
// value goes through NewMoney so the non-negativity invariant holds.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewMoney(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
