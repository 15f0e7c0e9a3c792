package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultUnit is used whenever a unit tag is omitted
const DefaultUnit = "units"

// Quantity is a value object representing a non-negative physical or labor quantity.
// It supports decimal quantities for items measured by weight/volume/time.
// It is immutable - all operations return new Quantity instances
type Quantity struct {
	value decimal.Decimal
	unit  string
}

// NewQuantity creates a new Quantity with the specified value and unit.
// An empty unit falls back to DefaultUnit.
func NewQuantity(value decimal.Decimal, unit string) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, shared.NewDomainError(shared.ErrInvalidAmount.Code,
			fmt.Sprintf("quantity cannot be negative: %s", value.String()))
	}
	if unit == "" {
		unit = DefaultUnit
	}
	return Quantity{
		value: value,
		unit:  unit,
	}, nil
}

// NewQuantityFromFloat creates Quantity from a float64 value
func NewQuantityFromFloat(value float64, unit string) (Quantity, error) {
	d, err := DecimalFromFloat(value)
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantity(d, unit)
}

// NewQuantityFromInt creates Quantity from an int64 value
func NewQuantityFromInt(value int64, unit string) (Quantity, error) {
	return NewQuantity(decimal.NewFromInt(value), unit)
}

// NewQuantityFromString creates Quantity from a string representation
func NewQuantityFromString(value string, unit string) (Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity string: %w", err)
	}
	return NewQuantity(d, unit)
}

// MustNewQuantity creates a Quantity and panics on error
func MustNewQuantity(value decimal.Decimal, unit string) Quantity {
	q, err := NewQuantity(value, unit)
	if err != nil {
		panic(err)
	}
	return q
}

// ZeroQuantity returns a zero quantity with the specified unit
func ZeroQuantity(unit string) Quantity {
	if unit == "" {
		unit = DefaultUnit
	}
	return Quantity{value: decimal.Zero, unit: unit}
}

// Amount returns the decimal value
func (q Quantity) Amount() decimal.Decimal {
	return q.value
}

// Unit returns the unit of measurement
func (q Quantity) Unit() string {
	return q.unit
}

// IsZero returns true if the quantity is zero
func (q Quantity) IsZero() bool {
	return q.value.IsZero()
}

// IsPositive returns true if the quantity is positive
func (q Quantity) IsPositive() bool {
	return q.value.IsPositive()
}

// Float64 returns the quantity as a float64 (may lose precision)
func (q Quantity) Float64() float64 {
	f, _ := q.value.Float64()
	return f
}

// Add returns a new Quantity with the sum of both quantities
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if q.unit != other.unit {
		return Quantity{}, unitMismatch("add", q.unit, other.unit)
	}
	return Quantity{
		value: q.value.Add(other.value),
		unit:  q.unit,
	}, nil
}

// Subtract returns a new Quantity with the difference.
// Returns error if units don't match or result would be negative
func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	if q.unit != other.unit {
		return Quantity{}, unitMismatch("subtract", q.unit, other.unit)
	}
	result := q.value.Sub(other.value)
	if result.IsNegative() {
		return Quantity{}, shared.NewDomainError(shared.ErrNegativeResult.Code,
			fmt.Sprintf("cannot subtract %s from %s: result would be negative", other.String(), q.String()))
	}
	return Quantity{
		value: result,
		unit:  q.unit,
	}, nil
}

// Multiply returns a new Quantity multiplied by the given factor
func (q Quantity) Multiply(factor decimal.Decimal) (Quantity, error) {
	if err := checkFactor(factor); err != nil {
		return Quantity{}, err
	}
	return Quantity{
		value: q.value.Mul(factor),
		unit:  q.unit,
	}, nil
}

// MultiplyByFloat returns a new Quantity multiplied by a float
func (q Quantity) MultiplyByFloat(factor float64) (Quantity, error) {
	d, err := DecimalFromFloat(factor)
	if err != nil {
		return Quantity{}, err
	}
	return q.Multiply(d)
}

// Divide returns a new Quantity divided by the given divisor
func (q Quantity) Divide(divisor decimal.Decimal) (Quantity, error) {
	if err := checkDivisor(divisor); err != nil {
		return Quantity{}, err
	}
	return Quantity{
		value: q.value.Div(divisor),
		unit:  q.unit,
	}, nil
}

// Equals returns true if both quantities are equal (same value and unit)
func (q Quantity) Equals(other Quantity) bool {
	return q.unit == other.unit && q.value.Equal(other.value)
}

// LessThan returns true if this quantity is less than the other
func (q Quantity) LessThan(other Quantity) (bool, error) {
	if q.unit != other.unit {
		return false, unitMismatch("compare", q.unit, other.unit)
	}
	return q.value.LessThan(other.value), nil
}

// GreaterThan returns true if this quantity is greater than the other
func (q Quantity) GreaterThan(other Quantity) (bool, error) {
	if q.unit != other.unit {
		return false, unitMismatch("compare", q.unit, other.unit)
	}
	return q.value.GreaterThan(other.value), nil
}

// String returns a string representation of the Quantity
func (q Quantity) String() string {
	return fmt.Sprintf("%s %s", q.value.String(), q.unit)
}

// MarshalJSON implements json.Marshaler
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value json.Number `json:"value"`
		Unit  string      `json:"unit"`
	}{
		Value: json.Number(q.value.String()),
		Unit:  q.unit,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// Validation goes through NewQuantity so negative values are rejected.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var v struct {
		Value decimal.Decimal `json:"value"`
		Unit  string          `json:"unit"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewQuantity(v.Value, v.Unit)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
