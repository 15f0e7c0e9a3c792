package costing

import (
	"encoding/json"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CostBreakdown aggregates material, labor and overhead costs against the
// quantity of units they were incurred for. A breakdown always represents at
// least one unit. It is immutable - every operation returns a new instance.
type CostBreakdown struct {
	materialCost valueobject.Money
	laborCost    valueobject.Money
	overheadCost valueobject.Money
	quantity     valueobject.Quantity
}

// CostBreakdownData is the plain serialized form of a CostBreakdown
type CostBreakdownData struct {
	MaterialCost decimal.Decimal      `json:"materialCost"`
	LaborCost    decimal.Decimal      `json:"laborCost"`
	OverheadCost decimal.Decimal      `json:"overheadCost"`
	Quantity     decimal.Decimal      `json:"quantity"`
	Currency     valueobject.Currency `json:"currency"`
}

// PercentageVariance holds the per-bucket percentage change against a baseline
type PercentageVariance struct {
	Material decimal.Decimal `json:"material"`
	Labor    decimal.Decimal `json:"labor"`
	Overhead decimal.Decimal `json:"overhead"`
	Total    decimal.Decimal `json:"total"`
}

// NewCostBreakdown creates a breakdown from raw amounts in a single currency.
// Each cost is validated as Money; quantity must be strictly positive.
func NewCostBreakdown(material, labor, overhead, quantity decimal.Decimal, currency valueobject.Currency) (CostBreakdown, error) {
	if !quantity.IsPositive() {
		return CostBreakdown{}, shared.NewDomainError(shared.ErrNonPositiveQuantity.Code,
			fmt.Sprintf("quantity must be greater than zero, got %s", quantity.String()))
	}
	materialCost, err := valueobject.NewMoney(material, currency)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("material cost: %w", err)
	}
	laborCost, err := valueobject.NewMoney(labor, currency)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("labor cost: %w", err)
	}
	overheadCost, err := valueobject.NewMoney(overhead, currency)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("overhead cost: %w", err)
	}
	qty, err := valueobject.NewQuantity(quantity, valueobject.DefaultUnit)
	if err != nil {
		return CostBreakdown{}, err
	}
	return CostBreakdown{
		materialCost: materialCost,
		laborCost:    laborCost,
		overheadCost: overheadCost,
		quantity:     qty,
	}, nil
}

// NewCostBreakdownFromFloat creates a breakdown from float64 amounts
func NewCostBreakdownFromFloat(material, labor, overhead, quantity float64, currency valueobject.Currency) (CostBreakdown, error) {
	values := make([]decimal.Decimal, 0, 4)
	for _, v := range []float64{material, labor, overhead, quantity} {
		d, err := valueobject.DecimalFromFloat(v)
		if err != nil {
			return CostBreakdown{}, err
		}
		values = append(values, d)
	}
	return NewCostBreakdown(values[0], values[1], values[2], values[3], currency)
}

// ZeroCostBreakdown returns a breakdown with no costs for a single unit.
// It stands for "no cost data", which is distinct from a zero quantity.
func ZeroCostBreakdown(currency valueobject.Currency) CostBreakdown {
	return CostBreakdown{
		materialCost: valueobject.Zero(currency),
		laborCost:    valueobject.Zero(currency),
		overheadCost: valueobject.Zero(currency),
		quantity:     valueobject.MustNewQuantity(decimal.NewFromInt(1), valueobject.DefaultUnit),
	}
}

// CostBreakdownFromData rebuilds a breakdown from its serialized form
func CostBreakdownFromData(data CostBreakdownData) (CostBreakdown, error) {
	return NewCostBreakdown(data.MaterialCost, data.LaborCost, data.OverheadCost, data.Quantity, data.Currency)
}

// MaterialCost returns the direct material cost
func (b CostBreakdown) MaterialCost() valueobject.Money {
	return b.materialCost
}

// LaborCost returns the direct labor cost
func (b CostBreakdown) LaborCost() valueobject.Money {
	return b.laborCost
}

// OverheadCost returns the overhead cost
func (b CostBreakdown) OverheadCost() valueobject.Money {
	return b.overheadCost
}

// Quantity returns the number of units the costs are spread over
func (b CostBreakdown) Quantity() valueobject.Quantity {
	return b.quantity
}

// Currency returns the currency shared by all cost buckets
func (b CostBreakdown) Currency() valueobject.Currency {
	return b.materialCost.Currency()
}

// TotalCost returns material + labor + overhead
func (b CostBreakdown) TotalCost() valueobject.Money {
	// All three buckets share a currency by construction.
	return b.materialCost.MustAdd(b.laborCost).MustAdd(b.overheadCost)
}

// CostPerUnit returns the total cost divided by the quantity
func (b CostBreakdown) CostPerUnit() valueobject.Money {
	if b.quantity.IsZero() {
		return valueobject.Zero(b.Currency())
	}
	perUnit, err := b.TotalCost().Divide(b.quantity.Amount())
	if err != nil {
		return valueobject.Zero(b.Currency())
	}
	return perUnit
}

// MaterialPercentage returns material cost as a percentage of the total
func (b CostBreakdown) MaterialPercentage() decimal.Decimal {
	return b.shareOfTotal(b.materialCost)
}

// LaborPercentage returns labor cost as a percentage of the total
func (b CostBreakdown) LaborPercentage() decimal.Decimal {
	return b.shareOfTotal(b.laborCost)
}

// OverheadPercentage returns overhead cost as a percentage of the total
func (b CostBreakdown) OverheadPercentage() decimal.Decimal {
	return b.shareOfTotal(b.overheadCost)
}

func (b CostBreakdown) shareOfTotal(part valueobject.Money) decimal.Decimal {
	total := b.TotalCost()
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Amount().Div(total.Amount()).Mul(hundred)
}

// VarianceFrom returns the per-bucket excess of this breakdown over baseline.
// Only defined when every bucket is at or above the baseline; quantity is kept.
func (b CostBreakdown) VarianceFrom(baseline CostBreakdown) (CostBreakdown, error) {
	material, err := b.materialCost.Subtract(baseline.materialCost)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("material variance: %w", err)
	}
	labor, err := b.laborCost.Subtract(baseline.laborCost)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("labor variance: %w", err)
	}
	overhead, err := b.overheadCost.Subtract(baseline.overheadCost)
	if err != nil {
		return CostBreakdown{}, fmt.Errorf("overhead variance: %w", err)
	}
	return CostBreakdown{
		materialCost: material,
		laborCost:    labor,
		overheadCost: overhead,
		quantity:     b.quantity,
	}, nil
}

// PercentageVarianceFrom returns (current - base) / base * 100 per bucket.
// Negative deltas are allowed. A zero base yields 0 when current is also zero
// and 100 otherwise.
func (b CostBreakdown) PercentageVarianceFrom(baseline CostBreakdown) PercentageVariance {
	return PercentageVariance{
		Material: percentageChange(b.materialCost.Amount(), baseline.materialCost.Amount()),
		Labor:    percentageChange(b.laborCost.Amount(), baseline.laborCost.Amount()),
		Overhead: percentageChange(b.overheadCost.Amount(), baseline.overheadCost.Amount()),
		Total:    percentageChange(b.TotalCost().Amount(), baseline.TotalCost().Amount()),
	}
}

func percentageChange(current, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return current.Sub(base).Div(base).Mul(hundred)
}

// WithMaterialCost returns a copy with the material cost replaced
func (b CostBreakdown) WithMaterialCost(amount decimal.Decimal) (CostBreakdown, error) {
	m, err := valueobject.NewMoney(amount, b.Currency())
	if err != nil {
		return CostBreakdown{}, err
	}
	b.materialCost = m
	return b, nil
}

// WithLaborCost returns a copy with the labor cost replaced
func (b CostBreakdown) WithLaborCost(amount decimal.Decimal) (CostBreakdown, error) {
	m, err := valueobject.NewMoney(amount, b.Currency())
	if err != nil {
		return CostBreakdown{}, err
	}
	b.laborCost = m
	return b, nil
}

// WithOverheadCost returns a copy with the overhead cost replaced
func (b CostBreakdown) WithOverheadCost(amount decimal.Decimal) (CostBreakdown, error) {
	m, err := valueobject.NewMoney(amount, b.Currency())
	if err != nil {
		return CostBreakdown{}, err
	}
	b.overheadCost = m
	return b, nil
}

// WithQuantity returns a copy with the quantity replaced
func (b CostBreakdown) WithQuantity(quantity decimal.Decimal) (CostBreakdown, error) {
	if !quantity.IsPositive() {
		return CostBreakdown{}, shared.NewDomainError(shared.ErrNonPositiveQuantity.Code,
			fmt.Sprintf("quantity must be greater than zero, got %s", quantity.String()))
	}
	q, err := valueobject.NewQuantity(quantity, b.quantity.Unit())
	if err != nil {
		return CostBreakdown{}, err
	}
	b.quantity = q
	return b, nil
}

// Add sums two breakdowns field by field, including quantity
func (b CostBreakdown) Add(other CostBreakdown) (CostBreakdown, error) {
	material, err := b.materialCost.Add(other.materialCost)
	if err != nil {
		return CostBreakdown{}, err
	}
	labor, err := b.laborCost.Add(other.laborCost)
	if err != nil {
		return CostBreakdown{}, err
	}
	overhead, err := b.overheadCost.Add(other.overheadCost)
	if err != nil {
		return CostBreakdown{}, err
	}
	quantity, err := b.quantity.Add(other.quantity)
	if err != nil {
		return CostBreakdown{}, err
	}
	return CostBreakdown{
		materialCost: material,
		laborCost:    labor,
		overheadCost: overhead,
		quantity:     quantity,
	}, nil
}

// Scale multiplies the three costs by factor. Quantity is left unchanged.
func (b CostBreakdown) Scale(factor decimal.Decimal) (CostBreakdown, error) {
	material, err := b.materialCost.Multiply(factor)
	if err != nil {
		return CostBreakdown{}, err
	}
	labor, err := b.laborCost.Multiply(factor)
	if err != nil {
		return CostBreakdown{}, err
	}
	overhead, err := b.overheadCost.Multiply(factor)
	if err != nil {
		return CostBreakdown{}, err
	}
	return CostBreakdown{
		materialCost: material,
		laborCost:    labor,
		overheadCost: overhead,
		quantity:     b.quantity,
	}, nil
}

// Equals reports structural equality across all four fields
func (b CostBreakdown) Equals(other CostBreakdown) bool {
	return b.materialCost.Equals(other.materialCost) &&
		b.laborCost.Equals(other.laborCost) &&
		b.overheadCost.Equals(other.overheadCost) &&
		b.quantity.Equals(other.quantity)
}

// ToData returns the plain serialized form
func (b CostBreakdown) ToData() CostBreakdownData {
	return CostBreakdownData{
		MaterialCost: b.materialCost.Amount(),
		LaborCost:    b.laborCost.Amount(),
		OverheadCost: b.overheadCost.Amount(),
		Quantity:     b.quantity.Amount(),
		Currency:     b.Currency(),
	}
}

// String returns a short human-readable summary
func (b CostBreakdown) String() string {
	return fmt.Sprintf("CostBreakdown{material=%s labor=%s overhead=%s quantity=%s}",
		b.materialCost, b.laborCost, b.overheadCost, b.quantity)
}

// MarshalJSON implements json.Marshaler. Amounts are written as JSON numbers.
func (b CostBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MaterialCost json.Number          `json:"materialCost"`
		LaborCost    json.Number          `json:"laborCost"`
		OverheadCost json.Number          `json:"overheadCost"`
		Quantity     json.Number          `json:"quantity"`
		Currency     valueobject.Currency `json:"currency"`
	}{
		MaterialCost: json.Number(b.materialCost.Amount().String()),
		LaborCost:    json.Number(b.laborCost.Amount().String()),
		OverheadCost: json.Number(b.overheadCost.Amount().String()),
		Quantity:     json.Number(b.quantity.Amount().String()),
		Currency:     b.Currency(),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (b *CostBreakdown) UnmarshalJSON(data []byte) error {
	var raw CostBreakdownData
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := CostBreakdownFromData(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
