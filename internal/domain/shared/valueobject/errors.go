package valueobject

import (
	"fmt"
	"math"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DecimalFromFloat converts a float64 into a decimal, rejecting NaN and ±Inf.
// decimal.NewFromFloat panics on non-finite input, so every float entry point
// in the domain goes through here first.
func DecimalFromFloat(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, shared.NewDomainError(shared.ErrNonFinite.Code,
			fmt.Sprintf("value must be a finite number, got %v", v))
	}
	return decimal.NewFromFloat(v), nil
}

func currencyMismatch(op string, a, b Currency) error {
	return shared.NewDomainError(shared.ErrCurrencyMismatch.Code,
		fmt.Sprintf("cannot %s money with different currencies: %s and %s", op, a, b))
}

func unitMismatch(op string, a, b string) error {
	return shared.NewDomainError(shared.ErrUnitMismatch.Code,
		fmt.Sprintf("cannot %s quantities with different units: %s and %s", op, a, b))
}

func checkFactor(factor decimal.Decimal) error {
	if factor.IsNegative() {
		return shared.NewDomainError(shared.ErrNegativeFactor.Code,
			fmt.Sprintf("factor cannot be negative: %s", factor.String()))
	}
	return nil
}

func checkDivisor(divisor decimal.Decimal) error {
	if divisor.IsZero() {
		return shared.ErrDivideByZero
	}
	if divisor.IsNegative() {
		return shared.NewDomainError(shared.ErrNegativeDivisor.Code,
			fmt.Sprintf("divisor cannot be negative: %s", divisor.String()))
	}
	return nil
}
