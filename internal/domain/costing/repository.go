package costing

import (
	"context"

	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DirectMaterialRecord is one material line consumed by a manufacturing order
type DirectMaterialRecord struct {
	ItemID    string          `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	TotalCost decimal.Decimal `json:"totalCost"`
}

// DirectLaborRecord is one labor line booked against a manufacturing order
type DirectLaborRecord struct {
	Hours      decimal.Decimal `json:"hours"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	TotalCost  decimal.Decimal `json:"totalCost"`
}

// Cost computes the line cost as hours × rate. The data layer uses it to book
// TotalCost for lines written without one; cost totals never recompute it.
func (r DirectLaborRecord) Cost(currency valueobject.Currency) (valueobject.Money, error) {
	rate, err := valueobject.NewHourlyRate(r.HourlyRate, currency)
	if err != nil {
		return valueobject.Money{}, err
	}
	return rate.CalculateCost(r.Hours)
}

// OverheadCostRecord is one overhead allocation charged to a manufacturing order
type OverheadCostRecord struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// CostDataRepository supplies the raw cost records for a manufacturing order.
// Implementations live in the data-access layer; errors are returned as-is.
type CostDataRepository interface {
	GetDirectMaterials(ctx context.Context, orderID string) ([]DirectMaterialRecord, error)
	GetDirectLabor(ctx context.Context, orderID string) ([]DirectLaborRecord, error)
	GetOverheadCosts(ctx context.Context, orderID string) ([]OverheadCostRecord, error)
	GetManufacturingOrderQuantity(ctx context.Context, orderID string) (decimal.Decimal, error)
}

// ProcessStageRepository persists process stages per manufacturing order
type ProcessStageRepository interface {
	// FindByID returns the stage and the order it belongs to, or
	// shared.ErrNotFound when the stage does not exist
	FindByID(ctx context.Context, id string) (ProcessStage, string, error)
	// FindByOrder returns the order's stages sorted by sequence
	FindByOrder(ctx context.Context, orderID string) ([]ProcessStage, error)
	// Save creates or replaces the stage under the given order
	Save(ctx context.Context, orderID string, stage ProcessStage) error
	// ExistsBySequence reports whether another stage of the order already uses sequence
	ExistsBySequence(ctx context.Context, orderID string, sequence int) (bool, error)
}

// CostDataInvalidator is implemented by cost data sources that cache query
// results and can drop them for one order
type CostDataInvalidator interface {
	Invalidate(ctx context.Context, orderID string) error
}
