package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCostDataRepository implements costing.CostDataRepository using GORM.
// Each query is bounded by queryTimeout when it is positive.
type GormCostDataRepository struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

// NewGormCostDataRepository creates a new GormCostDataRepository
func NewGormCostDataRepository(db *gorm.DB, queryTimeout time.Duration) *GormCostDataRepository {
	return &GormCostDataRepository{db: db, queryTimeout: queryTimeout}
}

func (r *GormCostDataRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// GetDirectMaterials returns the order's material lines in booking order
func (r *GormCostDataRepository) GetDirectMaterials(ctx context.Context, orderID string) ([]costing.DirectMaterialRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []models.DirectMaterialModel
	if err := r.db.WithContext(ctx).
		Where("manufacturing_order_id = ?", orderID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query direct materials for order %s: %w", orderID, err)
	}

	records := make([]costing.DirectMaterialRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// GetDirectLabor returns the order's labor lines in booking order
func (r *GormCostDataRepository) GetDirectLabor(ctx context.Context, orderID string) ([]costing.DirectLaborRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []models.DirectLaborModel
	if err := r.db.WithContext(ctx).
		Where("manufacturing_order_id = ?", orderID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query direct labor for order %s: %w", orderID, err)
	}

	records := make([]costing.DirectLaborRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// GetOverheadCosts returns the order's overhead allocations in booking order
func (r *GormCostDataRepository) GetOverheadCosts(ctx context.Context, orderID string) ([]costing.OverheadCostRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []models.OverheadCostModel
	if err := r.db.WithContext(ctx).
		Where("manufacturing_order_id = ?", orderID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query overhead costs for order %s: %w", orderID, err)
	}

	records := make([]costing.OverheadCostRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// GetManufacturingOrderQuantity returns the order's planned output quantity,
// or shared.ErrNotFound when the order does not exist
func (r *GormCostDataRepository) GetManufacturingOrderQuantity(ctx context.Context, orderID string) (decimal.Decimal, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var order models.ManufacturingOrderModel
	if err := r.db.WithContext(ctx).
		Select("id", "quantity").
		First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, shared.NewDomainErrorWithDetails(shared.ErrNotFound.Code,
				"Manufacturing order not found", map[string]string{"order_id": orderID})
		}
		return decimal.Zero, fmt.Errorf("query quantity for order %s: %w", orderID, err)
	}
	return order.Quantity, nil
}
