package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	kindMaterials = "materials"
	kindLabor     = "labor"
	kindOverhead  = "overhead"
	kindQuantity  = "quantity"
)

// CachingCostDataRepository decorates a costing.CostDataRepository with a
// read-through cache. Each of the four queries is cached per order as JSON.
// Cache failures are logged and fall through to the wrapped repository;
// errors from the wrapped repository are returned unchanged and never cached.
type CachingCostDataRepository struct {
	inner  costing.CostDataRepository
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingCostDataRepository creates a caching decorator around inner
func NewCachingCostDataRepository(inner costing.CostDataRepository, store Store, ttl time.Duration, logger *zap.Logger) *CachingCostDataRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingCostDataRepository{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func costDataKey(orderID, kind string) string {
	return fmt.Sprintf("cost_data:%s:%s", orderID, kind)
}

// GetDirectMaterials implements costing.CostDataRepository
func (r *CachingCostDataRepository) GetDirectMaterials(ctx context.Context, orderID string) ([]costing.DirectMaterialRecord, error) {
	return readThrough(ctx, r, orderID, kindMaterials, r.inner.GetDirectMaterials)
}

// GetDirectLabor implements costing.CostDataRepository
func (r *CachingCostDataRepository) GetDirectLabor(ctx context.Context, orderID string) ([]costing.DirectLaborRecord, error) {
	return readThrough(ctx, r, orderID, kindLabor, r.inner.GetDirectLabor)
}

// GetOverheadCosts implements costing.CostDataRepository
func (r *CachingCostDataRepository) GetOverheadCosts(ctx context.Context, orderID string) ([]costing.OverheadCostRecord, error) {
	return readThrough(ctx, r, orderID, kindOverhead, r.inner.GetOverheadCosts)
}

// GetManufacturingOrderQuantity implements costing.CostDataRepository
func (r *CachingCostDataRepository) GetManufacturingOrderQuantity(ctx context.Context, orderID string) (decimal.Decimal, error) {
	return readThrough(ctx, r, orderID, kindQuantity, r.inner.GetManufacturingOrderQuantity)
}

// Invalidate drops every cached query result for an order
func (r *CachingCostDataRepository) Invalidate(ctx context.Context, orderID string) error {
	return r.store.Delete(ctx,
		costDataKey(orderID, kindMaterials),
		costDataKey(orderID, kindLabor),
		costDataKey(orderID, kindOverhead),
		costDataKey(orderID, kindQuantity),
	)
}

func readThrough[T any](
	ctx context.Context,
	r *CachingCostDataRepository,
	orderID, kind string,
	load func(context.Context, string) (T, error),
) (T, error) {
	key := costDataKey(orderID, kind)
	log := r.logger.With(zap.String("order_id", orderID), zap.String("kind", kind))

	if raw, ok, err := r.store.Get(ctx, key); err != nil {
		log.Warn("Cost data cache read failed", zap.Error(err))
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			log.Debug("Cost data cache hit")
			return cached, nil
		}
		log.Warn("Discarding undecodable cost data cache entry")
	}

	value, err := load(ctx, orderID)
	if err != nil {
		return value, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn("Cost data cache encode failed", zap.Error(err))
		return value, nil
	}
	if err := r.store.Set(ctx, key, raw, r.ttl); err != nil {
		log.Warn("Cost data cache write failed", zap.Error(err))
	}
	return value, nil
}

var (
	_ costing.CostDataRepository  = (*CachingCostDataRepository)(nil)
	_ costing.CostDataInvalidator = (*CachingCostDataRepository)(nil)
)
