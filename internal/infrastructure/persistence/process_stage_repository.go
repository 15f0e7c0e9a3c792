package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProcessStageRepository implements costing.ProcessStageRepository using GORM
type GormProcessStageRepository struct {
	db *gorm.DB
}

// NewGormProcessStageRepository creates a new GormProcessStageRepository
func NewGormProcessStageRepository(db *gorm.DB) *GormProcessStageRepository {
	return &GormProcessStageRepository{db: db}
}

// FindByID finds a stage by its ID and returns it with its order ID
func (r *GormProcessStageRepository) FindByID(ctx context.Context, id string) (costing.ProcessStage, string, error) {
	var model models.ProcessStageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return costing.ProcessStage{}, "", shared.NewDomainErrorWithDetails(shared.ErrNotFound.Code,
				"Process stage not found", map[string]string{"stage_id": id})
		}
		return costing.ProcessStage{}, "", fmt.Errorf("query process stage %s: %w", id, err)
	}

	stage, err := model.ToDomain()
	if err != nil {
		return costing.ProcessStage{}, "", fmt.Errorf("rehydrate process stage %s: %w", id, err)
	}
	return stage, model.ManufacturingOrderID, nil
}

// FindByOrder returns the order's stages sorted by sequence
func (r *GormProcessStageRepository) FindByOrder(ctx context.Context, orderID string) ([]costing.ProcessStage, error) {
	var rows []models.ProcessStageModel
	if err := r.db.WithContext(ctx).
		Where("manufacturing_order_id = ?", orderID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query process stages for order %s: %w", orderID, err)
	}

	stages := make([]costing.ProcessStage, 0, len(rows))
	for i := range rows {
		stage, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("rehydrate process stage %s: %w", rows[i].ID, err)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// Save inserts a stage that has never been saved, or updates one whose stored
// version still matches the version it was loaded at
func (r *GormProcessStageRepository) Save(ctx context.Context, orderID string, stage costing.ProcessStage) error {
	model := models.ProcessStageModelFromDomain(orderID, stage)
	if stage.Version() == 0 {
		model.Version = 1
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return saveError(stage, err)
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.ProcessStageModel{}).
		Where("id = ? AND version = ?", stage.ID(), stage.Version()).
		Updates(map[string]any{
			"manufacturing_order_id": model.ManufacturingOrderID,
			"name":                   model.Name,
			"sequence":               model.Sequence,
			"status":                 model.Status,
			"units_started":          model.UnitsStarted,
			"units_completed":        model.UnitsCompleted,
			"completion_percentage":  model.CompletionPercentage,
			"accumulated_cost":       model.AccumulatedCost,
			"currency":               model.Currency,
			"version":                gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return saveError(stage, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainErrorWithDetails(shared.ErrConcurrencyConflict.Code,
			"Process stage was modified by another request",
			map[string]string{"stage_id": stage.ID(), "version": fmt.Sprintf("%d", stage.Version())})
	}
	return nil
}

func saveError(stage costing.ProcessStage, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainErrorWithDetails(shared.ErrAlreadyExists.Code,
			"stage sequence already used by this order",
			map[string]string{"sequence": fmt.Sprintf("%d", stage.Sequence())})
	}
	return fmt.Errorf("save process stage %s: %w", stage.ID(), err)
}

// ExistsBySequence reports whether the order already has a stage at sequence
func (r *GormProcessStageRepository) ExistsBySequence(ctx context.Context, orderID string, sequence int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProcessStageModel{}).
		Where("manufacturing_order_id = ? AND sequence = ?", orderID, sequence).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count process stages for order %s: %w", orderID, err)
	}
	return count > 0, nil
}
