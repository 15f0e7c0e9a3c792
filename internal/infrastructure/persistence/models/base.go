package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseTimes holds the timestamps GORM maintains on every row
type BaseTimes struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BaseModel provides common persistence fields for models keyed by a UUID
type BaseModel struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	BaseTimes
}

// BeforeCreate assigns a random UUID when no ID was set
func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// CostLineModel holds the fields shared by every cost line booked against
// a manufacturing order
type CostLineModel struct {
	BaseModel
	ManufacturingOrderID string `gorm:"type:varchar(64);not null;index"`
}

// All returns every persistence model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&ManufacturingOrderModel{},
		&DirectMaterialModel{},
		&DirectLaborModel{},
		&OverheadCostModel{},
		&ProcessStageModel{},
	}
}
