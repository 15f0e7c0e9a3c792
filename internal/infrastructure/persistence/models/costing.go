package models

import (
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ManufacturingOrderModel is the costing view of a manufacturing order
type ManufacturingOrderModel struct {
	ID          string          `gorm:"type:varchar(64);primaryKey"`
	OrderNumber string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'SAR'"`
	BaseTimes
}

// TableName returns the table name for GORM
func (ManufacturingOrderModel) TableName() string {
	return "manufacturing_orders"
}

// DirectMaterialModel is a material line consumed by an order
type DirectMaterialModel struct {
	CostLineModel
	ItemID    string          `gorm:"type:varchar(64);not null"`
	ItemName  string          `gorm:"type:varchar(200);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (DirectMaterialModel) TableName() string {
	return "direct_materials"
}

// ToDomain converts the model to a domain record
func (m *DirectMaterialModel) ToDomain() costing.DirectMaterialRecord {
	return costing.DirectMaterialRecord{
		ItemID:    m.ItemID,
		ItemName:  m.ItemName,
		Quantity:  m.Quantity,
		UnitCost:  m.UnitCost,
		TotalCost: m.TotalCost,
	}
}

// DirectLaborModel is a labor line booked against an order
type DirectLaborModel struct {
	CostLineModel
	EmployeeID string          `gorm:"type:varchar(64)"`
	Hours      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	HourlyRate decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (DirectLaborModel) TableName() string {
	return "direct_labor"
}

// BeforeSave books hours × rate as the line total when a line is written with
// hours and a rate but no total. Lines already stored are read back as-is.
func (m *DirectLaborModel) BeforeSave(*gorm.DB) error {
	if !m.TotalCost.IsZero() || !m.Hours.IsPositive() || !m.HourlyRate.IsPositive() {
		return nil
	}
	cost, err := m.ToDomain().Cost(valueobject.DefaultCurrency)
	if err != nil {
		return err
	}
	m.TotalCost = cost.Amount()
	return nil
}

// ToDomain converts the model to a domain record
func (m *DirectLaborModel) ToDomain() costing.DirectLaborRecord {
	return costing.DirectLaborRecord{
		Hours:      m.Hours,
		HourlyRate: m.HourlyRate,
		TotalCost:  m.TotalCost,
	}
}

// OverheadCostModel is an overhead allocation charged to an order
type OverheadCostModel struct {
	CostLineModel
	Type        string          `gorm:"type:varchar(50);not null"`
	Description string          `gorm:"type:varchar(500)"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OverheadCostModel) TableName() string {
	return "overhead_costs"
}

// ToDomain converts the model to a domain record
func (m *OverheadCostModel) ToDomain() costing.OverheadCostRecord {
	return costing.OverheadCostRecord{
		Type:        m.Type,
		Description: m.Description,
		Amount:      m.Amount,
	}
}

// ProcessStageModel is the persistence model for a ProcessStage
type ProcessStageModel struct {
	BaseModel
	ManufacturingOrderID string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_process_stage_order_sequence,priority:1"`
	Sequence             int             `gorm:"not null;uniqueIndex:idx_process_stage_order_sequence,priority:2"`
	Name                 string          `gorm:"type:varchar(200);not null"`
	Status               string          `gorm:"type:varchar(20);not null;default:'NOT_STARTED'"`
	UnitsStarted         decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	UnitsCompleted       decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	CompletionPercentage decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	AccumulatedCost      decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	Currency             string          `gorm:"type:varchar(3);not null"`
	Version              int             `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (ProcessStageModel) TableName() string {
	return "process_stages"
}

// ToDomain rebuilds the domain stage, re-checking its invariants
func (m *ProcessStageModel) ToDomain() (costing.ProcessStage, error) {
	return costing.ProcessStageFromData(costing.ProcessStageData{
		ID:                   m.ID,
		Name:                 m.Name,
		Sequence:             m.Sequence,
		Status:               costing.ProcessStageStatus(m.Status),
		UnitsStarted:         m.UnitsStarted,
		UnitsCompleted:       m.UnitsCompleted,
		CompletionPercentage: m.CompletionPercentage,
		AccumulatedCost:      m.AccumulatedCost,
		Currency:             valueobject.Currency(m.Currency),
		Version:              m.Version,
	})
}

// ProcessStageModelFromDomain creates a persistence model for a stage of orderID
func ProcessStageModelFromDomain(orderID string, s costing.ProcessStage) *ProcessStageModel {
	data := s.ToData()
	m := &ProcessStageModel{
		ManufacturingOrderID: orderID,
		Sequence:             data.Sequence,
		Name:                 data.Name,
		Status:               string(data.Status),
		UnitsStarted:         data.UnitsStarted,
		UnitsCompleted:       data.UnitsCompleted,
		CompletionPercentage: data.CompletionPercentage,
		AccumulatedCost:      data.AccumulatedCost,
		Currency:             string(data.Currency),
		Version:              data.Version,
	}
	m.ID = data.ID
	return m
}
