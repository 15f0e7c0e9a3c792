package costing

import (
	"encoding/json"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProcessStageStatus represents the status of a production stage
type ProcessStageStatus string

const (
	StageStatusNotStarted ProcessStageStatus = "NOT_STARTED"
	StageStatusInProgress ProcessStageStatus = "IN_PROGRESS"
	StageStatusCompleted  ProcessStageStatus = "COMPLETED"
	StageStatusOnHold     ProcessStageStatus = "ON_HOLD"
)

// IsValid checks if the status is a valid ProcessStageStatus
func (s ProcessStageStatus) IsValid() bool {
	switch s {
	case StageStatusNotStarted, StageStatusInProgress, StageStatusCompleted, StageStatusOnHold:
		return true
	}
	return false
}

// String returns the string representation of ProcessStageStatus
func (s ProcessStageStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ProcessStageStatus) CanTransitionTo(target ProcessStageStatus) bool {
	switch s {
	case StageStatusNotStarted:
		return target == StageStatusInProgress
	case StageStatusInProgress:
		return target == StageStatusCompleted || target == StageStatusOnHold
	case StageStatusOnHold:
		return target == StageStatusInProgress
	case StageStatusCompleted:
		return false // Terminal state
	}
	return false
}

// ProcessStage is one stage of a multi-stage production process.
// Units flow in (started), some finish (completed), and the rest sit in
// work-in-process at an average completion percentage.
// It is immutable - every mutator returns a new instance.
// version is the stored revision the stage was loaded at; 0 means unsaved.
type ProcessStage struct {
	id                   string
	version              int
	name                 string
	sequence             int
	status               ProcessStageStatus
	unitsStarted         valueobject.Quantity
	unitsCompleted       valueobject.Quantity
	completionPercentage decimal.Decimal
	accumulatedCost      valueobject.Money
}

// ProcessStageData is the plain serialized form of a ProcessStage
type ProcessStageData struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Sequence             int                  `json:"sequence"`
	Status               ProcessStageStatus   `json:"status"`
	UnitsStarted         decimal.Decimal      `json:"unitsStarted"`
	UnitsCompleted       decimal.Decimal      `json:"unitsCompleted"`
	CompletionPercentage decimal.Decimal      `json:"completionPercentage"`
	AccumulatedCost      decimal.Decimal      `json:"accumulatedCost"`
	Currency             valueobject.Currency `json:"currency"`
	Version              int                  `json:"version,omitempty"`
}

// NewProcessStage creates a stage in NOT_STARTED status with no completed
// units and no accumulated cost.
func NewProcessStage(id, name string, sequence int, unitsStarted decimal.Decimal, currency valueobject.Currency) (ProcessStage, error) {
	if id == "" {
		return ProcessStage{}, shared.NewDomainError(shared.ErrInvalidInput.Code, "Stage ID cannot be empty")
	}
	if name == "" {
		return ProcessStage{}, shared.NewDomainError(shared.ErrInvalidInput.Code, "Stage name cannot be empty")
	}
	if sequence < 1 {
		return ProcessStage{}, shared.NewDomainError(shared.ErrInvalidSequence.Code,
			fmt.Sprintf("stage sequence must be at least 1, got %d", sequence))
	}
	started, err := newUnits(unitsStarted)
	if err != nil {
		return ProcessStage{}, err
	}
	return ProcessStage{
		id:                   id,
		name:                 name,
		sequence:             sequence,
		status:               StageStatusNotStarted,
		unitsStarted:         started,
		unitsCompleted:       valueobject.ZeroQuantity(valueobject.DefaultUnit),
		completionPercentage: decimal.Zero,
		accumulatedCost:      valueobject.Zero(currency),
	}, nil
}

// ProcessStageFromData rebuilds a stage from its serialized form, enforcing
// every invariant a stage built through NewProcessStage would hold.
func ProcessStageFromData(data ProcessStageData) (ProcessStage, error) {
	if !data.Status.IsValid() {
		return ProcessStage{}, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("invalid stage status: %s", data.Status))
	}
	stage, err := NewProcessStage(data.ID, data.Name, data.Sequence, data.UnitsStarted, data.Currency)
	if err != nil {
		return ProcessStage{}, err
	}
	if stage, err = stage.WithUnitsCompleted(data.UnitsCompleted); err != nil {
		return ProcessStage{}, err
	}
	if stage, err = stage.WithCompletionPercentage(data.CompletionPercentage); err != nil {
		return ProcessStage{}, err
	}
	if stage, err = stage.WithAccumulatedCost(data.AccumulatedCost); err != nil {
		return ProcessStage{}, err
	}
	if data.Version < 0 {
		return ProcessStage{}, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("stage version cannot be negative, got %d", data.Version))
	}
	stage.status = data.Status
	stage.version = data.Version
	return stage, nil
}

func newUnits(n decimal.Decimal) (valueobject.Quantity, error) {
	if n.IsNegative() {
		return valueobject.Quantity{}, shared.NewDomainError(shared.ErrNegativeUnits.Code,
			fmt.Sprintf("units cannot be negative, got %s", n.String()))
	}
	return valueobject.NewQuantity(n, valueobject.DefaultUnit)
}

func invalidTransition(action string, status ProcessStageStatus) error {
	return shared.NewDomainErrorWithDetails(shared.ErrInvalidStageTransition.Code,
		fmt.Sprintf("cannot %s stage in %s status", action, status),
		map[string]string{"status": status.String(), "action": action})
}

// ID returns the stage identifier
func (s ProcessStage) ID() string {
	return s.id
}

// Name returns the stage name
func (s ProcessStage) Name() string {
	return s.name
}

// Sequence returns the ordering key among the stages of one order
func (s ProcessStage) Sequence() int {
	return s.sequence
}

// Version returns the stored revision the stage was loaded at, 0 if it has
// never been saved
func (s ProcessStage) Version() int {
	return s.version
}

// Status returns the current status
func (s ProcessStage) Status() ProcessStageStatus {
	return s.status
}

// UnitsStarted returns the units that entered this stage
func (s ProcessStage) UnitsStarted() valueobject.Quantity {
	return s.unitsStarted
}

// UnitsCompleted returns the units that finished this stage
func (s ProcessStage) UnitsCompleted() valueobject.Quantity {
	return s.unitsCompleted
}

// CompletionPercentage returns the average completion (0-100) of units still in process
func (s ProcessStage) CompletionPercentage() decimal.Decimal {
	return s.completionPercentage
}

// AccumulatedCost returns the cost charged to this stage so far
func (s ProcessStage) AccumulatedCost() valueobject.Money {
	return s.accumulatedCost
}

// Currency returns the currency of the accumulated cost
func (s ProcessStage) Currency() valueobject.Currency {
	return s.accumulatedCost.Currency()
}

// Start moves the stage to IN_PROGRESS from NOT_STARTED or ON_HOLD
func (s ProcessStage) Start() (ProcessStage, error) {
	if !s.status.CanTransitionTo(StageStatusInProgress) {
		return ProcessStage{}, invalidTransition("start", s.status)
	}
	s.status = StageStatusInProgress
	return s, nil
}

// Complete finishes the stage: every started unit counts as completed and
// completion is forced to 100%.
func (s ProcessStage) Complete() (ProcessStage, error) {
	if s.status != StageStatusInProgress {
		return ProcessStage{}, invalidTransition("complete", s.status)
	}
	s.status = StageStatusCompleted
	s.unitsCompleted = s.unitsStarted
	s.completionPercentage = hundred
	return s, nil
}

// PutOnHold pauses an in-progress stage
func (s ProcessStage) PutOnHold() (ProcessStage, error) {
	if s.status != StageStatusInProgress {
		return ProcessStage{}, invalidTransition("put on hold", s.status)
	}
	s.status = StageStatusOnHold
	return s, nil
}

// Resume continues a stage that is on hold
func (s ProcessStage) Resume() (ProcessStage, error) {
	if s.status != StageStatusOnHold {
		return ProcessStage{}, invalidTransition("resume", s.status)
	}
	s.status = StageStatusInProgress
	return s, nil
}

// WithUnitsStarted returns a copy with units started replaced.
// Units started may not drop below units already completed.
func (s ProcessStage) WithUnitsStarted(n decimal.Decimal) (ProcessStage, error) {
	started, err := newUnits(n)
	if err != nil {
		return ProcessStage{}, err
	}
	if n.LessThan(s.unitsCompleted.Amount()) {
		return ProcessStage{}, shared.NewDomainError(shared.ErrCompletedExceedsStarted.Code,
			fmt.Sprintf("units started (%s) cannot be less than units completed (%s)",
				n.String(), s.unitsCompleted.Amount().String()))
	}
	s.unitsStarted = started
	return s, nil
}

// WithUnitsCompleted returns a copy with units completed replaced
func (s ProcessStage) WithUnitsCompleted(n decimal.Decimal) (ProcessStage, error) {
	completed, err := newUnits(n)
	if err != nil {
		return ProcessStage{}, err
	}
	if n.GreaterThan(s.unitsStarted.Amount()) {
		return ProcessStage{}, shared.NewDomainError(shared.ErrCompletedExceedsStarted.Code,
			fmt.Sprintf("units completed (%s) cannot exceed units started (%s)",
				n.String(), s.unitsStarted.Amount().String()))
	}
	s.unitsCompleted = completed
	return s, nil
}

// WithCompletionPercentage returns a copy with the completion percentage replaced
func (s ProcessStage) WithCompletionPercentage(p decimal.Decimal) (ProcessStage, error) {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return ProcessStage{}, shared.NewDomainError(shared.ErrPercentageOutOfRange.Code,
			fmt.Sprintf("completion percentage must be between 0 and 100, got %s", p.String()))
	}
	s.completionPercentage = p
	return s, nil
}

// WithAccumulatedCost returns a copy with the accumulated cost replaced outright
func (s ProcessStage) WithAccumulatedCost(amount decimal.Decimal) (ProcessStage, error) {
	cost, err := valueobject.NewMoney(amount, s.Currency())
	if err != nil {
		return ProcessStage{}, err
	}
	s.accumulatedCost = cost
	return s, nil
}

// AddCost returns a copy with amount added to the accumulated cost
func (s ProcessStage) AddCost(amount decimal.Decimal) (ProcessStage, error) {
	cost, err := valueobject.NewMoney(amount, s.Currency())
	if err != nil {
		return ProcessStage{}, err
	}
	total, err := s.accumulatedCost.Add(cost)
	if err != nil {
		return ProcessStage{}, err
	}
	s.accumulatedCost = total
	return s, nil
}

// UnitsInProgress returns units started minus units completed
func (s ProcessStage) UnitsInProgress() valueobject.Quantity {
	inProgress, err := s.unitsStarted.Subtract(s.unitsCompleted)
	if err != nil {
		return valueobject.ZeroQuantity(s.unitsStarted.Unit())
	}
	return inProgress
}

// WIPPercentage returns the share of started units still in process (0-100)
func (s ProcessStage) WIPPercentage() decimal.Decimal {
	if s.unitsStarted.IsZero() {
		return decimal.Zero
	}
	return s.UnitsInProgress().Amount().Div(s.unitsStarted.Amount()).Mul(hundred)
}

// inProcessEquivalentUnits weights in-process units by their completion
func (s ProcessStage) inProcessEquivalentUnits() decimal.Decimal {
	return s.UnitsInProgress().Amount().Mul(s.completionPercentage).Div(hundred)
}

// EquivalentUnits returns completed units plus in-process units weighted by
// their percentage of completion
func (s ProcessStage) EquivalentUnits() valueobject.Quantity {
	eu := s.unitsCompleted.Amount().Add(s.inProcessEquivalentUnits())
	return valueobject.MustNewQuantity(eu, s.unitsStarted.Unit())
}

// CostPerEquivalentUnit returns accumulated cost over equivalent units,
// or zero when there are no equivalent units
func (s ProcessStage) CostPerEquivalentUnit() valueobject.Money {
	eu := s.EquivalentUnits()
	if eu.IsZero() {
		return valueobject.Zero(s.Currency())
	}
	perUnit, err := s.accumulatedCost.Divide(eu.Amount())
	if err != nil {
		return valueobject.Zero(s.Currency())
	}
	return perUnit
}

// TotalWIP returns the cost value of partially completed inventory: the
// equivalent units still in process valued at the cost per equivalent unit.
func (s ProcessStage) TotalWIP() valueobject.Money {
	wip, err := s.CostPerEquivalentUnit().Multiply(s.inProcessEquivalentUnits())
	if err != nil {
		return valueobject.Zero(s.Currency())
	}
	return wip
}

// ToData returns the plain serialized form
func (s ProcessStage) ToData() ProcessStageData {
	return ProcessStageData{
		ID:                   s.id,
		Name:                 s.name,
		Sequence:             s.sequence,
		Status:               s.status,
		UnitsStarted:         s.unitsStarted.Amount(),
		UnitsCompleted:       s.unitsCompleted.Amount(),
		CompletionPercentage: s.completionPercentage,
		AccumulatedCost:      s.accumulatedCost.Amount(),
		Currency:             s.Currency(),
		Version:              s.version,
	}
}

// MarshalJSON implements json.Marshaler. Numeric attributes are written as JSON numbers.
func (s ProcessStage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID                   string               `json:"id"`
		Name                 string               `json:"name"`
		Sequence             int                  `json:"sequence"`
		Status               ProcessStageStatus   `json:"status"`
		UnitsStarted         json.Number          `json:"unitsStarted"`
		UnitsCompleted       json.Number          `json:"unitsCompleted"`
		CompletionPercentage json.Number          `json:"completionPercentage"`
		AccumulatedCost      json.Number          `json:"accumulatedCost"`
		Currency             valueobject.Currency `json:"currency"`
		Version              int                  `json:"version,omitempty"`
	}{
		ID:                   s.id,
		Name:                 s.name,
		Sequence:             s.sequence,
		Status:               s.status,
		UnitsStarted:         json.Number(s.unitsStarted.Amount().String()),
		UnitsCompleted:       json.Number(s.unitsCompleted.Amount().String()),
		CompletionPercentage: json.Number(s.completionPercentage.String()),
		AccumulatedCost:      json.Number(s.accumulatedCost.Amount().String()),
		Currency:             s.Currency(),
		Version:              s.version,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (s *ProcessStage) UnmarshalJSON(data []byte) error {
	var raw ProcessStageData
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ProcessStageFromData(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
