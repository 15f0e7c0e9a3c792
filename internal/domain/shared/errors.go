package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so callers can
// match a specific failure with errors.Is regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithDetails creates a domain error carrying diagnostic details
func NewDomainErrorWithDetails(code, message string, details map[string]string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// Value object validation and arithmetic errors
var (
	ErrInvalidAmount    = NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	ErrNonFinite        = NewDomainError("NON_FINITE", "Amount must be a finite number")
	ErrCurrencyMismatch = NewDomainError("CURRENCY_MISMATCH", "Currencies do not match")
	ErrUnitMismatch     = NewDomainError("UNIT_MISMATCH", "Units do not match")
	ErrNegativeResult   = NewDomainError("NEGATIVE_RESULT", "Result would be negative")
	ErrNegativeFactor   = NewDomainError("NEGATIVE_FACTOR", "Factor cannot be negative")
	ErrDivideByZero     = NewDomainError("DIVIDE_BY_ZERO", "Cannot divide by zero")
	ErrNegativeDivisor  = NewDomainError("NEGATIVE_DIVISOR", "Divisor cannot be negative")
	ErrZeroRate         = NewDomainError("ZERO_RATE", "Hourly rate must be greater than zero")
	ErrNegativeHours    = NewDomainError("NEGATIVE_HOURS", "Hours cannot be negative")
)

// Process costing errors
var (
	ErrNonPositiveQuantity     = NewDomainError("NON_POSITIVE_QUANTITY", "Quantity must be greater than zero")
	ErrInvalidStageTransition  = NewDomainError("INVALID_STAGE_TRANSITION", "Stage transition not allowed in current status")
	ErrNegativeUnits           = NewDomainError("NEGATIVE_UNITS", "Units cannot be negative")
	ErrCompletedExceedsStarted = NewDomainError("COMPLETED_EXCEEDS_STARTED", "Units completed cannot exceed units started")
	ErrPercentageOutOfRange    = NewDomainError("PERCENTAGE_OUT_OF_RANGE", "Completion percentage must be between 0 and 100")
	ErrInvalidSequence         = NewDomainError("INVALID_SEQUENCE", "Stage sequence must be at least 1")
)
