package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	ErrCodeTimeout  = "ERR_TIMEOUT"
)

// Request error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Costing rule error codes
const (
	// ErrCodeInvalidState is used when a stage transition is not allowed
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeCurrencyMismatch is used when amounts in different currencies meet
	ErrCodeCurrencyMismatch = "ERR_CURRENCY_MISMATCH"
	// ErrCodeUnitMismatch is used when quantities in different units meet
	ErrCodeUnitMismatch = "ERR_UNIT_MISMATCH"
	// ErrCodeBusinessRule is used for arithmetic the costing rules reject
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeUnitsExceeded is used when completed units would exceed started units
	ErrCodeUnitsExceeded = "ERR_UNITS_EXCEEDED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeTimeout:  http.StatusGatewayTimeout,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Costing rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch: http.StatusUnprocessableEntity,
	ErrCodeUnitMismatch:     http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:     http.StatusUnprocessableEntity,
	ErrCodeUnitsExceeded:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"INTERNAL_ERROR":       ErrCodeInternal,

	// Rejected values
	"INVALID_AMOUNT":          ErrCodeInvalidInput,
	"NON_FINITE":              ErrCodeInvalidInput,
	"NEGATIVE_FACTOR":         ErrCodeInvalidInput,
	"NEGATIVE_DIVISOR":        ErrCodeInvalidInput,
	"ZERO_RATE":               ErrCodeInvalidInput,
	"NEGATIVE_HOURS":          ErrCodeInvalidInput,
	"NON_POSITIVE_QUANTITY":   ErrCodeInvalidInput,
	"NEGATIVE_UNITS":          ErrCodeInvalidInput,
	"PERCENTAGE_OUT_OF_RANGE": ErrCodeInvalidInput,
	"INVALID_SEQUENCE":        ErrCodeInvalidInput,

	// Costing rules
	"INVALID_STAGE_TRANSITION":  ErrCodeInvalidState,
	"CURRENCY_MISMATCH":         ErrCodeCurrencyMismatch,
	"UNIT_MISMATCH":             ErrCodeUnitMismatch,
	"NEGATIVE_RESULT":           ErrCodeBusinessRule,
	"DIVIDE_BY_ZERO":            ErrCodeBusinessRule,
	"COMPLETED_EXCEEDS_STARTED": ErrCodeUnitsExceeded,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
