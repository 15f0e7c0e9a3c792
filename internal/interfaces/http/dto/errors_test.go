package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeCurrencyMismatch, http.StatusUnprocessableEntity},
		{ErrCodeUnitsExceeded, http.StatusUnprocessableEntity},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		err      *shared.DomainError
		expected string
		status   int
	}{
		{shared.ErrNotFound, ErrCodeNotFound, http.StatusNotFound},
		{shared.ErrAlreadyExists, ErrCodeAlreadyExists, http.StatusConflict},
		{shared.ErrConcurrencyConflict, ErrCodeConcurrencyConflict, http.StatusConflict},
		{shared.ErrInvalidAmount, ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.ErrNonFinite, ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.ErrNonPositiveQuantity, ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.ErrPercentageOutOfRange, ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.ErrInvalidStageTransition, ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{shared.ErrCurrencyMismatch, ErrCodeCurrencyMismatch, http.StatusUnprocessableEntity},
		{shared.ErrNegativeResult, ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{shared.ErrCompletedExceedsStarted, ErrCodeUnitsExceeded, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			code := NormalizeErrorCode(tt.err.Code)
			assert.Equal(t, tt.expected, code)
			assert.Equal(t, tt.status, GetHTTPStatus(code))
		})
	}

	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
}

func TestDomainMappingTargetsHaveStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", domainCode, apiCode)
	}
}

func TestResponseJSON(t *testing.T) {
	t.Run("success omits error", func(t *testing.T) {
		b, err := json.Marshal(NewSuccessResponse(map[string]int{"n": 1}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, string(b))
	})

	t.Run("error with request id", func(t *testing.T) {
		b, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeNotFound, "stage not found", "req-1"))
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"success":false,"error":{"code":"ERR_NOT_FOUND","message":"stage not found","request_id":"req-1"}}`,
			string(b))
	})

	t.Run("validation fields", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
			{Field: "amount", Message: "Must be greater than 0"},
		})
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Fields, 1)
		assert.Equal(t, "amount", resp.Error.Fields[0].Field)
	})
}
