package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/interfaces/http/dto"
	"github.com/erp/costing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindJSON decodes the body into req, writing a 400 response on failure
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// HandleError converts an error to an HTTP response. Domain errors keep
// their message and details; anything else is logged and reported as an
// internal error without leaking its text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		resp := dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID)
		resp.Error.Details = domainErr.Details
		c.JSON(dto.GetHTTPStatus(code), resp)
		return
	}

	log := logger.GetGinLogger(c)
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("Request timed out", zap.Error(err))
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeTimeout, "The request took too long to complete")
		return
	}

	log.Error("Unhandled error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
