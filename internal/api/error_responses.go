package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talentdock/ats-matcher/internal/platform"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeInvalidQuery     ErrorCode = "INVALID_QUERY"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"

	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeTimeout       ErrorCode = "TIMEOUT"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	resp := &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			resp.RequestID = id
		}
	}

	c.AbortWithStatusJSON(statusCode, resp)
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON, "Invalid JSON in request body: "+err.Error())
}

// SendInvalidQueryError sends a standardized invalid query parameter error
func SendInvalidQueryError(c *gin.Context, param, message string) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid query parameter '"+param+"'",
		ErrorDetail{Field: param, Message: message})
}

// SendServiceError maps errors from the recommendation service onto HTTP responses.
func SendServiceError(c *gin.Context, operation string, err error) {
	var (
		validation *platform.ValidationError
		notFound   *platform.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Field: validation.Field, Message: validation.Message})
	case errors.As(err, &notFound):
		SendError(c, http.StatusNotFound, ErrorCodeNotFound, notFound.Error())
	case errors.Is(err, platform.ErrInvalidInput):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
	case errors.Is(err, platform.ErrNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		SendError(c, http.StatusGatewayTimeout, ErrorCodeTimeout, "Timed out during "+operation)
	default:
		SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
			"Internal error during "+operation+": "+err.Error())
	}
}
