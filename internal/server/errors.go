package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/rendezvous/internal/apperror"
	"github.com/smallbiznis/rendezvous/pkg/db/pagination"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// kindStatus maps each error kind to its HTTP status. Order matters for
// errors that wrap more than one kind.
var kindStatus = []struct {
	kind   error
	status int
}{
	{apperror.ErrValidation, http.StatusBadRequest},
	{apperror.ErrNotFound, http.StatusNotFound},
	{apperror.ErrInvalidTransition, http.StatusConflict},
	{apperror.ErrConflict, http.StatusConflict},
	{apperror.ErrIneligibleBookings, http.StatusUnprocessableEntity},
	{apperror.ErrPreconditionFailed, http.StatusUnprocessableEntity},
	{apperror.ErrConfirmationRequired, http.StatusPreconditionRequired},
}

func mapError(err error) (int, errorPayload) {
	if err == nil || errors.Is(err, ErrInternal) {
		return http.StatusInternalServerError, internalPayload()
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var fieldErr *apperror.ValidationError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: fieldErr.Message,
			Errors: []ValidationError{
				{
					Field:   fieldErr.Field,
					Code:    "invalid_" + fieldErr.Field,
					Message: fieldErr.Message,
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, pagination.ErrInvalidCursor):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid page token",
			Errors: []ValidationError{
				{Field: "page_token", Code: "invalid_page_token", Message: "invalid page token"},
			},
		}
	}

	for _, entry := range kindStatus {
		if errors.Is(err, entry.kind) {
			return entry.status, errorPayload{
				Type:    entry.kind.Error(),
				Message: err.Error(),
			}
		}
	}
	return http.StatusInternalServerError, internalPayload()
}

func internalPayload() errorPayload {
	return errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog reports the error type and code attached to request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal_error", "internal_error"
	}
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}
