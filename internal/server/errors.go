package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"gorm.io/gorm"
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
	Reasons []wfdomain.Reason `json:"reasons,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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

// mapError translates domain errors to HTTP. A gate failure is 422 and
// carries every unmet reason; concurrency and transition conflicts are 409.
func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var gateErr *wfdomain.GateNotSatisfiedError
	if errors.As(err, &gateErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "gate_not_satisfied",
			Message: gateErr.Error(),
			Reasons: gateErr.Reasons,
		}
	}

	var immutableErr *wfdomain.ImmutableFieldError
	if errors.As(err, &immutableErr) {
		return http.StatusConflict, errorPayload{
			Type:    "immutable_field",
			Message: immutableErr.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, wfdomain.ErrUnauthorized):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "actor role not allowed for this transition",
		}
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, wfdomain.ErrUnknownState), errors.Is(err, entitydomain.ErrUnknownEntityType):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case errors.Is(err, wfdomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_transition",
			Message: "transition not allowed from the current state",
		}
	case errors.Is(err, entitydomain.ErrVersionConflict):
		return http.StatusConflict, errorPayload{
			Type:    "version_conflict",
			Message: "entity was modified concurrently, reload and retry",
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, entitydomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}
