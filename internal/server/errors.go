package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/core"
	"github.com/elektrokombinacija/cellplan/internal/scenario"
)

// ErrorType categorizes API failures.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeInternal    ErrorType = "INTERNAL"
)

// apiError is the JSON error envelope.
type apiError struct {
	Type    ErrorType `json:"code"`
	Message string    `json:"error"`
	Status  int       `json:"-"`
	Cause   error     `json:"-"`
}

func (e *apiError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *apiError) Unwrap() error { return e.Cause }

func newValidationError(msg string, cause error) *apiError {
	return &apiError{Type: ErrorTypeValidation, Message: msg, Status: http.StatusBadRequest, Cause: cause}
}

func newNotFoundError(msg string) *apiError {
	return &apiError{Type: ErrorTypeNotFound, Message: msg, Status: http.StatusNotFound}
}

// isClientError reports whether err was caused by bad input rather than
// by the service.
func isClientError(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Type == ErrorTypeValidation || ae.Type == ErrorTypeNotFound
	}
	return scenario.IsParseError(err) ||
		errors.Is(err, core.ErrInvalidKinematics) ||
		errors.Is(err, core.ErrUnreachable) ||
		errors.Is(err, core.ErrEmptyFleet) ||
		errors.Is(err, core.ErrSampleBudget)
}

// classify maps any error onto an apiError.
func classify(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case isClientError(err):
		return newValidationError(err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return &apiError{Type: ErrorTypeTimeout, Message: "pipeline timed out", Status: http.StatusGatewayTimeout, Cause: err}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &apiError{Type: ErrorTypeUnavailable, Message: "scheduler temporarily unavailable", Status: http.StatusServiceUnavailable, Cause: err}
	default:
		return &apiError{Type: ErrorTypeInternal, Message: "scheduler error", Status: http.StatusInternalServerError, Cause: err}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	ae := classify(err)
	fields := []zap.Field{
		zap.String("type", string(ae.Type)),
		zap.String("requestID", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	if ae.Status >= 500 {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}
	writeJSON(w, ae.Status, ae)
}
