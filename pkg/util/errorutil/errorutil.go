package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// ExecutionError standardizes fatal engine errors. Every failure a trigger
// invocation raises surfaces as one of these so the host can abort and roll
// back the write that caused the trigger.
type ExecutionError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(code, message string, status int, details map[string]any) *ExecutionError {
	return &ExecutionError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewMissingData signals an absent before/after image or required field on a
// trigger event. The triggering record-store write must be rolled back.
func NewMissingData(message string, details map[string]any) error {
	return NewExecutionError("MISSING_DATA", message, http.StatusUnprocessableEntity, details)
}

// NewCollaboratorFailure wraps a failed record-store or transport call.
func NewCollaboratorFailure(component, operation string, err error) error {
	return &ExecutionError{
		Code:       "COLLABORATOR_FAILURE",
		Message:    fmt.Sprintf("%s: %s failed", component, operation),
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]any{
			"component": component,
			"operation": operation,
		},
		Err: err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewExecutionError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &ExecutionError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewExecutionError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &ExecutionError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToExecutionError converts generic errors to ExecutionError.
func ToExecutionError(err error) *ExecutionError {
	if err == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if ee, ok := NewNotFound("resource", nil).(*ExecutionError); ok {
			return ee
		}
	}
	return &ExecutionError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToExecutionError(err)
}
