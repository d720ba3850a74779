package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrNotAuthorized
	ErrInternal
	ErrSlotUnavailable
	ErrDuplicateBookingSameDay
	ErrUnknownAction
	ErrDuplicateHistory
	ErrInvalidState
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status for the error middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrUnknownAction:
		return http.StatusBadRequest
	case ErrNotAuthorized:
		return http.StatusForbidden
	case ErrSlotUnavailable, ErrDuplicateBookingSameDay, ErrDuplicateHistory, ErrInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the ErrorCode carried by err, or ErrInternal if err is not
// an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Error constructors

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func NotAuthorized(message string) *AppError {
	if message == "" {
		message = "not authorized"
	}
	return &AppError{
		Code:    ErrNotAuthorized,
		Message: message,
	}
}

// SlotUnavailable covers every way a booking target can be unusable: the
// slot is missing, not marked available, or already taken. Callers get one
// message for all three.
func SlotUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrSlotUnavailable,
		Message: "this slot has already been booked or is unavailable",
		Err:     err,
	}
}

func DuplicateBookingSameDay() *AppError {
	return &AppError{
		Code:    ErrDuplicateBookingSameDay,
		Message: "you already have an appointment on this date",
	}
}

func UnknownAction(action string) *AppError {
	return &AppError{
		Code:    ErrUnknownAction,
		Message: fmt.Sprintf("unknown action %q", action),
	}
}

func DuplicateHistory() *AppError {
	return &AppError{
		Code:    ErrDuplicateHistory,
		Message: "history already recorded for this appointment",
	}
}

func InvalidState(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidState,
		Message: message,
	}
}
