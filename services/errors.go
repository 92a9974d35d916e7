package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to clients in the "code" field.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateSlug       = "DUPLICATE_SLUG"
	CodeDuplicateRoomName   = "DUPLICATE_ROOM_NAME"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeForeignKey          = "FOREIGN_KEY_CONSTRAINT"
	CodeAlreadyMember       = "ALREADY_MEMBER"
	CodeRoomFull            = "ROOM_FULL"
	CodeNotMember           = "NOT_MEMBER"
	CodePrivateRoomDenied   = "PRIVATE_ROOM_ACCESS_DENIED"
	CodeRoomTypeMismatch    = "ROOM_TYPE_MISMATCH"
	CodeHostCannotLeave     = "HOST_CANNOT_LEAVE"
	CodeCannotRemoveCreator = "CANNOT_REMOVE_CREATOR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeRateLimited         = "RATE_LIMITED"
	CodeGenerationFailed    = "GENERATION_FAILED"
	CodeInternal            = "INTERNAL_ERROR"
)

// AppError is the only error type handlers translate into responses.
// Err carries the underlying cause for logs and is never serialized.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError returns err as an *AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// HasCode reports whether err is an *AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func NotFound(message string, details interface{}) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message, Details: details}
}

func Conflict(code, message string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: code, Message: message}
}

func Forbidden(code, message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: code, Message: message}
}

func BadRequest(code, message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: code, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Validation(fields []FieldError) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: "Validation failed",
		Details: map[string]interface{}{"errors": fields},
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

func generationFailed(attempts int) *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeGenerationFailed,
		Message: "Failed to generate a unique join code, please try again",
		Details: map[string]int{"attempts": attempts},
	}
}
