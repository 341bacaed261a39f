package errors

import "fmt"

// ErrorCode represents a clinicseo error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"    // 400
	ErrInvalidRecord    ErrorCode = "INVALID_RECORD"     // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"          // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"     // 404
	ErrRecordTooLarge   ErrorCode = "RECORD_TOO_LARGE"   // 413
	ErrTemplateTooLarge ErrorCode = "TEMPLATE_TOO_LARGE" // 413
	ErrTemplate         ErrorCode = "TEMPLATE_ERROR"     // 422
	ErrCancelled        ErrorCode = "CANCELLED"          // 499
	ErrInternal         ErrorCode = "INTERNAL"           // 500
	ErrGenerationFailed ErrorCode = "GENERATION_FAILED"  // 502
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidRecord creates a 400 error for clinic data that is not a usable JSON record.
func NewInvalidRecord(reason string) *AppError {
	return &AppError{
		Code:    ErrInvalidRecord,
		Status:  400,
		Message: fmt.Sprintf("invalid clinic record: %s", reason),
	}
}

// NewNotFound creates a 404 error for when a generation cannot be found.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("generation not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file on disk.
func NewFileNotFound(path string) *AppError {
	return &AppError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewRecordTooLarge creates a 413 error when an uploaded record exceeds the size limit.
func NewRecordTooLarge(max, actual int) *AppError {
	return &AppError{
		Code:    ErrRecordTooLarge,
		Status:  413,
		Message: fmt.Sprintf("clinic record exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewTemplateTooLarge creates a 413 error when a prompt template exceeds the size limit.
func NewTemplateTooLarge(max, actual int) *AppError {
	return &AppError{
		Code:    ErrTemplateTooLarge,
		Status:  413,
		Message: fmt.Sprintf("prompt template exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewTemplateError creates a 422 error for a template that references unknown variables.
func NewTemplateError(unknown, available []string) *AppError {
	return &AppError{
		Code:    ErrTemplate,
		Status:  422,
		Message: fmt.Sprintf("prompt template references unknown variables: %v", unknown),
		Details: map[string]any{"unknown_variables": unknown, "available_variables": available},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by the caller.
func NewCancelled(operation string) *AppError {
	return &AppError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewGenerationFailed creates a 502 error when the text-generation service fails.
func NewGenerationFailed(provider string, err error) *AppError {
	msg := "generation failed"
	if err != nil {
		msg = fmt.Sprintf("generation failed: %v", err)
	}
	return &AppError{
		Code:    ErrGenerationFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"provider": provider},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}
