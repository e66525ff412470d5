package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidCount        = "INVALID_COUNT"
	ErrCodeInvalidLength       = "INVALID_LENGTH"
	ErrCodeGenerationExhausted = "GENERATION_EXHAUSTED"
	ErrCodeCodeNotFound        = "CODE_NOT_FOUND"
	ErrCodeCodeAlreadyUsed     = "CODE_ALREADY_USED"
	ErrCodeDuplicateCode       = "DUPLICATE_CODE"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidCount        = NewDomainError(ErrCodeInvalidCount, "count must be between 1 and 2000")
	ErrInvalidLength       = NewDomainError(ErrCodeInvalidLength, "length must be 7 or 8")
	ErrGenerationExhausted = NewDomainError(ErrCodeGenerationExhausted, "unable to generate enough unique codes")
	ErrCodeNotFound        = NewDomainError(ErrCodeCodeNotFound, "discount code not found")
	ErrCodeAlreadyUsed     = NewDomainError(ErrCodeCodeAlreadyUsed, "discount code has already been used")
	ErrDuplicateCode       = NewDomainError(ErrCodeDuplicateCode, "discount code already exists")
)

// IsDomainError reports whether err wraps a DomainError with the given code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
