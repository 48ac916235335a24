package dto

import "net/http"

// Error codes sent in the "error.code" field of a response.
// Domain codes travel verbatim; the constants below are the ones the HTTP
// layer itself produces or needs to classify.

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "UNKNOWN_ERROR"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeServiceUnavailable is used when an optional backend is not configured
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeInvalidID is used when a path identifier is not a UUID
	ErrCodeInvalidID = "INVALID_ID"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeDuplicateProduct    = "DUPLICATE_PRODUCT_CODE"
	ErrCodeDuplicateNIT        = "DUPLICATE_NIT"
	ErrCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
)

// Quotation lifecycle error codes
const (
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeNotEditable       = "QUOTATION_NOT_EDITABLE"
	ErrCodeNotDeletable      = "QUOTATION_NOT_DELETABLE"
	ErrCodeNumberConflict    = "NUMBER_CONFLICT"
	ErrCodeEmptyItems        = "EMPTY_ITEMS_FORBIDDEN"
	ErrCodePDFUnavailable    = "PDF_UNAVAILABLE"
)

// Business rule error codes
const (
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidID:       http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeMissingToken:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	// Token codes reaching a handler come from the verification and reset
	// links, which are request input. The JWT middleware answers 401 itself.
	ErrCodeInvalidToken: http.StatusBadRequest,
	ErrCodeTokenExpired: http.StatusBadRequest,
	ErrCodeTokenRevoked: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateProduct:    http.StatusConflict,
	ErrCodeDuplicateNIT:        http.StatusConflict,
	ErrCodeDuplicateEmail:      http.StatusConflict,
	ErrCodeEmailTaken:          http.StatusConflict,

	ErrCodeInvalidTransition: http.StatusConflict,
	ErrCodeNotEditable:       http.StatusConflict,
	ErrCodeNotDeletable:      http.StatusConflict,
	ErrCodeNumberConflict:    http.StatusConflict,
	ErrCodeEmptyItems:        http.StatusForbidden,
	ErrCodePDFUnavailable:    http.StatusServiceUnavailable,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorCodeAliases folds codes raised by lower layers into the public ones
var ErrorCodeAliases = map[string]string{
	"ALREADY_EXISTS":     ErrCodeConflict,
	"INVALID_INPUT":      ErrCodeValidation,
	"PDF_DISABLED":       ErrCodePDFUnavailable,
	"INVALID_TOKEN_TYPE": ErrCodeInvalidToken,
	"TOKEN_NOT_VALID":    ErrCodeInvalidToken,
	"TOO_MANY_REQUESTS":  ErrCodeRateLimited,
}

// NormalizeErrorCode converts an aliased error code to its public form.
// Codes that are already public, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := ErrorCodeAliases[code]; ok {
		return newCode
	}
	return code
}
