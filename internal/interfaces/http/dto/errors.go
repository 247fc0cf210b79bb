package dto

import "net/http"

// Error codes used by the HTTP surface. Domain errors pass their code
// through unchanged; the map below decides the status line.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when creating a duplicate resource
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	// ErrCodePayloadTooLarge is used when an upload exceeds the body limit
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// Workflow error codes raised by the audit domain
const (
	// ErrCodeDuplicateCase is raised when an institution already has an open case
	ErrCodeDuplicateCase = "DUPLICATE_CASE"
	// ErrCodeInvalidTransition is raised on an illegal stage change
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	// ErrCodeInvalidState is raised when an operation is not allowed in the current stage
	ErrCodeInvalidState = "INVALID_STATE"
	// ErrCodeExtractionFailed is raised when no figures could be recovered from a document
	ErrCodeExtractionFailed = "EXTRACTION_FAILED"
	// ErrCodeCertificateFailed is raised when the certificate artifact could not be produced
	ErrCodeCertificateFailed = "CERTIFICATE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	"INVALID_INPUT":        http.StatusBadRequest,
	"INVALID_BAFIN_ID":     http.StatusBadRequest,
	"INVALID_INSTITUTE":    http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Workflow conflicts are 409, content problems are 422. A failed
	// render depends on the browser sidecar, hence 502.
	ErrCodeDuplicateCase:     http.StatusConflict,
	ErrCodeInvalidTransition: http.StatusConflict,
	ErrCodeInvalidState:      http.StatusConflict,
	ErrCodeExtractionFailed:  http.StatusUnprocessableEntity,
	ErrCodeCertificateFailed: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
