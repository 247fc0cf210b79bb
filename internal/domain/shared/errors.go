package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateCase       = NewDomainError("DUPLICATE_CASE", "An open audit case already exists for this institution")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Illegal audit stage transition")
	ErrExtractionFailed    = NewDomainError("EXTRACTION_FAILED", "No financial content could be extracted from the document")
	ErrCertificateFailed   = NewDomainError("CERTIFICATE_FAILED", "Certificate artifact could not be produced")
)
