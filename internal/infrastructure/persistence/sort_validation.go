package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// InstitutionSortFields contains allowed sort fields for institutions
var InstitutionSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"bafin_id":   true,
	"institute":  true,
	"city":       true,
	"ratio":      true,
}

// AuditCaseSortFields contains allowed sort fields for audit cases
var AuditCaseSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"bafin_id":    true,
	"stage":       true,
	"verified_at": true,
	"archived_at": true,
}

// DocumentSortFields contains allowed sort fields for documents
var DocumentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"filename":     true,
	"sequence":     true,
	"processed_at": true,
}

// CertificateSortFields contains allowed sort fields for certificates
var CertificateSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"reference_number": true,
	"issued_at":        true,
}
