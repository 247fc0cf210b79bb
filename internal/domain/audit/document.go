package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Fingerprint returns the hex-encoded SHA-256 digest of the document bytes.
// Two uploads with the same bytes always produce the same fingerprint.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Document is one submitted file attached to an audit case. The pair
// (case_id, fingerprint) is unique: re-submitting identical bytes to the
// same case is a no-op, while the same bytes on another case are a fresh
// document.
type Document struct {
	shared.BaseEntity
	CaseID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_documents_case_fingerprint;index"`
	Fingerprint string    `gorm:"size:64;not null;uniqueIndex:idx_documents_case_fingerprint"`
	Filename    string    `gorm:"size:255;not null"`
	ContentType string    `gorm:"size:120"`
	StoragePath string    `gorm:"size:512;not null"`
	SizeBytes   int64     `gorm:"not null"`
	// Sequence is the case-local ingest order. A document with a higher
	// sequence supersedes every earlier one.
	Sequence int64 `gorm:"not null"`
	// ProcessedAt is nil until extraction and comparison have run to a
	// final outcome for this document. It is the single source of truth
	// for "has this submission been handled".
	ProcessedAt *time.Time `gorm:"index"`
}

// NewDocument records a submission for a case
func NewDocument(caseID uuid.UUID, fingerprint, filename, contentType, storagePath string, sizeBytes, sequence int64) (*Document, error) {
	if fingerprint == "" || len(fingerprint) != 64 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document fingerprint must be a SHA-256 hex digest")
	}
	if filename == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document filename cannot be empty")
	}
	if sequence <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document sequence must be positive")
	}

	return &Document{
		BaseEntity:  shared.NewBaseEntity(),
		CaseID:      caseID,
		Fingerprint: fingerprint,
		Filename:    filename,
		ContentType: contentType,
		StoragePath: storagePath,
		SizeBytes:   sizeBytes,
		Sequence:    sequence,
	}, nil
}

// Processed reports whether the document has been handled to a final outcome
func (d *Document) Processed() bool {
	return d.ProcessedAt != nil
}

// MarkProcessed sets the processing timestamp exactly once
func (d *Document) MarkProcessed(at time.Time) error {
	if d.ProcessedAt != nil {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("document %s was already processed at %s", d.ID, d.ProcessedAt.Format(time.RFC3339)))
	}
	d.ProcessedAt = &at
	d.UpdatedAt = at
	return nil
}
