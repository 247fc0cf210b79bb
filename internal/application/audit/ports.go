package audit

import (
	"context"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// ExtractionResult is what the extraction engine recovered from one document
type ExtractionResult struct {
	// BaFinID is the regulator identifier detected in the document text,
	// zero when none was found
	BaFinID int64
	// Fields holds the figures recovered from the document, keyed by
	// canonical field name
	Fields audit.FieldMap
	// Pages is the number of pages of the source document
	Pages int
}

// Extractor turns raw document bytes into structured figures
type Extractor interface {
	// Extract parses the document and returns the recovered figures.
	// A document with no recognizable financial content yields an
	// EXTRACTION_FAILED domain error.
	Extract(ctx context.Context, content []byte) (*ExtractionResult, error)
}

// ObjectStorageService stores and retrieves document and certificate artifacts
type ObjectStorageService interface {
	// PutObject stores the given bytes under the storage key
	PutObject(ctx context.Context, storageKey, contentType string, content []byte) error

	// GetObject retrieves the bytes stored under the storage key
	GetObject(ctx context.Context, storageKey string) ([]byte, error)

	// GenerateDownloadURL generates a presigned URL for downloading an object
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// CertificateArtifact is the rendered certificate ready for storage
type CertificateArtifact struct {
	Content []byte
}

// CertificateRenderData carries everything the renderer needs
type CertificateRenderData struct {
	ReferenceNumber string
	Institute       string
	BaFinID         int64
	IssuedAt        time.Time
	// SourceDocument holds the verified submission; its first page is
	// appended to the certificate page
	SourceDocument []byte
}

// CertificateRenderer produces the certificate artifact for a verified case
type CertificateRenderer interface {
	// Render produces the combined certificate document. Failures map to
	// the CERTIFICATE_FAILED domain error.
	Render(ctx context.Context, data CertificateRenderData) (*CertificateArtifact, error)
}

// CaseLocker serializes workflow operations per case. Lock blocks until the
// case lock is acquired or the context is done; the returned function
// releases the lock.
type CaseLocker interface {
	Lock(ctx context.Context, caseID uuid.UUID) (func(), error)
}

// InboundMessage is one message fetched from the submission mailbox
type InboundMessage struct {
	MessageID   string
	From        string
	Subject     string
	ReceivedAt  time.Time
	Attachments []MessageAttachment
}

// MessageAttachment is one file attached to an inbound message
type MessageAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MailSource is the inbound channel for document submissions
type MailSource interface {
	// FetchUnseen returns messages not yet handed to the workflow
	FetchUnseen(ctx context.Context) ([]InboundMessage, error)
	// MarkSeen acknowledges a message so it is not fetched again
	MarkSeen(ctx context.Context, messageID string) error
}
