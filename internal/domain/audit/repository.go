package audit

import (
	"context"

	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InstitutionRepository defines the persistence interface for institutions
type InstitutionRepository interface {
	shared.Repository[Institution]
	// FindByBaFinID returns the institution with the given regulator ID
	FindByBaFinID(ctx context.Context, bafinID int64) (*Institution, error)
}

// AuditCaseRepository defines the persistence interface for audit cases
type AuditCaseRepository interface {
	shared.Repository[AuditCase]
	// FindOpenByInstitution returns the single non-archived case of an
	// institution, or shared.ErrNotFound
	FindOpenByInstitution(ctx context.Context, institutionID uuid.UUID) (*AuditCase, error)
	// FindByStage lists cases currently in the given stage
	FindByStage(ctx context.Context, stage CaseStage, filter shared.Filter) ([]AuditCase, error)
	// SaveWithDocument persists the case together with a newly ingested
	// document in one transaction. The unique (case_id, fingerprint)
	// constraint surfaces as shared.ErrAlreadyExists.
	SaveWithDocument(ctx context.Context, c *AuditCase, doc *Document) error
}

// DocumentRepository defines the persistence interface for submitted documents
type DocumentRepository interface {
	shared.Repository[Document]
	// FindByCaseAndFingerprint returns the document with the given content
	// fingerprint on the given case, or shared.ErrNotFound
	FindByCaseAndFingerprint(ctx context.Context, caseID uuid.UUID, fingerprint string) (*Document, error)
	// FindByCase lists the documents of a case in ingest order
	FindByCase(ctx context.Context, caseID uuid.UUID) ([]Document, error)
	// FindUnprocessed lists documents without a processing timestamp,
	// oldest first, for recovery after a restart
	FindUnprocessed(ctx context.Context, limit int) ([]Document, error)
}

// CertificateRepository defines the persistence interface for certificates
type CertificateRepository interface {
	shared.Repository[Certificate]
	// FindByCase returns the certificate of a case, or shared.ErrNotFound
	FindByCase(ctx context.Context, caseID uuid.UUID) (*Certificate, error)
}
