package audit

import (
	"fmt"
	"time"

	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Certificate is the issued audit certificate artifact for one case.
// A case has at most one certificate.
type Certificate struct {
	shared.BaseEntity
	CaseID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ReferenceNumber string    `gorm:"size:64;not null;uniqueIndex"`
	ArtifactPath    string    `gorm:"size:512;not null"`
	ArtifactHash    string    `gorm:"size:64;not null"`
	IssuedAt        time.Time `gorm:"not null"`
}

// CertificateReference builds the stable certificate reference number for a
// case. openedAt is the case creation time, so the reference is reproducible
// from the case alone and does not shift when issuance crosses a year
// boundary.
func CertificateReference(caseID uuid.UUID, bafinID int64, openedAt time.Time) string {
	short := caseID.String()[:8]
	return fmt.Sprintf("AC-%d-%d-%s", openedAt.Year(), bafinID, short)
}

// NewCertificate records an issued certificate for the given case
func NewCertificate(c *AuditCase, artifactPath, artifactHash string, issuedAt time.Time) (*Certificate, error) {
	if c == nil {
		return nil, shared.ErrInvalidInput
	}
	if artifactPath == "" {
		return nil, shared.NewDomainError("CERTIFICATE_FAILED", "Certificate artifact path cannot be empty")
	}
	if len(artifactHash) != 64 {
		return nil, shared.NewDomainError("CERTIFICATE_FAILED", "Certificate artifact hash must be a SHA-256 hex digest")
	}

	return &Certificate{
		BaseEntity:      shared.NewBaseEntity(),
		CaseID:          c.ID,
		ReferenceNumber: CertificateReference(c.ID, c.BaFinID, c.CreatedAt),
		ArtifactPath:    artifactPath,
		ArtifactHash:    artifactHash,
		IssuedAt:        issuedAt,
	}, nil
}
