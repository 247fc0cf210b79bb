package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CertificateService produces and manages audit certificates
type CertificateService struct {
	caseRepo        audit.AuditCaseRepository
	certificateRepo audit.CertificateRepository
	documentRepo    audit.DocumentRepository
	institutionRepo audit.InstitutionRepository
	storage         ObjectStorageService
	renderer        CertificateRenderer
	locker          CaseLocker
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(
	caseRepo audit.AuditCaseRepository,
	certificateRepo audit.CertificateRepository,
	documentRepo audit.DocumentRepository,
	institutionRepo audit.InstitutionRepository,
	storage ObjectStorageService,
	renderer CertificateRenderer,
	locker CaseLocker,
	logger *zap.Logger,
) *CertificateService {
	return &CertificateService{
		caseRepo:        caseRepo,
		certificateRepo: certificateRepo,
		documentRepo:    documentRepo,
		institutionRepo: institutionRepo,
		storage:         storage,
		renderer:        renderer,
		locker:          locker,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for workflow integration
func (s *CertificateService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CertificateStorageKey returns the storage key for a certificate artifact
func CertificateStorageKey(referenceNumber string) string {
	return fmt.Sprintf("certificates/%s.pdf", referenceNumber)
}

// Issue produces the certificate artifact for a verified case. The call is
// idempotent: an already issued certificate is returned unchanged. The
// artifact combines the rendered certificate page with the first page of the
// verified submission.
func (s *CertificateService) Issue(ctx context.Context, caseID uuid.UUID) (*CertificateResponse, error) {
	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.caseRepo.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.certificateRepo.FindByCase(ctx, c.ID); err == nil {
		response := ToCertificateResponse(existing)
		return &response, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if c.Stage != audit.StageCertificateIssued {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("case %s is in stage %s, certificate requires a verified case", c.ID, c.Stage))
	}

	inst, err := s.institutionRepo.FindByID(ctx, c.InstitutionID)
	if err != nil {
		return nil, err
	}

	source, err := s.verifiedSubmission(ctx, c)
	if err != nil {
		return nil, err
	}

	issuedAt := time.Now()
	reference := audit.CertificateReference(c.ID, c.BaFinID, c.CreatedAt)

	artifact, err := s.renderer.Render(ctx, CertificateRenderData{
		ReferenceNumber: reference,
		Institute:       inst.Institute,
		BaFinID:         inst.BaFinID,
		IssuedAt:        issuedAt,
		SourceDocument:  source,
	})
	if err != nil {
		return nil, shared.NewDomainError("CERTIFICATE_FAILED", err.Error())
	}

	storageKey := CertificateStorageKey(reference)
	if err := s.storage.PutObject(ctx, storageKey, "application/pdf", artifact.Content); err != nil {
		return nil, shared.NewDomainError("CERTIFICATE_FAILED", fmt.Sprintf("store artifact: %s", err))
	}

	cert, err := audit.NewCertificate(c, storageKey, audit.Fingerprint(artifact.Content), issuedAt)
	if err != nil {
		return nil, err
	}

	if err := s.certificateRepo.Save(ctx, cert); err != nil {
		return nil, err
	}

	// The emitted artifact completes the case.
	if err := c.Complete(); err != nil {
		return nil, err
	}
	c.AddComment("system", fmt.Sprintf("certificate %s issued", cert.ReferenceNumber))
	c.AddDomainEvent(audit.NewCertificateIssuedEvent(c.ID, cert.ID, cert.ReferenceNumber))
	if err := s.caseRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("certificate issued",
		zap.String("case_id", c.ID.String()),
		zap.String("reference", cert.ReferenceNumber))

	s.publishEvents(ctx, c)
	response := ToCertificateResponse(cert)
	return &response, nil
}

// GetByCase retrieves the certificate of a case
func (s *CertificateService) GetByCase(ctx context.Context, caseID uuid.UUID) (*CertificateResponse, error) {
	cert, err := s.certificateRepo.FindByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	response := ToCertificateResponse(cert)
	return &response, nil
}

// DownloadURL returns a presigned URL for the certificate artifact
func (s *CertificateService) DownloadURL(ctx context.Context, caseID uuid.UUID, expiresIn time.Duration) (string, time.Time, error) {
	cert, err := s.certificateRepo.FindByCase(ctx, caseID)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.storage.GenerateDownloadURL(ctx, cert.ArtifactPath, expiresIn)
}

// verifiedSubmission loads the bytes of the newest processed document, the
// one the verification was based on
func (s *CertificateService) verifiedSubmission(ctx context.Context, c *audit.AuditCase) ([]byte, error) {
	docs, err := s.documentRepo.FindByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	var latest *audit.Document
	for i := range docs {
		if docs[i].Processed() && (latest == nil || docs[i].Sequence > latest.Sequence) {
			latest = &docs[i]
		}
	}
	if latest == nil {
		return nil, shared.NewDomainError("CERTIFICATE_FAILED",
			fmt.Sprintf("case %s has no processed submission", c.ID))
	}
	return s.storage.GetObject(ctx, latest.StoragePath)
}

func (s *CertificateService) publishEvents(ctx context.Context, c *audit.AuditCase) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range c.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("event publish failed",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	c.ClearDomainEvents()
}
