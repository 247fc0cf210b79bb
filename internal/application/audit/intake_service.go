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

// IntakeService handles document submissions for audit cases. Ingest is
// idempotent on document content: identical bytes submitted twice to the
// same case leave a single document on file.
type IntakeService struct {
	caseRepo       audit.AuditCaseRepository
	documentRepo   audit.DocumentRepository
	storage        ObjectStorageService
	locker         CaseLocker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	maxSizeBytes   int64
}

// NewIntakeService creates a new IntakeService
func NewIntakeService(
	caseRepo audit.AuditCaseRepository,
	documentRepo audit.DocumentRepository,
	storage ObjectStorageService,
	locker CaseLocker,
	logger *zap.Logger,
	maxSizeBytes int64,
) *IntakeService {
	return &IntakeService{
		caseRepo:     caseRepo,
		documentRepo: documentRepo,
		storage:      storage,
		locker:       locker,
		logger:       logger,
		maxSizeBytes: maxSizeBytes,
	}
}

// SetEventPublisher sets the event publisher for workflow integration
func (s *IntakeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// DocumentStorageKey returns the content-addressed storage key for a
// document fingerprint
func DocumentStorageKey(fingerprint string) string {
	return fmt.Sprintf("documents/%s/%s.pdf", fingerprint[:2], fingerprint)
}

// Ingest stores a submission for a case. Duplicate content is answered with
// the original document and no side effects. The first document of a case
// moves it from received to verifying.
func (s *IntakeService) Ingest(ctx context.Context, req IngestRequest) (*IngestResponse, error) {
	if len(req.Content) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Submission content cannot be empty")
	}
	if s.maxSizeBytes > 0 && int64(len(req.Content)) > s.maxSizeBytes {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Submission exceeds the size limit of %d bytes", s.maxSizeBytes))
	}

	unlock, err := s.locker.Lock(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.caseRepo.FindByID(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}

	// State guards come first: a case past verification rejects every
	// submission, known bytes or not.
	if !c.IsOpen() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("case %s is archived and no longer accepts submissions", c.ID))
	}

	// After the certificate exists a new submission is only recorded in
	// the audit trail; nothing is processed.
	if c.Stage >= audit.StageCertificateIssued {
		c.AddComment("system", fmt.Sprintf(
			"submission %q received via %s in stage %s, not processed", req.Filename, req.Source, c.Stage))
		if err := s.caseRepo.Save(ctx, c); err != nil {
			return nil, err
		}
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("case %s is in stage %s, submission recorded in audit trail only", c.ID, c.Stage))
	}

	fingerprint := audit.Fingerprint(req.Content)

	// Identical bytes already on file for this case: transparent no-op.
	if existing, err := s.documentRepo.FindByCaseAndFingerprint(ctx, c.ID, fingerprint); err == nil {
		s.logger.Info("duplicate submission ignored",
			zap.String("case_id", c.ID.String()),
			zap.String("fingerprint", fingerprint))
		return &IngestResponse{Document: ToDocumentResponse(existing), Duplicate: true}, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	storageKey := DocumentStorageKey(fingerprint)
	if err := s.storage.PutObject(ctx, storageKey, req.ContentType, req.Content); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	sequence := c.NextSequence()
	doc, err := audit.NewDocument(c.ID, fingerprint, req.Filename, req.ContentType, storageKey, int64(len(req.Content)), sequence)
	if err != nil {
		return nil, err
	}

	if c.Stage == audit.StageReceived {
		if err := c.AdvanceTo(audit.StageVerifying); err != nil {
			return nil, err
		}
	}
	c.AddDomainEvent(audit.NewDocumentIngestedEvent(c.ID, doc.ID, sequence))

	if err := s.caseRepo.SaveWithDocument(ctx, c, doc); err != nil {
		// A concurrent ingest of the same bytes won the unique
		// (case_id, fingerprint) race; answer with its document.
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, ferr := s.documentRepo.FindByCaseAndFingerprint(ctx, c.ID, fingerprint)
			if ferr != nil {
				return nil, err
			}
			return &IngestResponse{Document: ToDocumentResponse(existing), Duplicate: true}, nil
		}
		return nil, err
	}

	s.logger.Info("submission ingested",
		zap.String("case_id", c.ID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.Int64("sequence", sequence),
		zap.String("source", req.Source))

	s.publishEvents(ctx, c)
	return &IngestResponse{Document: ToDocumentResponse(doc)}, nil
}

// ListDocuments returns the documents of a case in ingest order
func (s *IntakeService) ListDocuments(ctx context.Context, caseID uuid.UUID) ([]DocumentResponse, error) {
	docs, err := s.documentRepo.FindByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, ToDocumentResponse(&docs[i]))
	}
	return out, nil
}

// DownloadURL returns a presigned URL for a stored document
func (s *IntakeService) DownloadURL(ctx context.Context, documentID uuid.UUID, expiresIn time.Duration) (string, time.Time, error) {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.storage.GenerateDownloadURL(ctx, doc.StoragePath, expiresIn)
}

func (s *IntakeService) publishEvents(ctx context.Context, c *audit.AuditCase) {
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
