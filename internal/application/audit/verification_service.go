package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VerificationService runs the extraction and comparison pipeline for
// ingested documents and applies the outcome to the case
type VerificationService struct {
	caseRepo        audit.AuditCaseRepository
	documentRepo    audit.DocumentRepository
	institutionRepo audit.InstitutionRepository
	storage         ObjectStorageService
	extractor       Extractor
	locker          CaseLocker
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	tolerance       decimal.Decimal
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(
	caseRepo audit.AuditCaseRepository,
	documentRepo audit.DocumentRepository,
	institutionRepo audit.InstitutionRepository,
	storage ObjectStorageService,
	extractor Extractor,
	locker CaseLocker,
	logger *zap.Logger,
	tolerance decimal.Decimal,
) *VerificationService {
	return &VerificationService{
		caseRepo:        caseRepo,
		documentRepo:    documentRepo,
		institutionRepo: institutionRepo,
		storage:         storage,
		extractor:       extractor,
		locker:          locker,
		logger:          logger,
		tolerance:       tolerance,
	}
}

// SetEventPublisher sets the event publisher for workflow integration
func (s *VerificationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ProcessDocument extracts figures from a stored document and compares them
// against the institution's reference record. The expensive extraction runs
// outside the case lock; the outcome is applied under the lock, and results
// for documents that were superseded in the meantime are discarded.
func (s *VerificationService) ProcessDocument(ctx context.Context, caseID, documentID uuid.UUID) error {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Processed() {
		return nil
	}

	content, err := s.storage.GetObject(ctx, doc.StoragePath)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", doc.ID, err)
	}

	extraction, extractErr := s.extractor.Extract(ctx, content)

	// The per-job deadline may have expired during extraction. The outcome,
	// a timeout included, must still reach the database or the document
	// would be re-queued forever.
	ctx = context.WithoutCancel(ctx)

	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.caseRepo.FindByID(ctx, caseID)
	if err != nil {
		return err
	}
	doc, err = s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Processed() {
		return nil
	}

	now := time.Now()

	// A newer submission arrived while this one was being extracted; its
	// result no longer represents the institution's latest word.
	if doc.Sequence < c.LastSequence {
		s.logger.Info("stale extraction discarded",
			zap.String("case_id", c.ID.String()),
			zap.String("document_id", doc.ID.String()),
			zap.Int64("sequence", doc.Sequence),
			zap.Int64("latest", c.LastSequence))
		if err := doc.MarkProcessed(now); err != nil {
			return err
		}
		c.AddComment("system", fmt.Sprintf("submission %q superseded by a newer one, result discarded", doc.Filename))
		return s.save(ctx, c, doc)
	}

	if c.Stage != audit.StageVerifying {
		if err := doc.MarkProcessed(now); err != nil {
			return err
		}
		c.AddComment("system", fmt.Sprintf("submission %q skipped, case is in stage %s", doc.Filename, c.Stage))
		return s.save(ctx, c, doc)
	}

	if extractErr != nil {
		return s.applyExtractionFailure(ctx, c, doc, now, extractErr)
	}

	if extraction.BaFinID != 0 && extraction.BaFinID != c.BaFinID {
		return s.applyExtractionFailure(ctx, c, doc, now, shared.NewDomainError("EXTRACTION_FAILED",
			fmt.Sprintf("document carries BaFin ID %d, case belongs to %d", extraction.BaFinID, c.BaFinID)))
	}

	inst, err := s.institutionRepo.FindByID(ctx, c.InstitutionID)
	if err != nil {
		return err
	}

	result := audit.VerifyFields(extraction.Fields, inst, s.tolerance)

	if err := doc.MarkProcessed(now); err != nil {
		return err
	}

	if result.Verified() {
		if err := c.MarkVerified(now); err != nil {
			return err
		}
		c.AddComment("system", fmt.Sprintf("submission %q verified against the reference record\n%s", doc.Filename, result.Diff()))
		s.logger.Info("case verified",
			zap.String("case_id", c.ID.String()),
			zap.String("document_id", doc.ID.String()))
	} else {
		// A mismatch is a regular outcome, not an error. The case stays
		// in verifying and waits for a corrected submission.
		c.AddComment("system", fmt.Sprintf("submission %q does not match the reference record\n%s", doc.Filename, result.Diff()))
		s.logger.Info("verification mismatch",
			zap.String("case_id", c.ID.String()),
			zap.String("document_id", doc.ID.String()),
			zap.Int("mismatches", len(result.Mismatches())),
			zap.Int("missing", len(result.Missing())))
	}

	return s.save(ctx, c, doc)
}

func (s *VerificationService) applyExtractionFailure(ctx context.Context, c *audit.AuditCase, doc *audit.Document, now time.Time, cause error) error {
	if err := doc.MarkProcessed(now); err != nil {
		return err
	}
	c.AddComment("system", fmt.Sprintf("extraction failed for submission %q: %s", doc.Filename, cause.Error()))
	s.logger.Warn("extraction failed",
		zap.String("case_id", c.ID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.Error(cause))
	if err := s.save(ctx, c, doc); err != nil {
		return err
	}

	var domainErr *shared.DomainError
	if errors.As(cause, &domainErr) {
		return cause
	}
	return shared.NewDomainError("EXTRACTION_FAILED", cause.Error())
}

// RecoverUnprocessed re-queues documents whose processing was interrupted,
// e.g. by a restart
func (s *VerificationService) RecoverUnprocessed(ctx context.Context, limit int) (int, error) {
	docs, err := s.documentRepo.FindUnprocessed(ctx, limit)
	if err != nil {
		return 0, err
	}
	if s.eventPublisher == nil {
		return 0, nil
	}
	for i := range docs {
		event := audit.NewDocumentIngestedEvent(docs[i].CaseID, docs[i].ID, docs[i].Sequence)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			return i, err
		}
	}
	return len(docs), nil
}

func (s *VerificationService) save(ctx context.Context, c *audit.AuditCase, doc *audit.Document) error {
	if err := s.caseRepo.SaveWithDocument(ctx, c, doc); err != nil {
		return err
	}
	if s.eventPublisher != nil {
		for _, event := range c.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, event); err != nil {
				s.logger.Warn("event publish failed",
					zap.String("event_type", event.EventType()),
					zap.Error(err))
			}
		}
		c.ClearDomainEvents()
	}
	return nil
}
