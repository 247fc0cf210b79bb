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

// MailPollService drains the submission mailbox and feeds attachments into
// the intake pipeline. Messages that cannot be routed to an institution are
// quarantined for manual handling instead of being dropped.
type MailPollService struct {
	source          MailSource
	institutionRepo audit.InstitutionRepository
	caseRepo        audit.AuditCaseRepository
	intake          *IntakeService
	storage         ObjectStorageService
	logger          *zap.Logger
	interval        time.Duration
}

// NewMailPollService creates a new MailPollService
func NewMailPollService(
	source MailSource,
	institutionRepo audit.InstitutionRepository,
	caseRepo audit.AuditCaseRepository,
	intake *IntakeService,
	storage ObjectStorageService,
	logger *zap.Logger,
	interval time.Duration,
) *MailPollService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MailPollService{
		source:          source,
		institutionRepo: institutionRepo,
		caseRepo:        caseRepo,
		intake:          intake,
		storage:         storage,
		logger:          logger,
		interval:        interval,
	}
}

// Start polls the mailbox until the context is cancelled
func (s *MailPollService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PollOnce(ctx); err != nil {
				s.logger.Error("mailbox poll failed", zap.Error(err))
			}
		}
	}
}

// PollOnce fetches unseen messages and routes each attachment. A message is
// acknowledged only after every attachment was either ingested, recorded as
// duplicate, or quarantined.
func (s *MailPollService) PollOnce(ctx context.Context) error {
	messages, err := s.source.FetchUnseen(ctx)
	if err != nil {
		return fmt.Errorf("fetch mailbox: %w", err)
	}

	for _, msg := range messages {
		if err := s.handleMessage(ctx, msg); err != nil {
			s.logger.Error("message handling failed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err))
			continue
		}
		if err := s.source.MarkSeen(ctx, msg.MessageID); err != nil {
			s.logger.Error("message acknowledge failed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *MailPollService) handleMessage(ctx context.Context, msg InboundMessage) error {
	caseID, routed := s.resolveCase(ctx, msg)

	for _, att := range msg.Attachments {
		if len(att.Content) == 0 {
			continue
		}

		if !routed {
			if err := s.quarantine(ctx, msg, att); err != nil {
				return err
			}
			continue
		}

		resp, err := s.intake.Ingest(ctx, IngestRequest{
			CaseID:      caseID,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     att.Content,
			Source:      "mail",
		})
		switch {
		case err != nil:
			var domainErr *shared.DomainError
			// A late submission is recorded on the case by the intake
			// service itself; the message is still considered handled.
			if errors.As(err, &domainErr) && domainErr.Code == "INVALID_STATE" {
				s.logger.Info("late submission recorded only",
					zap.String("message_id", msg.MessageID),
					zap.String("case_id", caseID.String()))
				continue
			}
			return err
		case resp.Duplicate:
			s.logger.Info("duplicate mail submission",
				zap.String("message_id", msg.MessageID),
				zap.String("case_id", caseID.String()))
		}
	}
	return nil
}

// resolveCase maps a message to the open case of the institution named by
// the BaFin ID in the subject
func (s *MailPollService) resolveCase(ctx context.Context, msg InboundMessage) (uuid.UUID, bool) {
	bafinID, found := audit.DetectBaFinID(msg.Subject)
	if !found {
		s.logger.Warn("no BaFin ID in subject",
			zap.String("message_id", msg.MessageID),
			zap.String("subject", msg.Subject))
		return uuid.Nil, false
	}

	inst, err := s.institutionRepo.FindByBaFinID(ctx, bafinID)
	if err != nil {
		s.logger.Warn("unknown BaFin ID",
			zap.String("message_id", msg.MessageID),
			zap.Int64("bafin_id", bafinID))
		return uuid.Nil, false
	}

	c, err := s.caseRepo.FindOpenByInstitution(ctx, inst.ID)
	if err != nil {
		s.logger.Warn("no open case for institution",
			zap.String("message_id", msg.MessageID),
			zap.Int64("bafin_id", bafinID))
		return uuid.Nil, false
	}
	return c.ID, true
}

func (s *MailPollService) quarantine(ctx context.Context, msg InboundMessage, att MessageAttachment) error {
	key := fmt.Sprintf("quarantine/%s/%s", msg.MessageID, att.Filename)
	if err := s.storage.PutObject(ctx, key, att.ContentType, att.Content); err != nil {
		return fmt.Errorf("quarantine attachment: %w", err)
	}
	s.logger.Warn("attachment quarantined",
		zap.String("message_id", msg.MessageID),
		zap.String("from", msg.From),
		zap.String("storage_key", key))
	return nil
}
