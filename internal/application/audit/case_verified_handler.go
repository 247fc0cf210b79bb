package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CaseVerifiedHandler issues the certificate as soon as a case is verified.
// Issuance is retried with backoff because certificate rendering depends on
// an external browser process.
type CaseVerifiedHandler struct {
	certificates *CertificateService
	logger       *zap.Logger
	attempts     int
	backoff      time.Duration
}

// NewCaseVerifiedHandler creates a new handler for case verified events
func NewCaseVerifiedHandler(certificates *CertificateService, logger *zap.Logger) *CaseVerifiedHandler {
	return &CaseVerifiedHandler{
		certificates: certificates,
		logger:       logger,
		attempts:     3,
		backoff:      5 * time.Second,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *CaseVerifiedHandler) EventTypes() []string {
	return []string{audit.EventCaseVerified}
}

// Handle processes a CaseVerifiedEvent by producing the certificate artifact
func (h *CaseVerifiedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	verified, ok := event.(*audit.CaseVerifiedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			audit.EventCaseVerified, event.EventType())
	}

	var lastErr error
	for attempt := 1; attempt <= h.attempts; attempt++ {
		if _, err := h.certificates.Issue(ctx, verified.AggregateID()); err == nil {
			return nil
		} else {
			lastErr = err
			h.logger.Warn("certificate issuance failed",
				zap.String("case_id", verified.AggregateID().String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.backoff * time.Duration(attempt)):
		}
	}
	return lastErr
}
