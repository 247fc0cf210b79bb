package audit

import (
	"context"
	"errors"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CaseService handles audit case lifecycle operations
type CaseService struct {
	caseRepo        audit.AuditCaseRepository
	institutionRepo audit.InstitutionRepository
	locker          CaseLocker
	eventPublisher  shared.EventPublisher
}

// NewCaseService creates a new CaseService
func NewCaseService(caseRepo audit.AuditCaseRepository, institutionRepo audit.InstitutionRepository, locker CaseLocker) *CaseService {
	return &CaseService{
		caseRepo:        caseRepo,
		institutionRepo: institutionRepo,
		locker:          locker,
	}
}

// SetEventPublisher sets the event publisher for workflow integration
func (s *CaseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a new audit case for an institution. At most one open case
// may exist per institution; a second request is rejected with DUPLICATE_CASE.
func (s *CaseService) Create(ctx context.Context, req CreateCaseRequest) (*CaseResponse, error) {
	inst, err := s.institutionRepo.FindByID(ctx, req.InstitutionID)
	if err != nil {
		return nil, err
	}

	if open, err := s.caseRepo.FindOpenByInstitution(ctx, inst.ID); err == nil && open != nil {
		return nil, shared.ErrDuplicateCase
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	c, err := audit.NewAuditCase(inst)
	if err != nil {
		return nil, err
	}

	// The partial unique index on open cases catches a concurrent create
	// that slipped past the read above.
	if err := s.caseRepo.Save(ctx, c); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.ErrDuplicateCase
		}
		return nil, err
	}

	s.publishEvents(ctx, c)
	response := ToCaseResponse(c)
	return &response, nil
}

// GetByID retrieves an audit case by ID
func (s *CaseService) GetByID(ctx context.Context, caseID uuid.UUID) (*CaseResponse, error) {
	c, err := s.caseRepo.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	response := ToCaseResponse(c)
	return &response, nil
}

// List retrieves audit cases with filtering and pagination
func (s *CaseService) List(ctx context.Context, filter CaseListFilter) (*shared.Paginated[CaseResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Stage != nil {
		f.Filters["stage"] = *filter.Stage
	}
	if filter.BaFinID != 0 {
		f.Filters["bafin_id"] = filter.BaFinID
	}

	cases, err := s.caseRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.caseRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]CaseResponse, 0, len(cases))
	for i := range cases {
		items = append(items, ToCaseResponse(&cases[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// AddComment appends an audit-trail comment to a case
func (s *CaseService) AddComment(ctx context.Context, caseID uuid.UUID, author string, req AddCommentRequest) (*CaseResponse, error) {
	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.caseRepo.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	c.AddComment(author, req.Text)

	if err := s.caseRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToCaseResponse(c)
	return &response, nil
}

// Complete moves a certified case to its completed stage. Certificate
// issuance completes the case on its own; this is the manual fallback for
// cases whose certificate was delivered out of band.
func (s *CaseService) Complete(ctx context.Context, caseID uuid.UUID, actor string) (*CaseResponse, error) {
	return s.transition(ctx, caseID, func(c *audit.AuditCase) error {
		if err := c.Complete(); err != nil {
			return err
		}
		c.AddComment(actor, "certificate delivered, case completed")
		return nil
	})
}

// Reset sends a case back to the received stage, e.g. after the institution
// announced a corrected submission
func (s *CaseService) Reset(ctx context.Context, caseID uuid.UUID, actor string, req ResetCaseRequest) (*CaseResponse, error) {
	return s.transition(ctx, caseID, func(c *audit.AuditCase) error {
		return c.Reset(actor, req.Reason)
	})
}

// Archive closes a completed case
func (s *CaseService) Archive(ctx context.Context, caseID uuid.UUID, actor string) (*CaseResponse, error) {
	return s.transition(ctx, caseID, func(c *audit.AuditCase) error {
		if err := c.Archive(time.Now()); err != nil {
			return err
		}
		c.AddComment(actor, "case archived")
		return nil
	})
}

// transition runs a mutation on a case under its lock and persists the result
func (s *CaseService) transition(ctx context.Context, caseID uuid.UUID, mutate func(*audit.AuditCase) error) (*CaseResponse, error) {
	unlock, err := s.locker.Lock(ctx, caseID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.caseRepo.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := mutate(c); err != nil {
		return nil, err
	}

	if err := s.caseRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, c)
	response := ToCaseResponse(c)
	return &response, nil
}

func (s *CaseService) publishEvents(ctx context.Context, c *audit.AuditCase) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range c.GetDomainEvents() {
		// Event handling is async; a failed publish must not fail the
		// workflow operation itself.
		_ = s.eventPublisher.Publish(ctx, event)
	}
	c.ClearDomainEvents()
}
