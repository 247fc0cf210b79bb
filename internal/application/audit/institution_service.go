package audit

import (
	"context"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InstitutionService handles institution reference record administration
type InstitutionService struct {
	institutionRepo audit.InstitutionRepository
}

// NewInstitutionService creates a new InstitutionService
func NewInstitutionService(institutionRepo audit.InstitutionRepository) *InstitutionService {
	return &InstitutionService{
		institutionRepo: institutionRepo,
	}
}

// Create registers a new institution with its reference figures
func (s *InstitutionService) Create(ctx context.Context, req CreateInstitutionRequest) (*InstitutionResponse, error) {
	if existing, err := s.institutionRepo.FindByBaFinID(ctx, req.BaFinID); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	inst, err := audit.NewInstitution(req.BaFinID, req.Institute, req.Figures)
	if err != nil {
		return nil, err
	}
	inst.Address = req.Address
	inst.City = req.City
	inst.ContactPerson = req.ContactPerson
	inst.Phone = req.Phone
	inst.Fax = req.Fax
	inst.Email = req.Email

	if err := s.institutionRepo.Save(ctx, inst); err != nil {
		return nil, err
	}

	response := ToInstitutionResponse(inst)
	return &response, nil
}

// GetByID retrieves an institution by ID
func (s *InstitutionService) GetByID(ctx context.Context, id uuid.UUID) (*InstitutionResponse, error) {
	inst, err := s.institutionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToInstitutionResponse(inst)
	return &response, nil
}

// GetByBaFinID retrieves an institution by its regulator ID
func (s *InstitutionService) GetByBaFinID(ctx context.Context, bafinID int64) (*InstitutionResponse, error) {
	inst, err := s.institutionRepo.FindByBaFinID(ctx, bafinID)
	if err != nil {
		return nil, err
	}
	response := ToInstitutionResponse(inst)
	return &response, nil
}

// List retrieves institutions with pagination
func (s *InstitutionService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[InstitutionResponse], error) {
	institutions, err := s.institutionRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.institutionRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]InstitutionResponse, 0, len(institutions))
	for i := range institutions {
		items = append(items, ToInstitutionResponse(&institutions[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// UpdateFigures replaces the reference record of an institution. Open cases
// keep running against the new figures on their next verification.
func (s *InstitutionService) UpdateFigures(ctx context.Context, id uuid.UUID, req UpdateFiguresRequest) (*InstitutionResponse, error) {
	inst, err := s.institutionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inst.UpdateFigures(req.Figures)

	if err := s.institutionRepo.Save(ctx, inst); err != nil {
		return nil, err
	}

	response := ToInstitutionResponse(inst)
	return &response, nil
}
