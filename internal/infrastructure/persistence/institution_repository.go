package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInstitutionRepository implements InstitutionRepository using GORM
type GormInstitutionRepository struct {
	db *gorm.DB
}

// NewGormInstitutionRepository creates a new GormInstitutionRepository
func NewGormInstitutionRepository(db *gorm.DB) *GormInstitutionRepository {
	return &GormInstitutionRepository{db: db}
}

// FindByID finds an institution by its ID
func (r *GormInstitutionRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Institution, error) {
	var inst audit.Institution
	if err := r.db.WithContext(ctx).First(&inst, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// FindByBaFinID finds an institution by its regulator ID
func (r *GormInstitutionRepository) FindByBaFinID(ctx context.Context, bafinID int64) (*audit.Institution, error) {
	var inst audit.Institution
	if err := r.db.WithContext(ctx).First(&inst, "bafin_id = ?", bafinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// FindAll finds all institutions matching the filter
func (r *GormInstitutionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Institution, error) {
	var institutions []audit.Institution
	query := r.applyFilter(r.db.WithContext(ctx).Model(&audit.Institution{}), filter)

	if err := query.Find(&institutions).Error; err != nil {
		return nil, err
	}
	return institutions, nil
}

// Save creates or updates an institution
func (r *GormInstitutionRepository) Save(ctx context.Context, inst *audit.Institution) error {
	if err := r.db.WithContext(ctx).Save(inst).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes an institution
func (r *GormInstitutionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&audit.Institution{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts institutions matching the filter
func (r *GormInstitutionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&audit.Institution{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormInstitutionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InstitutionSortFields, "institute")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		query = query.Order("institute ASC")
	} else {
		query = query.Order(orderBy + " " + orderDir)
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInstitutionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("institute ILIKE ? OR city ILIKE ? OR CAST(bafin_id AS TEXT) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "bafin_id":
			query = query.Where("bafin_id = ?", value)
		case "city":
			query = query.Where("city = ?", value)
		}
	}

	return query
}

// Ensure GormInstitutionRepository implements InstitutionRepository
var _ audit.InstitutionRepository = (*GormInstitutionRepository)(nil)
