package persistence

import (
	"context"
	"errors"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err stems from a unique constraint
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// GormAuditCaseRepository implements AuditCaseRepository using GORM
type GormAuditCaseRepository struct {
	db *gorm.DB
}

// NewGormAuditCaseRepository creates a new GormAuditCaseRepository
func NewGormAuditCaseRepository(db *gorm.DB) *GormAuditCaseRepository {
	return &GormAuditCaseRepository{db: db}
}

// FindByID finds an audit case by its ID, comments included
func (r *GormAuditCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.AuditCase, error) {
	var c audit.AuditCase
	if err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindOpenByInstitution finds the single non-archived case of an institution
func (r *GormAuditCaseRepository) FindOpenByInstitution(ctx context.Context, institutionID uuid.UUID) (*audit.AuditCase, error) {
	var c audit.AuditCase
	if err := r.db.WithContext(ctx).
		Where("institution_id = ? AND archived_at IS NULL", institutionID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByStage lists cases currently in the given stage
func (r *GormAuditCaseRepository) FindByStage(ctx context.Context, stage audit.CaseStage, filter shared.Filter) ([]audit.AuditCase, error) {
	var cases []audit.AuditCase
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&audit.AuditCase{}).Where("stage = ?", stage),
		filter,
	)

	if err := query.Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

// FindAll finds all audit cases matching the filter
func (r *GormAuditCaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.AuditCase, error) {
	var cases []audit.AuditCase
	query := r.applyFilter(r.db.WithContext(ctx).Model(&audit.AuditCase{}), filter)

	if err := query.Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

// Save creates or updates an audit case. The partial unique index on
// open cases per institution surfaces as shared.ErrAlreadyExists.
func (r *GormAuditCaseRepository) Save(ctx context.Context, c *audit.AuditCase) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(c).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithDocument persists the case together with a newly ingested document
// in one transaction. The unique (case_id, fingerprint) constraint surfaces
// as shared.ErrAlreadyExists and rolls back the whole write.
func (r *GormAuditCaseRepository) SaveWithDocument(ctx context.Context, c *audit.AuditCase, doc *audit.Document) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(c).Error; err != nil {
			return err
		}
		if doc != nil {
			if err := tx.Save(doc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes an audit case, cascading to its comments and documents
func (r *GormAuditCaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&audit.AuditCase{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts audit cases matching the filter
func (r *GormAuditCaseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&audit.AuditCase{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormAuditCaseRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy == "" {
		query = query.Order("created_at DESC")
	} else {
		orderBy := ValidateSortField(filter.OrderBy, AuditCaseSortFields, "created_at")
		orderDir := ValidateSortOrder(filter.OrderDir)
		query = query.Order(orderBy + " " + orderDir)
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormAuditCaseRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "stage":
			query = query.Where("stage = ?", value)
		case "bafin_id":
			query = query.Where("bafin_id = ?", value)
		case "institution_id":
			query = query.Where("institution_id = ?", value)
		case "open":
			if value == true {
				query = query.Where("archived_at IS NULL")
			} else {
				query = query.Where("archived_at IS NOT NULL")
			}
		}
	}

	return query
}

// Ensure GormAuditCaseRepository implements AuditCaseRepository
var _ audit.AuditCaseRepository = (*GormAuditCaseRepository)(nil)
