package persistence

import (
	"context"
	"errors"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Document, error) {
	var doc audit.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByCaseAndFingerprint finds the document with the given content
// fingerprint on the given case
func (r *GormDocumentRepository) FindByCaseAndFingerprint(ctx context.Context, caseID uuid.UUID, fingerprint string) (*audit.Document, error) {
	var doc audit.Document
	if err := r.db.WithContext(ctx).
		Where("case_id = ? AND fingerprint = ?", caseID, fingerprint).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByCase lists the documents of a case in ingest order
func (r *GormDocumentRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]audit.Document, error) {
	var docs []audit.Document
	if err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("sequence ASC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// FindUnprocessed lists documents without a processing timestamp, oldest first
func (r *GormDocumentRepository) FindUnprocessed(ctx context.Context, limit int) ([]audit.Document, error) {
	var docs []audit.Document
	query := r.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// FindAll finds all documents matching the filter
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Document, error) {
	var docs []audit.Document
	query := r.applyFilter(r.db.WithContext(ctx).Model(&audit.Document{}), filter)

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Save creates or updates a document. The unique (case_id, fingerprint)
// constraint surfaces as shared.ErrAlreadyExists.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *audit.Document) error {
	if err := r.db.WithContext(ctx).Save(doc).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes a document
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&audit.Document{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts documents matching the filter
func (r *GormDocumentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&audit.Document{})
	for key, value := range filter.Filters {
		switch key {
		case "case_id":
			query = query.Where("case_id = ?", value)
		case "processed":
			if value == true {
				query = query.Where("processed_at IS NOT NULL")
			} else {
				query = query.Where("processed_at IS NULL")
			}
		}
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "case_id":
			query = query.Where("case_id = ?", value)
		case "processed":
			if value == true {
				query = query.Where("processed_at IS NOT NULL")
			} else {
				query = query.Where("processed_at IS NULL")
			}
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy == "" {
		query = query.Order("sequence ASC")
	} else {
		orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "sequence")
		orderDir := ValidateSortOrder(filter.OrderDir)
		query = query.Order(orderBy + " " + orderDir)
	}

	return query
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ audit.DocumentRepository = (*GormDocumentRepository)(nil)
