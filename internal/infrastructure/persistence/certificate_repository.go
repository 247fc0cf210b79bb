package persistence

import (
	"context"
	"errors"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCertificateRepository implements CertificateRepository using GORM
type GormCertificateRepository struct {
	db *gorm.DB
}

// NewGormCertificateRepository creates a new GormCertificateRepository
func NewGormCertificateRepository(db *gorm.DB) *GormCertificateRepository {
	return &GormCertificateRepository{db: db}
}

// FindByID finds a certificate by its ID
func (r *GormCertificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Certificate, error) {
	var cert audit.Certificate
	if err := r.db.WithContext(ctx).First(&cert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// FindByCase finds the certificate of a case
func (r *GormCertificateRepository) FindByCase(ctx context.Context, caseID uuid.UUID) (*audit.Certificate, error) {
	var cert audit.Certificate
	if err := r.db.WithContext(ctx).First(&cert, "case_id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// FindAll finds all certificates matching the filter
func (r *GormCertificateRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Certificate, error) {
	var certs []audit.Certificate
	query := r.db.WithContext(ctx).Model(&audit.Certificate{})

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy == "" {
		query = query.Order("issued_at DESC")
	} else {
		orderBy := ValidateSortField(filter.OrderBy, CertificateSortFields, "issued_at")
		orderDir := ValidateSortOrder(filter.OrderDir)
		query = query.Order(orderBy + " " + orderDir)
	}

	if err := query.Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

// Save creates or updates a certificate. The unique case and reference
// number constraints surface as shared.ErrAlreadyExists.
func (r *GormCertificateRepository) Save(ctx context.Context, cert *audit.Certificate) error {
	if err := r.db.WithContext(ctx).Save(cert).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes a certificate
func (r *GormCertificateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&audit.Certificate{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts certificates
func (r *GormCertificateRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&audit.Certificate{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormCertificateRepository implements CertificateRepository
var _ audit.CertificateRepository = (*GormCertificateRepository)(nil)
