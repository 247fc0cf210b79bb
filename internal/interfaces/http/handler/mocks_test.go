package handler

import (
	"context"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockInstitutionRepository is a mock implementation of audit.InstitutionRepository
type MockInstitutionRepository struct {
	mock.Mock
}

func (m *MockInstitutionRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Institution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Institution, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) Save(ctx context.Context, inst *audit.Institution) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func (m *MockInstitutionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInstitutionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInstitutionRepository) FindByBaFinID(ctx context.Context, bafinID int64) (*audit.Institution, error) {
	args := m.Called(ctx, bafinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Institution), args.Error(1)
}

// MockAuditCaseRepository is a mock implementation of audit.AuditCaseRepository
type MockAuditCaseRepository struct {
	mock.Mock
}

func (m *MockAuditCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.AuditCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.AuditCase), args.Error(1)
}

func (m *MockAuditCaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.AuditCase, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.AuditCase), args.Error(1)
}

func (m *MockAuditCaseRepository) Save(ctx context.Context, c *audit.AuditCase) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockAuditCaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAuditCaseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditCaseRepository) FindOpenByInstitution(ctx context.Context, institutionID uuid.UUID) (*audit.AuditCase, error) {
	args := m.Called(ctx, institutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.AuditCase), args.Error(1)
}

func (m *MockAuditCaseRepository) FindByStage(ctx context.Context, stage audit.CaseStage, filter shared.Filter) ([]audit.AuditCase, error) {
	args := m.Called(ctx, stage, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.AuditCase), args.Error(1)
}

func (m *MockAuditCaseRepository) SaveWithDocument(ctx context.Context, c *audit.AuditCase, doc *audit.Document) error {
	args := m.Called(ctx, c, doc)
	return args.Error(0)
}

// MockDocumentRepository is a mock implementation of audit.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Document, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *audit.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) FindByCaseAndFingerprint(ctx context.Context, caseID uuid.UUID, fingerprint string) (*audit.Document, error) {
	args := m.Called(ctx, caseID, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]audit.Document, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindUnprocessed(ctx context.Context, limit int) ([]audit.Document, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Document), args.Error(1)
}

// noopLocker satisfies the case locker without any locking
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, caseID uuid.UUID) (func(), error) {
	return func() {}, nil
}

// fakeStorage is an in-memory object store
type fakeStorage struct {
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) PutObject(ctx context.Context, storageKey, contentType string, content []byte) error {
	s.objects[storageKey] = content
	return nil
}

func (s *fakeStorage) GetObject(ctx context.Context, storageKey string) ([]byte, error) {
	content, ok := s.objects[storageKey]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return content, nil
}

func (s *fakeStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://storage.local/" + storageKey, time.Now().Add(expiresIn), nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, storageKey string) error {
	delete(s.objects, storageKey)
	return nil
}

func (s *fakeStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	_, ok := s.objects[storageKey]
	return ok, nil
}
