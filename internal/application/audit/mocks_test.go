package audit

import (
	"context"
	"sync"
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

// MockCertificateRepository is a mock implementation of audit.CertificateRepository
type MockCertificateRepository struct {
	mock.Mock
}

func (m *MockCertificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Certificate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Certificate), args.Error(1)
}

func (m *MockCertificateRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Certificate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Certificate), args.Error(1)
}

func (m *MockCertificateRepository) Save(ctx context.Context, cert *audit.Certificate) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

func (m *MockCertificateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCertificateRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCertificateRepository) FindByCase(ctx context.Context, caseID uuid.UUID) (*audit.Certificate, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Certificate), args.Error(1)
}

// fakeStorage is an in-memory ObjectStorageService
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) PutObject(ctx context.Context, storageKey, contentType string, content []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = append([]byte(nil), content...)
	return nil
}

func (s *fakeStorage) GetObject(ctx context.Context, storageKey string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.objects[storageKey]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return content, nil
}

func (s *fakeStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://storage.test/" + storageKey, time.Now().Add(expiresIn), nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

func (s *fakeStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// noopLocker satisfies CaseLocker without real locking
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, caseID uuid.UUID) (func(), error) {
	return func() {}, nil
}

// capturingPublisher records published events
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) byType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// stubExtractor returns a canned extraction result
type stubExtractor struct {
	result *ExtractionResult
	err    error
}

func (e *stubExtractor) Extract(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

// stubRenderer returns canned certificate bytes
type stubRenderer struct {
	content []byte
	err     error
}

func (r *stubRenderer) Render(ctx context.Context, data CertificateRenderData) (*CertificateArtifact, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &CertificateArtifact{Content: r.content}, nil
}

// fakeMailSource serves a fixed batch of messages
type fakeMailSource struct {
	mu       sync.Mutex
	messages []InboundMessage
	seen     []string
}

func (s *fakeMailSource) FetchUnseen(ctx context.Context) ([]InboundMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages, nil
}

func (s *fakeMailSource) MarkSeen(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, messageID)
	for i, msg := range s.messages {
		if msg.MessageID == messageID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	return nil
}
