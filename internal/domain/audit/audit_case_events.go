package audit

import (
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants for the audit workflow
const (
	EventAuditCaseCreated  = "audit.case.created"
	EventCaseStageAdvanced = "audit.case.stage_advanced"
	EventCaseVerified      = "audit.case.verified"
	EventCaseReset         = "audit.case.reset"
	EventCaseArchived      = "audit.case.archived"
	EventDocumentIngested  = "audit.document.ingested"
	EventCertificateIssued = "audit.certificate.issued"
)

// AuditCaseCreatedEvent is raised when a new case is opened
type AuditCaseCreatedEvent struct {
	shared.BaseDomainEvent
	InstitutionID uuid.UUID `json:"institution_id"`
	BaFinID       int64     `json:"bafin_id"`
}

// NewAuditCaseCreatedEvent creates a new case created event
func NewAuditCaseCreatedEvent(caseID, institutionID uuid.UUID, bafinID int64) *AuditCaseCreatedEvent {
	return &AuditCaseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventAuditCaseCreated, "AuditCase", caseID),
		InstitutionID:   institutionID,
		BaFinID:         bafinID,
	}
}

// CaseStageAdvancedEvent is raised on every forward stage transition
type CaseStageAdvancedEvent struct {
	shared.BaseDomainEvent
	From CaseStage `json:"from"`
	To   CaseStage `json:"to"`
}

// NewCaseStageAdvancedEvent creates a new stage advanced event
func NewCaseStageAdvancedEvent(caseID uuid.UUID, from, to CaseStage) *CaseStageAdvancedEvent {
	return &CaseStageAdvancedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCaseStageAdvanced, "AuditCase", caseID),
		From:            from,
		To:              to,
	}
}

// CaseVerifiedEvent is raised when a submission matched the reference record
type CaseVerifiedEvent struct {
	shared.BaseDomainEvent
	InstitutionID uuid.UUID `json:"institution_id"`
}

// NewCaseVerifiedEvent creates a new case verified event
func NewCaseVerifiedEvent(caseID, institutionID uuid.UUID) *CaseVerifiedEvent {
	return &CaseVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCaseVerified, "AuditCase", caseID),
		InstitutionID:   institutionID,
	}
}

// CaseResetEvent is raised when a case is sent back to the received stage
type CaseResetEvent struct {
	shared.BaseDomainEvent
	From CaseStage `json:"from"`
}

// NewCaseResetEvent creates a new case reset event
func NewCaseResetEvent(caseID uuid.UUID, from CaseStage) *CaseResetEvent {
	return &CaseResetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCaseReset, "AuditCase", caseID),
		From:            from,
	}
}

// CaseArchivedEvent is raised when a case reaches its terminal stage
type CaseArchivedEvent struct {
	shared.BaseDomainEvent
}

// NewCaseArchivedEvent creates a new case archived event
func NewCaseArchivedEvent(caseID uuid.UUID) *CaseArchivedEvent {
	return &CaseArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCaseArchived, "AuditCase", caseID),
	}
}

// DocumentIngestedEvent is raised when a new submission is stored for a case.
// Extraction workers are driven by this event.
type DocumentIngestedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID `json:"document_id"`
	Sequence   int64     `json:"sequence"`
}

// NewDocumentIngestedEvent creates a new document ingested event
func NewDocumentIngestedEvent(caseID, documentID uuid.UUID, sequence int64) *DocumentIngestedEvent {
	return &DocumentIngestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventDocumentIngested, "AuditCase", caseID),
		DocumentID:      documentID,
		Sequence:        sequence,
	}
}

// CertificateIssuedEvent is raised when the certificate artifact is stored
type CertificateIssuedEvent struct {
	shared.BaseDomainEvent
	CertificateID   uuid.UUID `json:"certificate_id"`
	ReferenceNumber string    `json:"reference_number"`
}

// NewCertificateIssuedEvent creates a new certificate issued event
func NewCertificateIssuedEvent(caseID, certificateID uuid.UUID, referenceNumber string) *CertificateIssuedEvent {
	return &CertificateIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCertificateIssued, "AuditCase", caseID),
		CertificateID:   certificateID,
		ReferenceNumber: referenceNumber,
	}
}
