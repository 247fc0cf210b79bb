package audit

import (
	"fmt"
	"time"

	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CaseStage is the ordinal workflow stage of an audit case
type CaseStage int

const (
	StageReceived          CaseStage = iota + 1 // case opened, waiting for a usable submission
	StageVerifying                              // at least one document ingested, comparison pending or failed
	StageCertificateIssued                      // figures matched, certificate produced
	StageCompleted                              // certificate delivered
	StageArchived                               // terminal
)

// IsValid checks if the stage is a known workflow stage
func (s CaseStage) IsValid() bool {
	return s >= StageReceived && s <= StageArchived
}

// String returns the stage name
func (s CaseStage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageVerifying:
		return "verifying"
	case StageCertificateIssued:
		return "certificate_issued"
	case StageCompleted:
		return "completed"
	case StageArchived:
		return "archived"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CanTransitionTo checks if the stage can advance to the target stage.
// Stages only ever move forward one step at a time; the reset to
// StageReceived is a separate operation, not a transition.
func (s CaseStage) CanTransitionTo(target CaseStage) bool {
	return target.IsValid() && target == s+1
}

// CaseComment is an audit-trail entry attached to a case
type CaseComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"case_id"`
	Author    string    `gorm:"size:120;not null" json:"author"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditCase is the aggregate root of one audit engagement for one
// institution. At most one non-archived case may exist per institution.
type AuditCase struct {
	shared.BaseAggregateRoot
	InstitutionID uuid.UUID `gorm:"type:uuid;not null;index"`
	BaFinID       int64     `gorm:"column:bafin_id;not null;index"`
	Stage         CaseStage `gorm:"not null;default:1"`
	// LastSequence is the highest ingest sequence number assigned to a
	// document of this case. Extraction results carrying a lower sequence
	// are stale and must be discarded.
	LastSequence int64         `gorm:"not null;default:0"`
	VerifiedAt   *time.Time    `json:"verified_at,omitempty"`
	ArchivedAt   *time.Time    `gorm:"index" json:"archived_at,omitempty"`
	Comments     []CaseComment `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// NewAuditCase opens a new case for the given institution at StageReceived
func NewAuditCase(institution *Institution) (*AuditCase, error) {
	if institution == nil {
		return nil, shared.ErrInvalidInput
	}

	c := &AuditCase{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InstitutionID:     institution.ID,
		BaFinID:           institution.BaFinID,
		Stage:             StageReceived,
	}

	c.AddDomainEvent(NewAuditCaseCreatedEvent(c.ID, institution.ID, institution.BaFinID))
	return c, nil
}

// IsOpen reports whether the case still participates in the workflow
func (c *AuditCase) IsOpen() bool {
	return c.ArchivedAt == nil
}

// AdvanceTo moves the case one stage forward. Any other jump is rejected
// with an invalid transition error.
func (c *AuditCase) AdvanceTo(target CaseStage) error {
	if !c.IsOpen() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("case %s is archived and cannot change stage", c.ID))
	}
	if !c.Stage.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("cannot advance case from %s to %s", c.Stage, target))
	}

	from := c.Stage
	c.Stage = target
	c.UpdatedAt = time.Now()

	c.AddDomainEvent(NewCaseStageAdvancedEvent(c.ID, from, target))
	return nil
}

// NextSequence assigns and returns the ingest sequence number for a new
// document of this case
func (c *AuditCase) NextSequence() int64 {
	c.LastSequence++
	c.UpdatedAt = time.Now()
	return c.LastSequence
}

// MarkVerified records a successful comparison and advances to certificate
// issuance. Only valid while the case is verifying.
func (c *AuditCase) MarkVerified(at time.Time) error {
	if err := c.AdvanceTo(StageCertificateIssued); err != nil {
		return err
	}
	c.VerifiedAt = &at
	c.AddDomainEvent(NewCaseVerifiedEvent(c.ID, c.InstitutionID))
	return nil
}

// Complete records certificate delivery
func (c *AuditCase) Complete() error {
	return c.AdvanceTo(StageCompleted)
}

// Reset moves the case back to StageReceived after a correction request.
// Resetting is only meaningful before the certificate exists.
func (c *AuditCase) Reset(author, reason string) error {
	if !c.IsOpen() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("case %s is archived and cannot be reset", c.ID))
	}
	if c.Stage >= StageCertificateIssued {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("cannot reset case in stage %s", c.Stage))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Reset reason cannot be empty")
	}

	from := c.Stage
	c.Stage = StageReceived
	c.VerifiedAt = nil
	c.UpdatedAt = time.Now()

	c.AddComment(author, fmt.Sprintf("case reset from stage %s: %s", from, reason))
	c.AddDomainEvent(NewCaseResetEvent(c.ID, from))
	return nil
}

// Archive closes a completed case. Archiving any other stage is rejected.
func (c *AuditCase) Archive(at time.Time) error {
	if !c.IsOpen() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("case %s is already archived", c.ID))
	}
	if err := c.AdvanceTo(StageArchived); err != nil {
		return err
	}
	c.ArchivedAt = &at
	c.AddDomainEvent(NewCaseArchivedEvent(c.ID))
	return nil
}

// AddComment appends an audit-trail comment
func (c *AuditCase) AddComment(author, text string) *CaseComment {
	comment := CaseComment{
		ID:        uuid.New(),
		CaseID:    c.ID,
		Author:    author,
		Text:      text,
		CreatedAt: time.Now(),
	}
	c.Comments = append(c.Comments, comment)
	c.UpdatedAt = time.Now()
	return &c.Comments[len(c.Comments)-1]
}
