package audit

import (
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Institution DTOs ====================

// CreateInstitutionRequest represents a request to register an institution
type CreateInstitutionRequest struct {
	BaFinID       int64                  `json:"bafin_id" binding:"required"`
	Institute     string                 `json:"institute" binding:"required,min=1,max=255"`
	Address       string                 `json:"address" binding:"max=255"`
	City          string                 `json:"city" binding:"max=120"`
	ContactPerson string                 `json:"contact_person" binding:"max=120"`
	Phone         string                 `json:"phone" binding:"max=60"`
	Fax           string                 `json:"fax" binding:"max=60"`
	Email         string                 `json:"email" binding:"omitempty,email"`
	Figures       audit.ReferenceFigures `json:"figures" binding:"required"`
}

// UpdateFiguresRequest represents an administrative reference record update
type UpdateFiguresRequest struct {
	Figures audit.ReferenceFigures `json:"figures" binding:"required"`
}

// InstitutionResponse represents an institution in API responses
type InstitutionResponse struct {
	ID            uuid.UUID              `json:"id"`
	BaFinID       int64                  `json:"bafin_id"`
	Institute     string                 `json:"institute"`
	Address       string                 `json:"address,omitempty"`
	City          string                 `json:"city,omitempty"`
	ContactPerson string                 `json:"contact_person,omitempty"`
	Phone         string                 `json:"phone,omitempty"`
	Fax           string                 `json:"fax,omitempty"`
	Email         string                 `json:"email,omitempty"`
	Figures       audit.ReferenceFigures `json:"figures"`
	Ratio         decimal.Decimal        `json:"ratio"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// ToInstitutionResponse converts an institution to its response representation
func ToInstitutionResponse(inst *audit.Institution) InstitutionResponse {
	return InstitutionResponse{
		ID:            inst.ID,
		BaFinID:       inst.BaFinID,
		Institute:     inst.Institute,
		Address:       inst.Address,
		City:          inst.City,
		ContactPerson: inst.ContactPerson,
		Phone:         inst.Phone,
		Fax:           inst.Fax,
		Email:         inst.Email,
		Figures:       inst.Figures,
		Ratio:         inst.Ratio,
		CreatedAt:     inst.CreatedAt,
		UpdatedAt:     inst.UpdatedAt,
	}
}

// ==================== Case DTOs ====================

// CreateCaseRequest represents a request to open an audit case
type CreateCaseRequest struct {
	InstitutionID uuid.UUID `json:"institution_id" binding:"required"`
}

// AddCommentRequest represents a request to add an audit-trail comment
type AddCommentRequest struct {
	Text string `json:"text" binding:"required,min=1"`
}

// ResetCaseRequest represents a request to send a case back to the received stage
type ResetCaseRequest struct {
	Reason string `json:"reason" binding:"required,min=1"`
}

// CaseListFilter represents filter options for listing cases
type CaseListFilter struct {
	Stage    *int  `form:"stage"`
	BaFinID  int64 `form:"bafin_id"`
	Page     int   `form:"page"`
	PageSize int   `form:"page_size"`
}

// CommentResponse represents a case comment in API responses
type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseResponse represents an audit case in API responses
type CaseResponse struct {
	ID            uuid.UUID         `json:"id"`
	InstitutionID uuid.UUID         `json:"institution_id"`
	BaFinID       int64             `json:"bafin_id"`
	Stage         int               `json:"stage"`
	StageName     string            `json:"stage_name"`
	LastSequence  int64             `json:"last_sequence"`
	VerifiedAt    *time.Time        `json:"verified_at,omitempty"`
	ArchivedAt    *time.Time        `json:"archived_at,omitempty"`
	Comments      []CommentResponse `json:"comments,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToCaseResponse converts an audit case to its response representation
func ToCaseResponse(c *audit.AuditCase) CaseResponse {
	resp := CaseResponse{
		ID:            c.ID,
		InstitutionID: c.InstitutionID,
		BaFinID:       c.BaFinID,
		Stage:         int(c.Stage),
		StageName:     c.Stage.String(),
		LastSequence:  c.LastSequence,
		VerifiedAt:    c.VerifiedAt,
		ArchivedAt:    c.ArchivedAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	for _, comment := range c.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        comment.ID,
			Author:    comment.Author,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		})
	}
	return resp
}

// ==================== Document DTOs ====================

// IngestRequest represents a document submission for a case
type IngestRequest struct {
	CaseID      uuid.UUID
	Filename    string
	ContentType string
	Content     []byte
	// Source describes the submission channel, e.g. "upload" or "mail"
	Source string
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	CaseID      uuid.UUID  `json:"case_id"`
	Fingerprint string     `json:"fingerprint"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	Sequence    int64      `json:"sequence"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToDocumentResponse converts a document to its response representation
func ToDocumentResponse(d *audit.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		CaseID:      d.CaseID,
		Fingerprint: d.Fingerprint,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		Sequence:    d.Sequence,
		ProcessedAt: d.ProcessedAt,
		CreatedAt:   d.CreatedAt,
	}
}

// IngestResponse reports the outcome of a submission
type IngestResponse struct {
	Document DocumentResponse `json:"document"`
	// Duplicate is true when identical bytes were already on file for the
	// case; the original document is returned unchanged
	Duplicate bool `json:"duplicate"`
}

// ==================== Certificate DTOs ====================

// CertificateResponse represents an issued certificate in API responses
type CertificateResponse struct {
	ID              uuid.UUID `json:"id"`
	CaseID          uuid.UUID `json:"case_id"`
	ReferenceNumber string    `json:"reference_number"`
	ArtifactHash    string    `json:"artifact_hash"`
	IssuedAt        time.Time `json:"issued_at"`
}

// ToCertificateResponse converts a certificate to its response representation
func ToCertificateResponse(cert *audit.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:              cert.ID,
		CaseID:          cert.CaseID,
		ReferenceNumber: cert.ReferenceNumber,
		ArtifactHash:    cert.ArtifactHash,
		IssuedAt:        cert.IssuedAt,
	}
}
