package handler

import (
	"io"
	"time"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// downloadURLExpiry is how long presigned artifact links stay valid
const downloadURLExpiry = 15 * time.Minute

// DocumentHandler handles document submission API endpoints
type DocumentHandler struct {
	BaseHandler
	intakeService *auditapp.IntakeService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(intakeService *auditapp.IntakeService) *DocumentHandler {
	return &DocumentHandler{intakeService: intakeService}
}

// DownloadURLResponse carries a presigned link to a stored artifact
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Upload submits a document for a case. Identical bytes already on file for
// the case are answered with the original document and duplicate=true.
func (h *DocumentHandler) Upload(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid case ID format")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Document file is required (multipart field 'file')")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}

	result, err := h.intakeService.Ingest(c.Request.Context(), auditapp.IngestRequest{
		CaseID:      caseID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
		Source:      "upload",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// List retrieves all documents submitted for a case
func (h *DocumentHandler) List(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid case ID format")
		return
	}

	documents, err := h.intakeService.ListDocuments(c.Request.Context(), caseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, documents)
}

// Download returns a presigned URL for the stored document content
func (h *DocumentHandler) Download(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	url, expiresAt, err := h.intakeService.DownloadURL(c.Request.Context(), documentID, downloadURLExpiry)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, DownloadURLResponse{URL: url, ExpiresAt: expiresAt})
}
