package handler

import (
	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CertificateHandler handles certificate API endpoints
type CertificateHandler struct {
	BaseHandler
	certificateService *auditapp.CertificateService
}

// NewCertificateHandler creates a new CertificateHandler
func NewCertificateHandler(certificateService *auditapp.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// Issue produces the certificate for a verified case. Reissuing returns the
// existing certificate unchanged.
func (h *CertificateHandler) Issue(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid case ID format")
		return
	}

	result, err := h.certificateService.Issue(c.Request.Context(), caseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByCase retrieves the certificate issued for a case
func (h *CertificateHandler) GetByCase(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid case ID format")
		return
	}

	result, err := h.certificateService.GetByCase(c.Request.Context(), caseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Download returns a presigned URL for the certificate artifact
func (h *CertificateHandler) Download(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid case ID format")
		return
	}

	url, expiresAt, err := h.certificateService.DownloadURL(c.Request.Context(), caseID, downloadURLExpiry)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, DownloadURLResponse{URL: url, ExpiresAt: expiresAt})
}
