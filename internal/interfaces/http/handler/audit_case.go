package handler

import (
	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditCaseHandler handles audit case workflow API endpoints
type AuditCaseHandler struct {
	BaseHandler
	caseService *auditapp.CaseService
}

// NewAuditCaseHandler creates a new AuditCaseHandler
func NewAuditCaseHandler(caseService *auditapp.CaseService) *AuditCaseHandler {
	return &AuditCaseHandler{caseService: caseService}
}

func (h *AuditCaseHandler) caseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid case ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Create opens an audit case for an institution. An institution can have at
// most one open case at a time.
func (h *AuditCaseHandler) Create(c *gin.Context) {
	var req auditapp.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.caseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID retrieves a case including its audit trail
func (h *AuditCaseHandler) GetByID(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	result, err := h.caseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List retrieves a paginated list of cases with optional stage and BaFin ID
// filters
func (h *AuditCaseHandler) List(c *gin.Context) {
	var filter auditapp.CaseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	result, err := h.caseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Complete moves a case from certificate issued to completed
func (h *AuditCaseHandler) Complete(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	result, err := h.caseService.Complete(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Reset sends a case back to the received stage. The reason is recorded in
// the audit trail.
func (h *AuditCaseHandler) Reset(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	var req auditapp.ResetCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.caseService.Reset(c.Request.Context(), id, middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Archive moves a completed case to the archived stage
func (h *AuditCaseHandler) Archive(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	result, err := h.caseService.Archive(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AddComment appends an entry to the case audit trail
func (h *AuditCaseHandler) AddComment(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	var req auditapp.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.caseService.AddComment(c.Request.Context(), id, middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
