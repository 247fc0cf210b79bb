package handler

import (
	"io"
	"net/http"
	"strconv"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/finaudit/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// institutionImportMaxBytes caps uploaded reference record CSV files
const institutionImportMaxBytes = 10 << 20

// InstitutionHandler handles institution API endpoints
type InstitutionHandler struct {
	BaseHandler
	institutionService *auditapp.InstitutionService
	importService      *auditapp.InstitutionImportService
}

// NewInstitutionHandler creates a new InstitutionHandler
func NewInstitutionHandler(
	institutionService *auditapp.InstitutionService,
	importService *auditapp.InstitutionImportService,
) *InstitutionHandler {
	return &InstitutionHandler{
		institutionService: institutionService,
		importService:      importService,
	}
}

// Create registers an institution together with its reference figures
func (h *InstitutionHandler) Create(c *gin.Context) {
	var req auditapp.CreateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	institution, err := h.institutionService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, institution)
}

// GetByID retrieves an institution by its ID
func (h *InstitutionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid institution ID format")
		return
	}

	institution, err := h.institutionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, institution)
}

// GetByBaFinID retrieves an institution by its regulator identifier
func (h *InstitutionHandler) GetByBaFinID(c *gin.Context) {
	bafinID, err := strconv.ParseInt(c.Param("bafin_id"), 10, 64)
	if err != nil {
		h.BadRequest(c, "Invalid BaFin ID format")
		return
	}

	institution, err := h.institutionService.GetByBaFinID(c.Request.Context(), bafinID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, institution)
}

// List retrieves a paginated list of institutions
func (h *InstitutionHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}

	result, err := h.institutionService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// UpdateFigures replaces the reference figures of an institution
func (h *InstitutionHandler) UpdateFigures(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid institution ID format")
		return
	}

	var req auditapp.UpdateFiguresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	institution, err := h.institutionService.UpdateFigures(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, institution)
}

// Import ingests a reference record CSV. With dry_run=true the file is
// validated without touching the database.
func (h *InstitutionHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "CSV file is required (multipart field 'file')")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, institutionImportMaxBytes+1))
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}
	if len(content) > institutionImportMaxBytes {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "CSV file exceeds the import size limit")
		return
	}

	req := auditapp.ImportRequest{
		Content: content,
		DryRun:  c.Query("dry_run") == "true",
	}
	if delim := c.Query("delimiter"); delim != "" {
		req.Delimiter = rune(delim[0])
	}

	report, err := h.importService.ImportCSV(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
