package router

import (
	"github.com/finaudit/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles all API handlers for route registration
type Handlers struct {
	System      *handler.SystemHandler
	Institution *handler.InstitutionHandler
	Case        *handler.AuditCaseHandler
	Document    *handler.DocumentHandler
	Certificate *handler.CertificateHandler
}

// Build wires the audit API onto the engine. All routes live under
// /api/v1 except the liveness endpoint.
func Build(engine *gin.Engine, h Handlers) {
	api := engine.Group("/api/v1")

	system := api.Group("/system")
	{
		system.GET("/info", h.System.GetSystemInfo)
	}

	institutions := api.Group("/institutions")
	{
		institutions.POST("", h.Institution.Create)
		institutions.GET("", h.Institution.List)
		institutions.POST("/import", h.Institution.Import)
		institutions.GET("/bafin/:bafin_id", h.Institution.GetByBaFinID)
		institutions.GET("/:id", h.Institution.GetByID)
		institutions.PUT("/:id/figures", h.Institution.UpdateFigures)
	}

	cases := api.Group("/cases")
	{
		cases.POST("", h.Case.Create)
		cases.GET("", h.Case.List)
		cases.GET("/:id", h.Case.GetByID)
		cases.POST("/:id/complete", h.Case.Complete)
		cases.POST("/:id/reset", h.Case.Reset)
		cases.POST("/:id/archive", h.Case.Archive)
		cases.POST("/:id/comments", h.Case.AddComment)
		cases.POST("/:id/documents", h.Document.Upload)
		cases.GET("/:id/documents", h.Document.List)
		cases.POST("/:id/certificate", h.Certificate.Issue)
		cases.GET("/:id/certificate", h.Certificate.GetByCase)
		cases.GET("/:id/certificate/download", h.Certificate.Download)
	}

	documents := api.Group("/documents")
	{
		documents.GET("/:document_id/download", h.Document.Download)
	}

	// liveness endpoint outside the versioned API
	engine.GET("/health", h.System.Health)
}
