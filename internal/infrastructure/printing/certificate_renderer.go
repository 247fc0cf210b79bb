package printing

import (
	"context"
	"html/template"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CertificateRenderer produces the certificate artifact: the rendered
// certificate page followed by the first page of the verified submission.
type CertificateRenderer struct {
	pdf    PDFRenderer
	tmpl   *template.Template
	issuer string
	logger *zap.Logger
}

// NewCertificateRenderer creates a certificate renderer on top of a PDF renderer
func NewCertificateRenderer(pdf PDFRenderer, cfg *config.CertificateConfig, logger *zap.Logger) (*CertificateRenderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	templatePath := ""
	issuer := ""
	if cfg != nil {
		templatePath = cfg.TemplatePath
		issuer = cfg.IssuerName
	}

	tmpl, err := LoadCertificateTemplate(templatePath)
	if err != nil {
		return nil, err
	}

	return &CertificateRenderer{
		pdf:    pdf,
		tmpl:   tmpl,
		issuer: issuer,
		logger: logger,
	}, nil
}

// Render builds the combined certificate document
func (r *CertificateRenderer) Render(ctx context.Context, data auditapp.CertificateRenderData) (*auditapp.CertificateArtifact, error) {
	html, err := executeCertificateTemplate(r.tmpl, certificateTemplateData{
		ReferenceNumber: data.ReferenceNumber,
		Institute:       data.Institute,
		BaFinID:         data.BaFinID,
		IssuedAt:        formatIssueDate(data.IssuedAt),
		Issuer:          r.issuer,
		Year:            data.IssuedAt.Year(),
	})
	if err != nil {
		return nil, err
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:  html,
		Title: data.ReferenceNumber,
	})
	if err != nil {
		return nil, err
	}

	content := result.PDFData
	if len(data.SourceDocument) > 0 {
		firstPage, err := FirstPage(data.SourceDocument)
		if err != nil {
			return nil, NewRenderError(ErrCodeMergeFailed, "failed to extract submission page", err)
		}
		content, err = Merge(result.PDFData, firstPage)
		if err != nil {
			return nil, NewRenderError(ErrCodeMergeFailed, "failed to merge certificate pages", err)
		}
	}

	r.logger.Debug("certificate artifact rendered",
		zap.String("reference", data.ReferenceNumber),
		zap.Int("bytes", len(content)))

	return &auditapp.CertificateArtifact{Content: content}, nil
}

// Ensure CertificateRenderer implements the application port
var _ auditapp.CertificateRenderer = (*CertificateRenderer)(nil)
