package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"time"
)

// certificateTemplateData is what the certificate page template is executed with
type certificateTemplateData struct {
	ReferenceNumber string
	Institute       string
	BaFinID         int64
	IssuedAt        string
	Issuer          string
	Year            int
}

// defaultCertificateTemplate is the built-in certificate page. A custom
// template file can replace it via the certificate.template_path setting.
const defaultCertificateTemplate = `<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<title>Prüfungsbescheinigung {{.ReferenceNumber}}</title>
<style>
  body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 0; }
  .header { border-bottom: 3px solid #0b3d6e; padding-bottom: 16px; margin-bottom: 40px; }
  .header h1 { font-size: 22px; color: #0b3d6e; margin: 0; }
  .header .issuer { font-size: 13px; color: #555; margin-top: 4px; }
  .reference { font-size: 14px; font-weight: bold; margin-bottom: 32px; }
  table.facts { border-collapse: collapse; width: 100%; margin-bottom: 40px; }
  table.facts td { padding: 8px 12px; border-bottom: 1px solid #ddd; font-size: 14px; }
  table.facts td.label { width: 40%; color: #555; }
  .statement { font-size: 14px; line-height: 1.6; margin-bottom: 60px; }
  .signature { margin-top: 80px; font-size: 13px; }
  .signature .line { border-top: 1px solid #1a1a1a; width: 260px; padding-top: 6px; }
</style>
</head>
<body>
  <div class="header">
    <h1>Prüfungsbescheinigung</h1>
    <div class="issuer">{{.Issuer}}</div>
  </div>
  <div class="reference">Referenz: {{.ReferenceNumber}}</div>
  <table class="facts">
    <tr><td class="label">Institut</td><td>{{.Institute}}</td></tr>
    <tr><td class="label">BaFin-ID</td><td>{{.BaFinID}}</td></tr>
    <tr><td class="label">Berichtsjahr</td><td>{{.Year}}</td></tr>
    <tr><td class="label">Ausgestellt am</td><td>{{.IssuedAt}}</td></tr>
  </table>
  <div class="statement">
    Die eingereichten Meldedaten des oben genannten Instituts wurden mit den
    Referenzwerten abgeglichen. Die Prüfung ergab keine Abweichungen. Die
    maßgebliche Seite der eingereichten Unterlage ist dieser Bescheinigung
    beigefügt.
  </div>
  <div class="signature">
    <div class="line">{{.Issuer}}</div>
  </div>
</body>
</html>`

// LoadCertificateTemplate parses the certificate page template. An empty
// path selects the built-in template.
func LoadCertificateTemplate(path string) (*template.Template, error) {
	text := defaultCertificateTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate template: %w", err)
		}
		text = string(raw)
	}

	tmpl, err := template.New("certificate").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate template: %w", err)
	}
	return tmpl, nil
}

// executeCertificateTemplate renders the certificate page HTML
func executeCertificateTemplate(tmpl *template.Template, data certificateTemplateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute certificate template: %w", err)
	}
	return buf.String(), nil
}

// formatIssueDate formats the issue timestamp the way German documents do
func formatIssueDate(t time.Time) string {
	return t.Format("02.01.2006")
}
