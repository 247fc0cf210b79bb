package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const defaultEngineTimeout = 2 * time.Minute

// EngineClient sends scanned submissions to the external OCR extraction
// engine and maps its response onto canonical fields. The engine exposes
// a single POST /extract endpoint taking the raw document bytes.
type EngineClient struct {
	baseURL string
	table   LabelTable
	http    *http.Client
	logger  *zap.Logger
}

// EngineOption configures an EngineClient
type EngineOption func(*EngineClient)

// WithEngineLabelTable adds extra label variants for resolving the
// engine's field labels
func WithEngineLabelTable(table LabelTable) EngineOption {
	return func(c *EngineClient) {
		c.table = table
	}
}

// NewEngineClient creates a client for the extraction engine
func NewEngineClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...EngineOption) (*EngineClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("extraction engine URL is empty")
	}
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &EngineClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// engineResponse is the extraction engine's wire format. Field values
// arrive as written on the form ("2.606"), not as machine numbers.
type engineResponse struct {
	BaFinID int64             `json:"bafin_id"`
	Fields  map[string]string `json:"fields"`
	Pages   int               `json:"pages"`
	Error   string            `json:"error"`
}

// Extract sends the document to the engine and parses the response
func (c *EngineClient) Extract(ctx context.Context, content []byte) (*auditapp.ExtractionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, shared.NewDomainError("EXTRACTION_FAILED", "Extraction engine unreachable: "+err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.NewDomainError("EXTRACTION_FAILED",
			fmt.Sprintf("Extraction engine error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed engineResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, shared.NewDomainError("EXTRACTION_FAILED", "Invalid extraction engine response: "+err.Error())
	}
	if parsed.Error != "" {
		return nil, shared.NewDomainError("EXTRACTION_FAILED", parsed.Error)
	}

	fields := make(audit.FieldMap, len(parsed.Fields))
	for label, raw := range parsed.Fields {
		field, ok := c.table.Resolve(label)
		if !ok {
			c.logger.Debug("unknown field label from engine", zap.String("label", label))
			continue
		}
		amount, err := ParseAmount(raw)
		if err != nil {
			c.logger.Debug("unparseable amount from engine",
				zap.String("field", field),
				zap.String("value", raw))
			continue
		}
		fields[field] = amount
	}

	if len(fields) == 0 {
		return nil, shared.NewDomainError("EXTRACTION_FAILED", "Document contains no recognizable financial figures")
	}

	pages := parsed.Pages
	if pages == 0 {
		pages = 1
	}

	return &auditapp.ExtractionResult{
		BaFinID: parsed.BaFinID,
		Fields:  fields,
		Pages:   pages,
	}, nil
}

// Ensure EngineClient implements Extractor
var _ auditapp.Extractor = (*EngineClient)(nil)
