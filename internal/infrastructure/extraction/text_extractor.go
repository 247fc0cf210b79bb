package extraction

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strings"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// amountPattern matches the amount at the end of a form line
var amountPattern = regexp.MustCompile(`(-?[0-9][0-9.,\x{00a0} ]*)\s*(?:EUR|€)?\s*$`)

// TextExtractor recovers figures from text-based submissions. Each form
// line carries a label and an amount; labels resolve through FieldForLabel
// and amounts parse as German-formatted numbers.
type TextExtractor struct {
	table  LabelTable
	logger *zap.Logger
}

// NewTextExtractor creates a new TextExtractor
func NewTextExtractor(logger *zap.Logger) *TextExtractor {
	return NewTextExtractorWithTable(nil, logger)
}

// NewTextExtractorWithTable creates a TextExtractor with extra label
// variants merged over the built-in patterns
func NewTextExtractorWithTable(table LabelTable, logger *zap.Logger) *TextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextExtractor{table: table, logger: logger}
}

// Extract parses the document text and returns the recovered figures
func (e *TextExtractor) Extract(ctx context.Context, content []byte) (*auditapp.ExtractionResult, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, shared.NewDomainError("EXTRACTION_FAILED", "Document is empty")
	}

	text := string(content)
	fields := make(audit.FieldMap)
	pages := 1

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "\f" || strings.Contains(line, "\f") {
			pages++
		}

		label, value, ok := splitLine(line)
		if !ok {
			continue
		}

		field, ok := e.table.Resolve(label)
		if !ok {
			continue
		}

		amount, err := ParseAmount(value)
		if err != nil {
			e.logger.Debug("unparseable amount on form line",
				zap.String("field", field),
				zap.String("value", value))
			continue
		}

		// First occurrence wins, later pages repeat the form header
		if _, exists := fields[field]; !exists {
			fields[field] = amount
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, shared.NewDomainError("EXTRACTION_FAILED", "Document could not be read: "+err.Error())
	}

	bafinID, _ := audit.DetectBaFinID(text)

	if len(fields) == 0 {
		return nil, shared.NewDomainError("EXTRACTION_FAILED", "Document contains no recognizable financial figures")
	}

	e.logger.Debug("document extracted",
		zap.Int64("bafin_id", bafinID),
		zap.Int("fields", len(fields)))

	return &auditapp.ExtractionResult{
		BaFinID: bafinID,
		Fields:  fields,
		Pages:   pages,
	}, nil
}

// splitLine separates a form line into its label and trailing amount
func splitLine(line string) (label, value string, ok bool) {
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		label = strings.TrimSpace(line[:idx])
		value = strings.TrimSpace(line[idx+1:])
		if label != "" && value != "" {
			return label, value, true
		}
		return "", "", false
	}

	m := amountPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return "", "", false
	}
	label = strings.TrimSpace(line[:m[2]])
	value = strings.TrimSpace(line[m[2]:m[3]])
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

// Ensure TextExtractor implements Extractor
var _ auditapp.Extractor = (*TextExtractor)(nil)
