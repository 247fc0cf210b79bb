package audit

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	csvimport "github.com/finaudit/backend/internal/infrastructure/import"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const importMaxErrors = 100

var bafinColumnPattern = regexp.MustCompile(`^\d{8}$`)

// figureColumns are the reference figure columns of an import file, in
// schema order.
var figureColumns = append(audit.RequiredFieldNames(), audit.OptionalFieldNames()...)

// InstitutionImportService loads institution reference records in bulk
// from CSV exports of the regulator's master data.
type InstitutionImportService struct {
	institutionRepo audit.InstitutionRepository
	logger          *zap.Logger
}

// NewInstitutionImportService creates a new InstitutionImportService
func NewInstitutionImportService(institutionRepo audit.InstitutionRepository, logger *zap.Logger) *InstitutionImportService {
	return &InstitutionImportService{
		institutionRepo: institutionRepo,
		logger:          logger,
	}
}

// ImportRequest carries one CSV file to import
type ImportRequest struct {
	Content   []byte
	Delimiter rune
	// DryRun validates the file without writing anything
	DryRun bool
}

// ImportReport summarizes one import run
type ImportReport struct {
	Rows     int                  `json:"rows"`
	Created  int                  `json:"created"`
	Updated  int                  `json:"updated"`
	Rejected int                  `json:"rejected"`
	DryRun   bool                 `json:"dry_run"`
	Errors   []csvimport.RowError `json:"errors,omitempty"`
}

// importRules builds the per-column validation rules for the file
func importRules() []csvimport.FieldRule {
	rules := []csvimport.FieldRule{
		{Column: "bafin_id", Type: csvimport.TypeInt, Required: true, Unique: true,
			Pattern: bafinColumnPattern, PatternDesc: "8-digit BaFin ID"},
		{Column: "institute", Type: csvimport.TypeString, Required: true, MaxLength: 255},
		{Column: "address", Type: csvimport.TypeString, MaxLength: 255},
		{Column: "city", Type: csvimport.TypeString, MaxLength: 120},
		{Column: "contact_person", Type: csvimport.TypeString, MaxLength: 120},
		{Column: "phone", Type: csvimport.TypeString, MaxLength: 60},
		{Column: "fax", Type: csvimport.TypeString, MaxLength: 60},
		{Column: "email", Type: csvimport.TypeEmail},
	}
	for _, column := range figureColumns {
		rules = append(rules, csvimport.FieldRule{Column: column, Type: csvimport.TypeDecimal, Required: audit.IsRequiredField(column)})
	}
	return rules
}

// ImportCSV parses, validates, and upserts institutions from a CSV file.
// Rows with validation errors are rejected individually; the remaining
// rows are still imported.
func (s *InstitutionImportService) ImportCSV(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	opts := []csvimport.Option{csvimport.WithTrimSpace(true)}
	if req.Delimiter != 0 {
		opts = append(opts, csvimport.WithDelimiter(req.Delimiter))
	}

	parser, err := csvimport.ParseBytes(req.Content, opts...)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Import file is not readable: "+err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Import file has no header row: "+err.Error())
	}

	required := append([]string{"bafin_id", "institute"}, requiredFigureHeaders()...)
	if missing := parser.ValidateHeaders(required); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Import file is missing columns: %v", missing))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Import file is not readable: "+err.Error())
	}

	validator := csvimport.NewFieldValidator(importRules(), importMaxErrors)
	report := &ImportReport{Rows: len(rows), DryRun: req.DryRun}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !validator.ValidateRow(row) {
			report.Rejected++
			continue
		}

		created, err := s.applyRow(ctx, row, req.DryRun)
		if err != nil {
			validator.Errors().AddValidationError(row.LineNumber, "bafin_id", csvimport.ErrCodeInvalidRow, err.Error())
			report.Rejected++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	report.Errors = validator.Errors().Errors()

	s.logger.Info("institution import finished",
		zap.Int("rows", report.Rows),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("rejected", report.Rejected),
		zap.Bool("dry_run", report.DryRun))

	return report, nil
}

// applyRow upserts one validated row, keyed by BaFin ID
func (s *InstitutionImportService) applyRow(ctx context.Context, row *csvimport.Row, dryRun bool) (created bool, err error) {
	bafinID, err := parseBaFinColumn(row.Get("bafin_id"))
	if err != nil {
		return false, err
	}

	figures, err := parseFigureColumns(row)
	if err != nil {
		return false, err
	}

	existing, findErr := s.institutionRepo.FindByBaFinID(ctx, bafinID)
	switch {
	case findErr == nil:
		if dryRun {
			return false, nil
		}
		existing.Institute = row.GetOrDefault("institute", existing.Institute)
		existing.Address = row.GetOrDefault("address", existing.Address)
		existing.City = row.GetOrDefault("city", existing.City)
		existing.ContactPerson = row.GetOrDefault("contact_person", existing.ContactPerson)
		existing.Phone = row.GetOrDefault("phone", existing.Phone)
		existing.Fax = row.GetOrDefault("fax", existing.Fax)
		existing.Email = row.GetOrDefault("email", existing.Email)
		existing.UpdateFigures(figures)
		return false, s.institutionRepo.Save(ctx, existing)

	case errors.Is(findErr, shared.ErrNotFound):
		inst, err := audit.NewInstitution(bafinID, row.Get("institute"), figures)
		if err != nil {
			return false, err
		}
		inst.Address = row.Get("address")
		inst.City = row.Get("city")
		inst.ContactPerson = row.Get("contact_person")
		inst.Phone = row.Get("phone")
		inst.Fax = row.Get("fax")
		inst.Email = row.Get("email")
		if dryRun {
			return true, nil
		}
		return true, s.institutionRepo.Save(ctx, inst)

	default:
		return false, findErr
	}
}

func parseBaFinColumn(value string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(value, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid bafin_id %q", value)
	}
	if !audit.ValidBaFinID(id) {
		return 0, fmt.Errorf("bafin_id %d is not an 8-digit identifier", id)
	}
	return id, nil
}

func parseFigureColumns(row *csvimport.Row) (audit.ReferenceFigures, error) {
	values := make(map[string]decimal.Decimal, len(figureColumns))
	for _, column := range figureColumns {
		raw := row.Get(column)
		if raw == "" {
			values[column] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return audit.ReferenceFigures{}, fmt.Errorf("invalid figure %s=%q", column, raw)
		}
		values[column] = d
	}

	return audit.ReferenceFigures{
		P033:     values[audit.FieldP033],
		P034:     values[audit.FieldP034],
		P035:     values[audit.FieldP035],
		P036:     values[audit.FieldP036],
		Ab2S1N01: values[audit.FieldAb2S1N01],
		Ab2S1N02: values[audit.FieldAb2S1N02],
		Ab2S1N03: values[audit.FieldAb2S1N03],
		Ab2S1N04: values[audit.FieldAb2S1N04],
		Ab2S1N05: values[audit.FieldAb2S1N05],
		Ab2S1N06: values[audit.FieldAb2S1N06],
		Ab2S1N07: values[audit.FieldAb2S1N07],
		Ab2S1N08: values[audit.FieldAb2S1N08],
		Ab2S1N09: values[audit.FieldAb2S1N09],
		Ab2S1N10: values[audit.FieldAb2S1N10],
		Ab2S1N11: values[audit.FieldAb2S1N11],
	}, nil
}

func requiredFigureHeaders() []string {
	headers := make([]string, 0, len(figureColumns))
	for _, column := range figureColumns {
		if audit.IsRequiredField(column) {
			headers = append(headers, column)
		}
	}
	return headers
}
