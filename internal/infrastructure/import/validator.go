package csvimport

import (
	"net/mail"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// FieldType is the parse check applied to a column value
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "integer"
	TypeDecimal FieldType = "decimal"
	TypeEmail   FieldType = "email address"
)

// FieldRule describes what a master data column must look like. The zero
// rule accepts anything, so optional free-text columns need no entry.
type FieldRule struct {
	Column      string
	Type        FieldType
	Required    bool
	MaxLength   int
	Pattern     *regexp.Regexp
	PatternDesc string
	// Unique rejects repeated values within one file, used for the
	// BaFin ID key column.
	Unique bool
}

// FieldValidator applies the per-column rules row by row and collects the
// rejections
type FieldValidator struct {
	rules []FieldRule
	seen  map[string]map[string]int
	errs  *ErrorCollection
}

// NewFieldValidator creates a validator keeping at most maxErrors rejections
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules: rules,
		seen:  make(map[string]map[string]int),
		errs:  NewErrorCollection(maxErrors),
	}
}

// ValidateRow checks one row against every rule and reports whether the row
// is importable
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)

		if value == "" {
			if rule.Required {
				v.errs.AddMissingValue(row.LineNumber, rule.Column)
				ok = false
			}
			continue
		}

		if !parseable(value, rule.Type) {
			v.errs.AddWrongType(row.LineNumber, rule.Column, string(rule.Type), value)
			ok = false
			continue
		}

		if rule.MaxLength > 0 && len(value) > rule.MaxLength {
			v.errs.AddTooLong(row.LineNumber, rule.Column, rule.MaxLength)
			ok = false
		}

		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			v.errs.AddBadPattern(row.LineNumber, rule.Column, rule.PatternDesc, value)
			ok = false
		}

		if rule.Unique {
			if v.seen[rule.Column] == nil {
				v.seen[rule.Column] = make(map[string]int)
			}
			if firstRow, dup := v.seen[rule.Column][value]; dup {
				v.errs.AddDuplicate(row.LineNumber, rule.Column, value, firstRow)
				ok = false
			} else {
				v.seen[rule.Column][value] = row.LineNumber
			}
		}
	}
	return ok
}

// Errors returns the collected rejections
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errs
}

func parseable(value string, t FieldType) bool {
	switch t {
	case TypeInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err == nil
	case TypeEmail:
		_, err := mail.ParseAddress(value)
		return err == nil
	default:
		return true
	}
}
