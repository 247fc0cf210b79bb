package audit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OutcomeStatus classifies the comparison result of a single field
type OutcomeStatus string

const (
	OutcomeMatch    OutcomeStatus = "match"
	OutcomeMismatch OutcomeStatus = "mismatch"
	OutcomeMissing  OutcomeStatus = "missing"
)

// FieldOutcome is the comparison result of one figure
type FieldOutcome struct {
	Field     string           `json:"field"`
	Status    OutcomeStatus    `json:"status"`
	Extracted *decimal.Decimal `json:"extracted,omitempty"`
	Reference decimal.Decimal  `json:"reference"`
	Delta     decimal.Decimal  `json:"delta"`
	Required  bool             `json:"required"`
}

// VerificationResult is the complete outcome of comparing one extracted
// submission against an institution's reference record
type VerificationResult struct {
	Outcomes  []FieldOutcome  `json:"outcomes"`
	Tolerance decimal.Decimal `json:"tolerance"`
}

// VerifyFields compares extracted figures against the institution's
// reference record. A field matches when the absolute difference does not
// exceed the tolerance. Missing or mismatching required fields make the
// result unverified; optional fields are recorded but never block.
func VerifyFields(fields FieldMap, institution *Institution, tolerance decimal.Decimal) VerificationResult {
	reference := institution.ReferenceValues()
	result := VerificationResult{
		Outcomes:  make([]FieldOutcome, 0, len(requiredFields)+len(optionalFields)),
		Tolerance: tolerance,
	}

	compare := func(name string, required bool) {
		ref := reference[name]
		extracted, ok := fields[name]
		if !ok {
			result.Outcomes = append(result.Outcomes, FieldOutcome{
				Field:     name,
				Status:    OutcomeMissing,
				Reference: ref,
				Delta:     ref.Abs(),
				Required:  required,
			})
			return
		}

		delta := extracted.Sub(ref).Abs()
		status := OutcomeMatch
		if delta.GreaterThan(tolerance) {
			status = OutcomeMismatch
		}
		v := extracted
		result.Outcomes = append(result.Outcomes, FieldOutcome{
			Field:     name,
			Status:    status,
			Extracted: &v,
			Reference: ref,
			Delta:     delta,
			Required:  required,
		})
	}

	for _, name := range requiredFields {
		compare(name, true)
	}
	for _, name := range optionalFields {
		compare(name, false)
	}

	return result
}

// Verified reports whether every required field matched
func (r VerificationResult) Verified() bool {
	for _, o := range r.Outcomes {
		if o.Required && o.Status != OutcomeMatch {
			return false
		}
	}
	return true
}

// Mismatches returns the required fields whose values differed beyond tolerance
func (r VerificationResult) Mismatches() []FieldOutcome {
	var out []FieldOutcome
	for _, o := range r.Outcomes {
		if o.Required && o.Status == OutcomeMismatch {
			out = append(out, o)
		}
	}
	return out
}

// Missing returns the required fields absent from the extraction
func (r VerificationResult) Missing() []FieldOutcome {
	var out []FieldOutcome
	for _, o := range r.Outcomes {
		if o.Required && o.Status == OutcomeMissing {
			out = append(out, o)
		}
	}
	return out
}

// MatchPercentage returns the share of required fields that matched, in percent
func (r VerificationResult) MatchPercentage() decimal.Decimal {
	total := 0
	matched := 0
	for _, o := range r.Outcomes {
		if !o.Required {
			continue
		}
		total++
		if o.Status == OutcomeMatch {
			matched++
		}
	}
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(matched)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(1)
}

// Diff renders a human-readable per-field report for the case audit trail
func (r VerificationResult) Diff() string {
	var b strings.Builder
	for _, o := range r.Outcomes {
		switch o.Status {
		case OutcomeMatch:
			fmt.Fprintf(&b, "%s: ok (%s)\n", o.Field, o.Reference)
		case OutcomeMismatch:
			fmt.Fprintf(&b, "%s: extracted %s, expected %s, delta %s\n",
				o.Field, o.Extracted, o.Reference, o.Delta)
		case OutcomeMissing:
			fmt.Fprintf(&b, "%s: not found in document (expected %s)\n",
				o.Field, o.Reference)
		}
	}
	fmt.Fprintf(&b, "%s%% of required fields match", r.MatchPercentage())
	return b.String()
}
