package audit

import (
	"fmt"
	"time"

	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Canonical field names of the balance-sheet figure schema.
// Position figures come from the form's section P, annex figures from
// annex 2 sentence 1 numbers 1-11.
const (
	FieldP033     = "p033"
	FieldP034     = "p034"
	FieldP035     = "p035"
	FieldP036     = "p036"
	FieldAb2S1N01 = "ab2s1n01"
	FieldAb2S1N02 = "ab2s1n02"
	FieldAb2S1N03 = "ab2s1n03"
	FieldAb2S1N04 = "ab2s1n04"
	FieldAb2S1N05 = "ab2s1n05"
	FieldAb2S1N06 = "ab2s1n06"
	FieldAb2S1N07 = "ab2s1n07"
	FieldAb2S1N08 = "ab2s1n08"
	FieldAb2S1N09 = "ab2s1n09"
	FieldAb2S1N10 = "ab2s1n10"
	FieldAb2S1N11 = "ab2s1n11"
)

// requiredFields are the figures that must match the reference record for a
// case to be verified. Annex figure 11 is recorded but never blocks
// verification; the ratio is derived from the figures and not compared at all.
var requiredFields = []string{
	FieldP033, FieldP034, FieldP035, FieldP036,
	FieldAb2S1N01, FieldAb2S1N02, FieldAb2S1N03, FieldAb2S1N04,
	FieldAb2S1N05, FieldAb2S1N06, FieldAb2S1N07, FieldAb2S1N08,
	FieldAb2S1N09, FieldAb2S1N10,
}

var optionalFields = []string{FieldAb2S1N11}

// RequiredFieldNames returns the canonical names of all required figures
func RequiredFieldNames() []string {
	out := make([]string, len(requiredFields))
	copy(out, requiredFields)
	return out
}

// OptionalFieldNames returns the canonical names of all optional figures
func OptionalFieldNames() []string {
	out := make([]string, len(optionalFields))
	copy(out, optionalFields)
	return out
}

// IsRequiredField reports whether the named figure blocks verification on mismatch
func IsRequiredField(name string) bool {
	for _, f := range requiredFields {
		if f == name {
			return true
		}
	}
	return false
}

// FieldMap holds figures extracted from a submitted document, keyed by
// canonical field name
type FieldMap map[string]decimal.Decimal

// ReferenceFigures holds the authoritative balance-sheet figures of an
// institution, one column per canonical field
type ReferenceFigures struct {
	P033     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"p033"`
	P034     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"p034"`
	P035     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"p035"`
	P036     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"p036"`
	Ab2S1N01 decimal.Decimal `gorm:"column:ab2s1n01;type:numeric(18,2);not null" json:"ab2s1n01"`
	Ab2S1N02 decimal.Decimal `gorm:"column:ab2s1n02;type:numeric(18,2);not null" json:"ab2s1n02"`
	Ab2S1N03 decimal.Decimal `gorm:"column:ab2s1n03;type:numeric(18,2);not null" json:"ab2s1n03"`
	Ab2S1N04 decimal.Decimal `gorm:"column:ab2s1n04;type:numeric(18,2);not null" json:"ab2s1n04"`
	Ab2S1N05 decimal.Decimal `gorm:"column:ab2s1n05;type:numeric(18,2);not null" json:"ab2s1n05"`
	Ab2S1N06 decimal.Decimal `gorm:"column:ab2s1n06;type:numeric(18,2);not null" json:"ab2s1n06"`
	Ab2S1N07 decimal.Decimal `gorm:"column:ab2s1n07;type:numeric(18,2);not null" json:"ab2s1n07"`
	Ab2S1N08 decimal.Decimal `gorm:"column:ab2s1n08;type:numeric(18,2);not null" json:"ab2s1n08"`
	Ab2S1N09 decimal.Decimal `gorm:"column:ab2s1n09;type:numeric(18,2);not null" json:"ab2s1n09"`
	Ab2S1N10 decimal.Decimal `gorm:"column:ab2s1n10;type:numeric(18,2);not null" json:"ab2s1n10"`
	Ab2S1N11 decimal.Decimal `gorm:"column:ab2s1n11;type:numeric(18,2);not null" json:"ab2s1n11"`
}

// Values returns the figures as a FieldMap keyed by canonical field name
func (f ReferenceFigures) Values() FieldMap {
	return FieldMap{
		FieldP033:     f.P033,
		FieldP034:     f.P034,
		FieldP035:     f.P035,
		FieldP036:     f.P036,
		FieldAb2S1N01: f.Ab2S1N01,
		FieldAb2S1N02: f.Ab2S1N02,
		FieldAb2S1N03: f.Ab2S1N03,
		FieldAb2S1N04: f.Ab2S1N04,
		FieldAb2S1N05: f.Ab2S1N05,
		FieldAb2S1N06: f.Ab2S1N06,
		FieldAb2S1N07: f.Ab2S1N07,
		FieldAb2S1N08: f.Ab2S1N08,
		FieldAb2S1N09: f.Ab2S1N09,
		FieldAb2S1N10: f.Ab2S1N10,
		FieldAb2S1N11: f.Ab2S1N11,
	}
}

// Institution represents a regulated institution with its authoritative
// reference record. The record is immutable from the workflow's point of
// view; only explicit administrative updates may change it.
type Institution struct {
	shared.BaseAggregateRoot
	BaFinID       int64            `gorm:"column:bafin_id;not null;uniqueIndex"`
	Institute     string           `gorm:"size:255;not null"`
	Address       string           `gorm:"size:255"`
	City          string           `gorm:"size:120"`
	ContactPerson string           `gorm:"size:120"`
	Phone         string           `gorm:"size:60"`
	Fax           string           `gorm:"size:60"`
	Email         string           `gorm:"size:255"`
	Figures       ReferenceFigures `gorm:"embedded"`
	Ratio         decimal.Decimal  `gorm:"type:numeric(18,6)"`
}

// NewInstitution creates a new institution reference record
func NewInstitution(bafinID int64, institute string, figures ReferenceFigures) (*Institution, error) {
	if !ValidBaFinID(bafinID) {
		return nil, shared.NewDomainError("INVALID_BAFIN_ID", fmt.Sprintf("BaFin ID must be an 8-digit number, got %d", bafinID))
	}
	if institute == "" {
		return nil, shared.NewDomainError("INVALID_INSTITUTE", "Institute name cannot be empty")
	}

	inst := &Institution{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BaFinID:           bafinID,
		Institute:         institute,
		Figures:           figures,
	}
	inst.Ratio = inst.deriveRatio()

	return inst, nil
}

// ValidBaFinID reports whether the given number is a well-formed 8-digit
// regulator identifier
func ValidBaFinID(id int64) bool {
	return id >= 10_000_000 && id <= 99_999_999
}

// ReferenceValues returns the authoritative figures keyed by field name
func (i *Institution) ReferenceValues() FieldMap {
	return i.Figures.Values()
}

// UpdateFigures replaces the reference record. This is the explicit
// administrative update path; the workflow itself never calls it.
func (i *Institution) UpdateFigures(figures ReferenceFigures) {
	i.Figures = figures
	i.Ratio = i.deriveRatio()
	i.Touch()
}

// deriveRatio computes the derived ratio of the first position figure to the
// sum of all annex figures. Zero when the annex sum is zero.
func (i *Institution) deriveRatio() decimal.Decimal {
	sum := decimal.Zero
	for _, name := range append(RequiredFieldNames()[4:], optionalFields...) {
		sum = sum.Add(i.Figures.Values()[name])
	}
	if sum.IsZero() {
		return decimal.Zero
	}
	return i.Figures.P033.Div(sum).Round(6)
}

// Touch refreshes the update timestamp
func (i *Institution) Touch() {
	i.UpdatedAt = time.Now()
}
