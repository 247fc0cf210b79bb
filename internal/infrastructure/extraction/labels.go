// Package extraction recovers structured figures from submitted documents.
// It maps the German form labels used in the submissions onto canonical
// field names and parses German-formatted amounts.
package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/shopspring/decimal"
)

// annexItemPattern matches the position number of an annex line,
// e.g. "§ 16j Abs. 2 Satz 1 Nr. 7 FinDAG". The trailing non-digit guard
// keeps "Nr. 1" from matching inside "Nr. 10".
var annexItemPattern = regexp.MustCompile(`Nr\.\s*(\d{1,2})(\D|$)`)

// positionPatterns map the form position codes onto canonical field names
var positionPatterns = map[string]string{
	"033": audit.FieldP033,
	"034": audit.FieldP034,
	"035": audit.FieldP035,
	"036": audit.FieldP036,
}

// FieldForLabel resolves a document label to its canonical field name.
// Canonical names themselves are accepted, so machine-generated documents
// that already carry them resolve too.
func FieldForLabel(label string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for _, name := range audit.RequiredFieldNames() {
		if normalized == name {
			return name, true
		}
	}
	for _, name := range audit.OptionalFieldNames() {
		if normalized == name {
			return name, true
		}
	}

	if m := annexItemPattern.FindStringSubmatch(label); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 11 {
			return fmt.Sprintf("ab2s1n%02d", n), true
		}
	}

	for code, name := range positionPatterns {
		if strings.Contains(label, code) {
			return name, true
		}
	}

	return "", false
}

// ParseAmount parses a German-formatted amount. Dots are thousands
// separators, a comma is the decimal mark ("2.606" is 2606, "1.234,56"
// is 1234.56). Plain machine formats like "2606" or "12.5" with a comma
// absent and a single dot followed by one or two digits parse as decimal.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	hasComma := strings.Contains(cleaned, ",")
	if hasComma {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		return decimal.NewFromString(cleaned)
	}

	if idx := strings.LastIndex(cleaned, "."); idx >= 0 {
		// A single dot with one or two trailing digits is a decimal
		// point from a machine source, anything else is a thousands
		// separator as written on the forms.
		fraction := len(cleaned) - idx - 1
		if strings.Count(cleaned, ".") == 1 && (fraction == 1 || fraction == 2) {
			return decimal.NewFromString(cleaned)
		}
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	return decimal.NewFromString(cleaned)
}
