package extraction

import (
	"fmt"
	"strings"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/spf13/viper"
)

// LabelTable maps canonical field names to label variants seen on forms.
// Variants match case-insensitively by substring, so noisy OCR output like
// "Posltion 033 Bilanzsumme" can still resolve through a "bilanzsumme"
// variant. A nil table resolves through the built-in patterns only.
type LabelTable map[string][]string

// LoadLabelTable reads a label variant table from a TOML file. The file
// carries one array of variants per canonical field under [labels]:
//
//	[labels]
//	p033 = ["Bilanzsumme"]
//	ab2s1n11 = ["Ertrag aus Wertpapieren"]
func LoadLabelTable(path string) (LabelTable, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read label table %s: %w", path, err)
	}

	known := make(map[string]bool)
	for _, name := range audit.RequiredFieldNames() {
		known[name] = true
	}
	for _, name := range audit.OptionalFieldNames() {
		known[name] = true
	}

	table := make(LabelTable)
	for field, variants := range v.GetStringMapStringSlice("labels") {
		name := strings.ToLower(field)
		if !known[name] {
			return nil, fmt.Errorf("label table %s references unknown field %q", path, field)
		}
		table[name] = variants
	}

	return table, nil
}

// Resolve finds the canonical field for a label, consulting the variant
// table before the built-in patterns.
func (t LabelTable) Resolve(label string) (string, bool) {
	lower := strings.ToLower(label)
	for field, variants := range t {
		for _, variant := range variants {
			if variant != "" && strings.Contains(lower, strings.ToLower(variant)) {
				return field, true
			}
		}
	}
	return FieldForLabel(label)
}
