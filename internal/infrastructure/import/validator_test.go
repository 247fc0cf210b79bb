package csvimport

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func masterDataRules() []FieldRule {
	return []FieldRule{
		{Column: "bafin_id", Type: TypeInt, Required: true, Unique: true,
			Pattern: regexp.MustCompile(`^\d{8}$`), PatternDesc: "an 8-digit BaFin ID"},
		{Column: "institute", Type: TypeString, Required: true, MaxLength: 40},
		{Column: "email", Type: TypeEmail},
		{Column: "p033", Type: TypeDecimal, Required: true},
	}
}

func row(line int, values map[string]string) *Row {
	return &Row{LineNumber: line, Data: values}
}

func TestFieldValidatorAcceptsCleanRow(t *testing.T) {
	v := NewFieldValidator(masterDataRules(), 10)

	ok := v.ValidateRow(row(2, map[string]string{
		"bafin_id":  "12345678",
		"institute": "Sparkasse Musterstadt",
		"email":     "meldung@sparkasse-musterstadt.de",
		"p033":      "2606",
	}))

	assert.True(t, ok)
	assert.False(t, v.Errors().HasErrors())
}

func TestFieldValidatorRejections(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]string
		code   string
		column string
	}{
		{
			name:   "missing required key",
			data:   map[string]string{"institute": "Sparkasse Musterstadt", "p033": "1"},
			code:   ErrCodeMissingValue,
			column: "bafin_id",
		},
		{
			name:   "bafin id is not a number",
			data:   map[string]string{"bafin_id": "ABCDEFGH", "institute": "x", "p033": "1"},
			code:   ErrCodeWrongType,
			column: "bafin_id",
		},
		{
			name:   "bafin id has the wrong shape",
			data:   map[string]string{"bafin_id": "1234", "institute": "x", "p033": "1"},
			code:   ErrCodeBadPattern,
			column: "bafin_id",
		},
		{
			name:   "figure is not a decimal",
			data:   map[string]string{"bafin_id": "12345678", "institute": "x", "p033": "2.60,6"},
			code:   ErrCodeWrongType,
			column: "p033",
		},
		{
			name:   "institute name over the column limit",
			data:   map[string]string{"bafin_id": "12345678", "institute": "Vereinigte Sparkassen im Landkreis Musterfeld AdöR", "p033": "1"},
			code:   ErrCodeTooLong,
			column: "institute",
		},
		{
			name:   "broken mail address",
			data:   map[string]string{"bafin_id": "12345678", "institute": "x", "email": "not-a-mailbox", "p033": "1"},
			code:   ErrCodeWrongType,
			column: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFieldValidator(masterDataRules(), 10)

			ok := v.ValidateRow(row(2, tt.data))

			assert.False(t, ok)
			require.True(t, v.Errors().HasErrors())
			err := v.Errors().Errors()[0]
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.column, err.Column)
		})
	}
}

func TestFieldValidatorOptionalColumnsStayOptional(t *testing.T) {
	v := NewFieldValidator(masterDataRules(), 10)

	ok := v.ValidateRow(row(2, map[string]string{
		"bafin_id":  "12345678",
		"institute": "Sparkasse Musterstadt",
		"p033":      "2606",
		// no email at all
	}))

	assert.True(t, ok)
}

func TestFieldValidatorDuplicateKeyWithinFile(t *testing.T) {
	v := NewFieldValidator(masterDataRules(), 10)

	first := map[string]string{"bafin_id": "12345678", "institute": "Sparkasse Musterstadt", "p033": "1"}
	second := map[string]string{"bafin_id": "12345678", "institute": "Volksbank Beispiel eG", "p033": "2"}

	assert.True(t, v.ValidateRow(row(2, first)))
	assert.False(t, v.ValidateRow(row(3, second)))

	errs := v.Errors().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeDuplicateRow, errs[0].Code)
	assert.Contains(t, errs[0].Message, "row 2")
}
