package extraction

import (
	"context"
	"testing"

	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSubmission = `Jahresmeldung gemäß FinDAG
BaFin-ID: 12345678

Position 033 Bilanzsumme: 2.606
Position 034: 120
Position 035: 430
Position 036: 88

Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 1 FinDAG: 100
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 2 FinDAG: 200
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 3 FinDAG: 300
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 4 FinDAG: 400
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 5 FinDAG: 500
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 6 FinDAG: 600
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 7 FinDAG: 700
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 8 FinDAG: 800
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 9 FinDAG: 900
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 10 FinDAG: 1.000
Umlagebetrag nach § 16j Abs. 2 Satz 1 Nr. 11 FinDAG: 12,5
`

func TestTextExtractor_Extract(t *testing.T) {
	extractor := NewTextExtractor(nil)

	t.Run("extracts all fields and the regulator ID", func(t *testing.T) {
		result, err := extractor.Extract(context.Background(), []byte(sampleSubmission))
		require.NoError(t, err)

		assert.Equal(t, int64(12345678), result.BaFinID)
		assert.Len(t, result.Fields, 15)
		assert.True(t, decimal.NewFromInt(2606).Equal(result.Fields["p033"]))
		assert.True(t, decimal.NewFromInt(1000).Equal(result.Fields["ab2s1n10"]))
		assert.True(t, decimal.RequireFromString("12.5").Equal(result.Fields["ab2s1n11"]))
	})

	t.Run("first occurrence of a field wins", func(t *testing.T) {
		text := "Position 033: 100\nPosition 033: 999\nBaFin-ID: 12345678\n"
		result, err := extractor.Extract(context.Background(), []byte(text))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(result.Fields["p033"]))
	})

	t.Run("missing regulator ID yields zero", func(t *testing.T) {
		text := "Position 033: 100\n"
		result, err := extractor.Extract(context.Background(), []byte(text))
		require.NoError(t, err)
		assert.Zero(t, result.BaFinID)
	})

	t.Run("document without figures fails", func(t *testing.T) {
		result, err := extractor.Extract(context.Background(), []byte("Sehr geehrte Damen und Herren,\nanbei unsere Unterlagen.\n"))
		assert.Nil(t, result)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXTRACTION_FAILED", domainErr.Code)
	})

	t.Run("empty document fails", func(t *testing.T) {
		result, err := extractor.Extract(context.Background(), []byte("   "))
		assert.Nil(t, result)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXTRACTION_FAILED", domainErr.Code)
	})

	t.Run("label and amount without colon", func(t *testing.T) {
		text := "Position 033 Bilanzsumme 2.606 EUR\nBaFin-ID 12345678\n"
		result, err := extractor.Extract(context.Background(), []byte(text))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2606).Equal(result.Fields["p033"]))
	})
}
