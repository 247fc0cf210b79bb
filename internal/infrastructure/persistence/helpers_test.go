package persistence

import (
	"strings"
	"testing"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func createPersistedInstitution(t *testing.T) *audit.Institution {
	t.Helper()
	d := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	figures := audit.ReferenceFigures{
		P033: d(2606), P034: d(120), P035: d(430), P036: d(88),
		Ab2S1N01: d(100), Ab2S1N02: d(200), Ab2S1N03: d(300), Ab2S1N04: d(400),
		Ab2S1N05: d(500), Ab2S1N06: d(600), Ab2S1N07: d(700), Ab2S1N08: d(800),
		Ab2S1N09: d(900), Ab2S1N10: d(1000), Ab2S1N11: d(1100),
	}
	inst, err := audit.NewInstitution(12345678, "Test Bank AG", figures)
	require.NoError(t, err)
	return inst
}

func createPersistedCase(t *testing.T) *audit.AuditCase {
	t.Helper()
	c, err := audit.NewAuditCase(createPersistedInstitution(t))
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

func createPersistedDocument(t *testing.T, c *audit.AuditCase) *audit.Document {
	t.Helper()
	fingerprint := strings.Repeat("ab", 32)
	doc, err := audit.NewDocument(c.ID, fingerprint, "jahresabschluss.pdf", "application/pdf",
		"documents/ab/"+fingerprint+".pdf", 2048, c.NextSequence())
	require.NoError(t, err)
	return doc
}
