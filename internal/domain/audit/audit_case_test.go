package audit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestInstitution(t *testing.T) *Institution {
	inst, err := NewInstitution(12345678, "Test Bank AG", testFigures())
	require.NoError(t, err)
	return inst
}

func createTestCase(t *testing.T) *AuditCase {
	c, err := NewAuditCase(createTestInstitution(t))
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

func testFigures() ReferenceFigures {
	d := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	return ReferenceFigures{
		P033: d(2606), P034: d(120), P035: d(430), P036: d(88),
		Ab2S1N01: d(100), Ab2S1N02: d(200), Ab2S1N03: d(300), Ab2S1N04: d(400),
		Ab2S1N05: d(500), Ab2S1N06: d(600), Ab2S1N07: d(700), Ab2S1N08: d(800),
		Ab2S1N09: d(900), Ab2S1N10: d(1000), Ab2S1N11: d(1100),
	}
}

// ============================================
// CaseStage Tests
// ============================================

func TestCaseStage_IsValid(t *testing.T) {
	tests := []struct {
		stage   CaseStage
		isValid bool
	}{
		{StageReceived, true},
		{StageVerifying, true},
		{StageCertificateIssued, true},
		{StageCompleted, true},
		{StageArchived, true},
		{CaseStage(0), false},
		{CaseStage(6), false},
		{CaseStage(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.stage.IsValid())
		})
	}
}

func TestCaseStage_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     CaseStage
		to       CaseStage
		canTrans bool
	}{
		// Forward one step
		{StageReceived, StageVerifying, true},
		{StageVerifying, StageCertificateIssued, true},
		{StageCertificateIssued, StageCompleted, true},
		{StageCompleted, StageArchived, true},
		// Skipping stages
		{StageReceived, StageCertificateIssued, false},
		{StageReceived, StageCompleted, false},
		{StageVerifying, StageCompleted, false},
		{StageVerifying, StageArchived, false},
		// Backwards
		{StageVerifying, StageReceived, false},
		{StageCompleted, StageVerifying, false},
		{StageArchived, StageCompleted, false},
		// Self and out of range
		{StageVerifying, StageVerifying, false},
		{StageArchived, CaseStage(6), false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"_to_"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// AuditCase Tests
// ============================================

func TestNewAuditCase(t *testing.T) {
	inst := createTestInstitution(t)
	c, err := NewAuditCase(inst)
	require.NoError(t, err)

	assert.Equal(t, StageReceived, c.Stage)
	assert.Equal(t, inst.ID, c.InstitutionID)
	assert.Equal(t, inst.BaFinID, c.BaFinID)
	assert.True(t, c.IsOpen())
	assert.Zero(t, c.LastSequence)

	events := c.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventAuditCaseCreated, events[0].EventType())
}

func TestNewAuditCase_NilInstitution(t *testing.T) {
	_, err := NewAuditCase(nil)
	assert.Error(t, err)
}

func TestAuditCase_AdvanceTo(t *testing.T) {
	c := createTestCase(t)

	require.NoError(t, c.AdvanceTo(StageVerifying))
	assert.Equal(t, StageVerifying, c.Stage)

	events := c.GetDomainEvents()
	require.Len(t, events, 1)
	advanced, ok := events[0].(*CaseStageAdvancedEvent)
	require.True(t, ok)
	assert.Equal(t, StageReceived, advanced.From)
	assert.Equal(t, StageVerifying, advanced.To)
}

func TestAuditCase_AdvanceTo_SkipRejected(t *testing.T) {
	c := createTestCase(t)

	err := c.AdvanceTo(StageCompleted)
	assert.Error(t, err)
	assert.Equal(t, StageReceived, c.Stage)
	assert.Empty(t, c.GetDomainEvents())
}

func TestAuditCase_AdvanceTo_Archived(t *testing.T) {
	c := createTestCase(t)
	require.NoError(t, c.AdvanceTo(StageVerifying))
	require.NoError(t, c.MarkVerified(time.Now()))
	require.NoError(t, c.Complete())
	require.NoError(t, c.Archive(time.Now()))

	err := c.AdvanceTo(StageArchived)
	assert.Error(t, err)
}

func TestAuditCase_FullLifecycle(t *testing.T) {
	c := createTestCase(t)
	now := time.Now()

	require.NoError(t, c.AdvanceTo(StageVerifying))
	require.NoError(t, c.MarkVerified(now))
	assert.Equal(t, StageCertificateIssued, c.Stage)
	require.NotNil(t, c.VerifiedAt)

	require.NoError(t, c.Complete())
	assert.Equal(t, StageCompleted, c.Stage)

	require.NoError(t, c.Archive(now))
	assert.Equal(t, StageArchived, c.Stage)
	assert.False(t, c.IsOpen())
	require.NotNil(t, c.ArchivedAt)
}

func TestAuditCase_NextSequence(t *testing.T) {
	c := createTestCase(t)

	assert.Equal(t, int64(1), c.NextSequence())
	assert.Equal(t, int64(2), c.NextSequence())
	assert.Equal(t, int64(2), c.LastSequence)
}

func TestAuditCase_Reset(t *testing.T) {
	c := createTestCase(t)
	require.NoError(t, c.AdvanceTo(StageVerifying))
	c.ClearDomainEvents()

	require.NoError(t, c.Reset("auditor", "figures updated by institution"))
	assert.Equal(t, StageReceived, c.Stage)
	assert.Nil(t, c.VerifiedAt)

	require.Len(t, c.Comments, 1)
	assert.Equal(t, "auditor", c.Comments[0].Author)
	assert.Contains(t, c.Comments[0].Text, "figures updated")
}

func TestAuditCase_Reset_AfterCertificateRejected(t *testing.T) {
	c := createTestCase(t)
	require.NoError(t, c.AdvanceTo(StageVerifying))
	require.NoError(t, c.MarkVerified(time.Now()))

	err := c.Reset("auditor", "too late")
	assert.Error(t, err)
	assert.Equal(t, StageCertificateIssued, c.Stage)
}

func TestAuditCase_Reset_EmptyReason(t *testing.T) {
	c := createTestCase(t)
	err := c.Reset("auditor", "")
	assert.Error(t, err)
}

func TestAuditCase_Archive_RequiresCompleted(t *testing.T) {
	for _, stage := range []CaseStage{StageReceived, StageVerifying, StageCertificateIssued} {
		t.Run(stage.String(), func(t *testing.T) {
			c := createTestCase(t)
			c.Stage = stage
			err := c.Archive(time.Now())
			assert.Error(t, err)
			assert.Nil(t, c.ArchivedAt)
		})
	}
}

func TestAuditCase_Archive_Twice(t *testing.T) {
	c := createTestCase(t)
	c.Stage = StageCompleted
	require.NoError(t, c.Archive(time.Now()))

	err := c.Archive(time.Now())
	assert.Error(t, err)
}

func TestAuditCase_AddComment(t *testing.T) {
	c := createTestCase(t)

	comment := c.AddComment("system", "document received")
	assert.Equal(t, c.ID, comment.CaseID)
	assert.NotEqual(t, comment.ID.String(), "00000000-0000-0000-0000-000000000000")
	require.Len(t, c.Comments, 1)

	c.AddComment("auditor", "checked manually")
	assert.Len(t, c.Comments, 2)
}
