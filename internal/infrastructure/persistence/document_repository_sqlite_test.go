package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openSQLite gives the repository a real database so the unique
// (case_id, fingerprint) index is actually enforced, which sqlmock
// cannot do.
func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&audit.Document{}))
	return db
}

func sqliteDocument(t *testing.T, caseID uuid.UUID, content string, sequence int64) *audit.Document {
	t.Helper()
	doc, err := audit.NewDocument(caseID, audit.Fingerprint([]byte(content)), "meldung.pdf", "application/pdf", "documents/x", int64(len(content)), sequence)
	require.NoError(t, err)
	return doc
}

func TestGormDocumentRepositoryUniqueFingerprint(t *testing.T) {
	ctx := context.Background()

	t.Run("identical bytes on the same case are rejected", func(t *testing.T) {
		repo := NewGormDocumentRepository(openSQLite(t))
		caseID := uuid.New()

		require.NoError(t, repo.Save(ctx, sqliteDocument(t, caseID, "%PDF-1.4 submission", 1)))

		err := repo.Save(ctx, sqliteDocument(t, caseID, "%PDF-1.4 submission", 2))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("identical bytes on another case are a fresh document", func(t *testing.T) {
		repo := NewGormDocumentRepository(openSQLite(t))

		require.NoError(t, repo.Save(ctx, sqliteDocument(t, uuid.New(), "%PDF-1.4 submission", 1)))
		assert.NoError(t, repo.Save(ctx, sqliteDocument(t, uuid.New(), "%PDF-1.4 submission", 1)))
	})

	t.Run("saving the same document twice updates in place", func(t *testing.T) {
		repo := NewGormDocumentRepository(openSQLite(t))
		doc := sqliteDocument(t, uuid.New(), "%PDF-1.4 submission", 1)

		require.NoError(t, repo.Save(ctx, doc))
		now := time.Now()
		doc.ProcessedAt = &now
		require.NoError(t, repo.Save(ctx, doc))

		found, err := repo.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.NotNil(t, found.ProcessedAt)
	})
}

func TestGormDocumentRepositoryFindUnprocessedSQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(openSQLite(t))
	caseID := uuid.New()

	oldest := sqliteDocument(t, caseID, "first", 1)
	oldest.CreatedAt = time.Now().Add(-2 * time.Hour)
	middle := sqliteDocument(t, caseID, "second", 2)
	middle.CreatedAt = time.Now().Add(-time.Hour)
	handled := sqliteDocument(t, caseID, "third", 3)
	now := time.Now()
	handled.ProcessedAt = &now

	for _, doc := range []*audit.Document{oldest, middle, handled} {
		require.NoError(t, repo.Save(ctx, doc))
	}

	docs, err := repo.FindUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, oldest.ID, docs[0].ID)
	assert.Equal(t, middle.ID, docs[1].ID)

	limited, err := repo.FindUnprocessed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, oldest.ID, limited[0].ID)
}

func TestGormDocumentRepositoryFindByCaseAndFingerprintSQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(openSQLite(t))
	caseID := uuid.New()
	doc := sqliteDocument(t, caseID, "%PDF-1.4 submission", 1)
	require.NoError(t, repo.Save(ctx, doc))

	found, err := repo.FindByCaseAndFingerprint(ctx, caseID, doc.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)

	_, err = repo.FindByCaseAndFingerprint(ctx, uuid.New(), doc.Fingerprint)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
