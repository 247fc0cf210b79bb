package audit

import (
	"context"
	"testing"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const importHeader = "bafin_id,institute,city,p033,p034,p035,p036," +
	"ab2s1n01,ab2s1n02,ab2s1n03,ab2s1n04,ab2s1n05,ab2s1n06,ab2s1n07,ab2s1n08,ab2s1n09,ab2s1n10,ab2s1n11\n"

func TestInstitutionImportService_ImportCSV(t *testing.T) {
	t.Run("creates new institutions", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		service := NewInstitutionImportService(repo, zap.NewNop())

		csv := importHeader +
			"12345678,Test Bank AG,Frankfurt,2606,120,430,88,100,200,300,400,500,600,700,800,900,1000,12.5\n"

		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(inst *audit.Institution) bool {
			return inst.BaFinID == 12345678 &&
				inst.Institute == "Test Bank AG" &&
				inst.City == "Frankfurt" &&
				inst.Figures.P033.Equal(decimal.NewFromInt(2606))
		})).Return(nil)

		report, err := service.ImportCSV(context.Background(), ImportRequest{Content: []byte(csv)})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Rows)
		assert.Equal(t, 1, report.Created)
		assert.Zero(t, report.Updated)
		assert.Zero(t, report.Rejected)
		assert.Empty(t, report.Errors)
		repo.AssertExpectations(t)
	})

	t.Run("updates existing institution figures", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		service := NewInstitutionImportService(repo, zap.NewNop())

		existing, err := audit.NewInstitution(12345678, "Alte Bank", audit.ReferenceFigures{})
		require.NoError(t, err)

		csv := importHeader +
			"12345678,Test Bank AG,Frankfurt,2606,120,430,88,100,200,300,400,500,600,700,800,900,1000,0\n"

		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(existing, nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(inst *audit.Institution) bool {
			return inst.Institute == "Test Bank AG" &&
				inst.Figures.P033.Equal(decimal.NewFromInt(2606))
		})).Return(nil)

		report, err := service.ImportCSV(context.Background(), ImportRequest{Content: []byte(csv)})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Updated)
		assert.Zero(t, report.Created)
		repo.AssertExpectations(t)
	})

	t.Run("rejects invalid rows but imports the rest", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		service := NewInstitutionImportService(repo, zap.NewNop())

		csv := importHeader +
			"12345678,Test Bank AG,Frankfurt,2606,120,430,88,100,200,300,400,500,600,700,800,900,1000,0\n" +
			"999,Kurze ID GmbH,Berlin,1,1,1,1,1,1,1,1,1,1,1,1,1,1,0\n" +
			"23456789,,Hamburg,1,1,1,1,1,1,1,1,1,1,1,1,1,1,0\n"

		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		report, err := service.ImportCSV(context.Background(), ImportRequest{Content: []byte(csv)})
		require.NoError(t, err)

		assert.Equal(t, 3, report.Rows)
		assert.Equal(t, 1, report.Created)
		assert.Equal(t, 2, report.Rejected)
		assert.NotEmpty(t, report.Errors)
		repo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("rejects duplicate BaFin IDs within the file", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		service := NewInstitutionImportService(repo, zap.NewNop())

		csv := importHeader +
			"12345678,Test Bank AG,Frankfurt,1,1,1,1,1,1,1,1,1,1,1,1,1,1,0\n" +
			"12345678,Doppelte Bank,Berlin,1,1,1,1,1,1,1,1,1,1,1,1,1,1,0\n"

		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		report, err := service.ImportCSV(context.Background(), ImportRequest{Content: []byte(csv)})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Created)
		assert.Equal(t, 1, report.Rejected)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		service := NewInstitutionImportService(repo, zap.NewNop())

		csv := importHeader +
			"12345678,Test Bank AG,Frankfurt,2606,120,430,88,100,200,300,400,500,600,700,800,900,1000,0\n"

		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(nil, shared.ErrNotFound)

		report, err := service.ImportCSV(context.Background(), ImportRequest{Content: []byte(csv), DryRun: true})
		require.NoError(t, err)

		assert.True(t, report.DryRun)
		assert.Equal(t, 1, report.Created)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("missing required columns fail the whole file", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		service := NewInstitutionImportService(repo, zap.NewNop())

		csv := "bafin_id,institute\n12345678,Test Bank AG\n"

		report, err := service.ImportCSV(context.Background(), ImportRequest{Content: []byte(csv)})
		assert.Nil(t, report)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("semicolon delimited files parse", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		service := NewInstitutionImportService(repo, zap.NewNop())

		csv := "bafin_id;institute;p033;p034;p035;p036;ab2s1n01;ab2s1n02;ab2s1n03;ab2s1n04;ab2s1n05;ab2s1n06;ab2s1n07;ab2s1n08;ab2s1n09;ab2s1n10\n" +
			"12345678;Test Bank AG;2606;120;430;88;100;200;300;400;500;600;700;800;900;1000\n"

		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		report, err := service.ImportCSV(context.Background(), ImportRequest{Content: []byte(csv), Delimiter: ';'})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Created)
	})
}
