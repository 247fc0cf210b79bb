package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFigures() audit.ReferenceFigures {
	return audit.ReferenceFigures{
		P033:     decimal.NewFromInt(2606),
		P034:     decimal.NewFromInt(1200),
		P035:     decimal.NewFromInt(300),
		P036:     decimal.NewFromInt(90),
		Ab2S1N01: decimal.NewFromInt(10),
		Ab2S1N02: decimal.NewFromInt(20),
		Ab2S1N03: decimal.NewFromInt(30),
		Ab2S1N04: decimal.NewFromInt(40),
		Ab2S1N05: decimal.NewFromInt(50),
		Ab2S1N06: decimal.NewFromInt(60),
		Ab2S1N07: decimal.NewFromInt(70),
		Ab2S1N08: decimal.NewFromInt(80),
		Ab2S1N09: decimal.NewFromInt(90),
		Ab2S1N10: decimal.NewFromInt(100),
		Ab2S1N11: decimal.NewFromFloat(12.5),
	}
}

func testInstitution(t *testing.T) *audit.Institution {
	t.Helper()
	inst, err := audit.NewInstitution(12345678, "Testbank AG", testFigures())
	require.NoError(t, err)
	return inst
}

func newInstitutionRouter(repo *MockInstitutionRepository) *gin.Engine {
	service := auditapp.NewInstitutionService(repo)
	importService := auditapp.NewInstitutionImportService(repo, zap.NewNop())
	h := NewInstitutionHandler(service, importService)

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/institutions", h.Create)
		v1.GET("/institutions", h.List)
		v1.GET("/institutions/:id", h.GetByID)
		v1.GET("/institutions/bafin/:bafin_id", h.GetByBaFinID)
		v1.PUT("/institutions/:id/figures", h.UpdateFigures)
		v1.POST("/institutions/import", h.Import)
	}
	return router
}

func TestInstitutionHandlerCreate(t *testing.T) {
	t.Run("creates institution", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*audit.Institution")).Return(nil)

		body, _ := json.Marshal(gin.H{
			"bafin_id":  12345678,
			"institute": "Testbank AG",
			"city":      "Frankfurt",
			"figures":   testFigures(),
		})
		req := httptest.NewRequest("POST", "/api/v1/institutions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		repo.AssertExpectations(t)
	})

	t.Run("rejects malformed BaFin ID", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		repo.On("FindByBaFinID", mock.Anything, int64(123)).Return(nil, shared.ErrNotFound)

		body, _ := json.Marshal(gin.H{
			"bafin_id":  123,
			"institute": "Testbank AG",
			"figures":   testFigures(),
		})
		req := httptest.NewRequest("POST", "/api/v1/institutions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_BAFIN_ID", resp.Error.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(testInstitution(t), nil)

		body, _ := json.Marshal(gin.H{
			"bafin_id":  12345678,
			"institute": "Testbank AG",
			"figures":   testFigures(),
		})
		req := httptest.NewRequest("POST", "/api/v1/institutions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects missing institute name via binding", func(t *testing.T) {
		repo := new(MockInstitutionRepository)

		body, _ := json.Marshal(gin.H{
			"bafin_id": 12345678,
			"figures":  testFigures(),
		})
		req := httptest.NewRequest("POST", "/api/v1/institutions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInstitutionHandlerGet(t *testing.T) {
	t.Run("returns institution by ID", func(t *testing.T) {
		inst := testInstitution(t)
		repo := new(MockInstitutionRepository)
		repo.On("FindByID", mock.Anything, inst.ID).Return(inst, nil)

		req := httptest.NewRequest("GET", "/api/v1/institutions/"+inst.ID.String(), nil)
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("404 for unknown institution", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

		req := httptest.NewRequest("GET", "/api/v1/institutions/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("400 for malformed ID", func(t *testing.T) {
		repo := new(MockInstitutionRepository)

		req := httptest.NewRequest("GET", "/api/v1/institutions/not-a-uuid", nil)
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns institution by BaFin ID", func(t *testing.T) {
		inst := testInstitution(t)
		repo := new(MockInstitutionRepository)
		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(inst, nil)

		req := httptest.NewRequest("GET", "/api/v1/institutions/bafin/12345678", nil)
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("400 for non-numeric BaFin ID", func(t *testing.T) {
		repo := new(MockInstitutionRepository)

		req := httptest.NewRequest("GET", "/api/v1/institutions/bafin/abc", nil)
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInstitutionHandlerList(t *testing.T) {
	repo := new(MockInstitutionRepository)
	repo.On("FindAll", mock.Anything, mock.Anything).Return([]audit.Institution{*testInstitution(t)}, nil)
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	req := httptest.NewRequest("GET", "/api/v1/institutions?page=1&page_size=10", nil)
	w := httptest.NewRecorder()
	newInstitutionRouter(repo).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestInstitutionHandlerUpdateFigures(t *testing.T) {
	inst := testInstitution(t)
	repo := new(MockInstitutionRepository)
	repo.On("FindByID", mock.Anything, inst.ID).Return(inst, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*audit.Institution")).Return(nil)

	figures := testFigures()
	figures.P033 = decimal.NewFromInt(9999)
	body, _ := json.Marshal(gin.H{"figures": figures})

	req := httptest.NewRequest("PUT", "/api/v1/institutions/"+inst.ID.String()+"/figures", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newInstitutionRouter(repo).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestInstitutionHandlerImport(t *testing.T) {
	t.Run("requires multipart file", func(t *testing.T) {
		repo := new(MockInstitutionRepository)

		req := httptest.NewRequest("POST", "/api/v1/institutions/import", nil)
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("dry run validates without saving", func(t *testing.T) {
		repo := new(MockInstitutionRepository)
		repo.On("FindByBaFinID", mock.Anything, int64(12345678)).Return(nil, shared.ErrNotFound)

		csv := "bafin_id,institute,p033,p034,p035,p036," +
			"ab2s1n01,ab2s1n02,ab2s1n03,ab2s1n04,ab2s1n05,ab2s1n06,ab2s1n07,ab2s1n08,ab2s1n09,ab2s1n10\n" +
			"12345678,Testbank AG,2606,1200,300,90,10,20,30,40,50,60,70,80,90,100\n"

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "institutions.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest("POST", "/api/v1/institutions/import?dry_run=true", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		newInstitutionRouter(repo).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
