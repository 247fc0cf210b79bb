package extraction

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finaudit/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineClient(t *testing.T) {
	t.Run("rejects empty URL", func(t *testing.T) {
		client, err := NewEngineClient("", time.Minute, nil)
		assert.Nil(t, client)
		assert.Error(t, err)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		client, err := NewEngineClient("http://engine:8080/", time.Minute, nil)
		require.NoError(t, err)
		assert.Equal(t, "http://engine:8080", client.baseURL)
	})
}

func TestEngineClient_Extract(t *testing.T) {
	t.Run("parses engine response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/extract", r.URL.Path)
			assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))

			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "%PDF-1.4 test", string(body))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"bafin_id": 12345678,
				"fields": {
					"Position 033 Bilanzsumme": "2.606",
					"§ 16j Abs. 2 Satz 1 Nr. 11 FinDAG": "12,5",
					"Gesamtsumme Aktiva": "999",
					"Position 034": "n/a"
				},
				"pages": 3
			}`))
		}))
		defer server.Close()

		client, err := NewEngineClient(server.URL, time.Minute, nil)
		require.NoError(t, err)

		result, err := client.Extract(context.Background(), []byte("%PDF-1.4 test"))
		require.NoError(t, err)

		assert.Equal(t, int64(12345678), result.BaFinID)
		assert.Equal(t, 3, result.Pages)
		assert.Len(t, result.Fields, 2)
		assert.True(t, decimal.NewFromInt(2606).Equal(result.Fields["p033"]))
		assert.True(t, decimal.RequireFromString("12.5").Equal(result.Fields["ab2s1n11"]))
	})

	t.Run("defaults pages to one", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"bafin_id": 12345678, "fields": {"p033": "100"}}`))
		}))
		defer server.Close()

		client, err := NewEngineClient(server.URL, time.Minute, nil)
		require.NoError(t, err)

		result, err := client.Extract(context.Background(), []byte("doc"))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Pages)
	})

	t.Run("engine error status fails extraction", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "engine overloaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, err := NewEngineClient(server.URL, time.Minute, nil)
		require.NoError(t, err)

		result, err := client.Extract(context.Background(), []byte("doc"))
		assert.Nil(t, result)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXTRACTION_FAILED", domainErr.Code)
		assert.Contains(t, domainErr.Message, "503")
	})

	t.Run("engine reported error fails extraction", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error": "document is not a scan"}`))
		}))
		defer server.Close()

		client, err := NewEngineClient(server.URL, time.Minute, nil)
		require.NoError(t, err)

		result, err := client.Extract(context.Background(), []byte("doc"))
		assert.Nil(t, result)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXTRACTION_FAILED", domainErr.Code)
		assert.Equal(t, "document is not a scan", domainErr.Message)
	})

	t.Run("invalid response body fails extraction", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}))
		defer server.Close()

		client, err := NewEngineClient(server.URL, time.Minute, nil)
		require.NoError(t, err)

		result, err := client.Extract(context.Background(), []byte("doc"))
		assert.Nil(t, result)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXTRACTION_FAILED", domainErr.Code)
	})

	t.Run("no recognizable fields fails extraction", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"bafin_id": 12345678, "fields": {"Gesamtsumme": "100"}}`))
		}))
		defer server.Close()

		client, err := NewEngineClient(server.URL, time.Minute, nil)
		require.NoError(t, err)

		result, err := client.Extract(context.Background(), []byte("doc"))
		assert.Nil(t, result)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXTRACTION_FAILED", domainErr.Code)
	})

	t.Run("unreachable engine fails extraction", func(t *testing.T) {
		client, err := NewEngineClient("http://127.0.0.1:1", time.Second, nil)
		require.NoError(t, err)

		result, err := client.Extract(context.Background(), []byte("doc"))
		assert.Nil(t, result)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXTRACTION_FAILED", domainErr.Code)
	})
}
