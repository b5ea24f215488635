package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maximilianw-google/av-assistant/internal/config"
	"github.com/maximilianw-google/av-assistant/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(t *testing.T, backendURL string) *Client {
	t.Helper()
	return New(config.FrontendConfig{BackendURL: backendURL, TimeoutSec: 5}, zap.NewNop())
}

func TestRunAnalysis(t *testing.T) {
	details := model.BusinessDetails{
		BusinessName:    "Acme Bakery",
		BusinessAddress: "123 Main St, Springfield, OH 45501",
		BusinessWebsite: "https://acme.example.com",
	}
	docs := []model.Document{{
		FileType:    "Utility Bill",
		Filename:    "bill.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
	}}
	want := model.AnalysisResponse{
		Summary: "Looks consistent",
		Aspects: []model.AspectAnalysis{{
			Name:          "Address match",
			Status:        model.StatusPass,
			Justification: "Matches.",
		}},
	}

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/run_analysis", r.URL.Path)
			assert.Equal(t, "sess-1", r.Header.Get(SessionIDHeader))

			require.NoError(t, r.ParseMultipartForm(32<<20))
			var got model.BusinessDetails
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("business_details_json")), &got))
			assert.Equal(t, details, got)

			fhs := r.MultipartForm.File["Utility Bill"]
			require.Len(t, fhs, 1)
			assert.Equal(t, "bill.pdf", fhs[0].Filename)
			f, err := fhs[0].Open()
			require.NoError(t, err)
			content, _ := io.ReadAll(f)
			f.Close()
			assert.Equal(t, []byte("%PDF-1.4"), content)

			json.NewEncoder(w).Encode(want)
		}))
		defer srv.Close()

		got, err := newClient(t, srv.URL).RunAnalysis(context.Background(), "sess-1", details, docs)
		require.NoError(t, err)
		assert.Equal(t, &want, got)
	})

	t.Run("backend error is generic", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":"ANALYSIS_FAILED","message":"agent exploded: stack trace"}}`, http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newClient(t, srv.URL).RunAnalysis(context.Background(), "sess-1", details, docs)
		assert.ErrorIs(t, err, ErrAnalysisFailed)
		assert.NotContains(t, err.Error(), "stack trace")
	})

	t.Run("unreachable backend is generic", func(t *testing.T) {
		_, err := newClient(t, "http://127.0.0.1:1").RunAnalysis(context.Background(), "sess-1", details, docs)
		assert.ErrorIs(t, err, ErrAnalysisFailed)
	})

	t.Run("invalid json response is generic", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		_, err := newClient(t, srv.URL).RunAnalysis(context.Background(), "sess-1", details, docs)
		assert.ErrorIs(t, err, ErrAnalysisFailed)
	})
}

func TestUploadDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents", r.URL.Path)
		assert.Equal(t, "sess-1", r.Header.Get(SessionIDHeader))
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "Utility Bill", r.FormValue("file_type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newClient(t, srv.URL).UploadDocument(context.Background(), "sess-1", model.Document{
		FileType: "Utility Bill",
		Filename: "bill.pdf",
		Content:  []byte("%PDF"),
	})
	assert.NoError(t, err)
}

func TestRemoveDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "Utility Bill", r.URL.Query().Get("file_type"))
		assert.Equal(t, "bill.pdf", r.URL.Query().Get("filename"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newClient(t, srv.URL).RemoveDocument(context.Background(), "sess-1", "Utility Bill", "bill.pdf")
	assert.NoError(t, err)
}

func TestListDocuments(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sessions/sess-1/documents", r.URL.Path)
			w.Write([]byte(`{"documents":[{"file_type":"Utility Bill","filename":"bill.pdf","size":4}]}`))
		}))
		defer srv.Close()

		docs := newClient(t, srv.URL).ListDocuments(context.Background(), "sess-1")
		require.Len(t, docs, 1)
		assert.Equal(t, "Utility Bill", docs[0].FileType)
	})

	t.Run("failure returns empty list", func(t *testing.T) {
		docs := newClient(t, "http://127.0.0.1:1").ListDocuments(context.Background(), "sess-1")
		assert.Empty(t, docs)
	})
}

func TestDownloadDocument(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sessions/sess-1/document", r.URL.Path)
			assert.Equal(t, "Utility Bill", r.URL.Query().Get("file_type"))
			assert.Equal(t, "bill.pdf", r.URL.Query().Get("filename"))
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF"))
		}))
		defer srv.Close()

		doc, err := newClient(t, srv.URL).DownloadDocument(context.Background(), "sess-1", "Utility Bill", "bill.pdf")
		require.NoError(t, err)
		assert.Equal(t, "Utility Bill", doc.FileType)
		assert.Equal(t, "application/pdf", doc.ContentType)
		assert.Equal(t, []byte("%PDF"), doc.Content)
	})

	t.Run("not found maps to a generic error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		_, err := newClient(t, srv.URL).DownloadDocument(context.Background(), "sess-1", "Utility Bill", "gone.pdf")
		assert.ErrorIs(t, err, ErrBackendUnavailable)
	})
}
