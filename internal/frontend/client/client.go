// Package client is the frontend's HTTP client for the analysis backend.
// Backend failures are logged with full detail but surfaced to callers as
// generic errors, so nothing internal can leak into a rendered page.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maximilianw-google/av-assistant/internal/config"
	"github.com/maximilianw-google/av-assistant/internal/model"
)

// SessionIDHeader carries the caller's session identity to the backend.
const SessionIDHeader = "Client-Session-ID"

// ErrAnalysisFailed is the only error callers should show to users. The
// underlying cause is logged server-side.
var ErrAnalysisFailed = errors.New("analysis failed, please try again")

// ErrBackendUnavailable covers upload and listing failures against the
// backend's document endpoints.
var ErrBackendUnavailable = errors.New("could not reach the analysis service")

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(cfg config.FrontendConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BackendURL, "/"),
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		log: log,
	}
}

// RunAnalysis submits the business details and documents and returns the
// structured analysis verbatim.
func (c *Client) RunAnalysis(ctx context.Context, sessionID string, details model.BusinessDetails, docs []model.Document) (*model.AnalysisResponse, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		c.log.Error("failed to encode business details", zap.Error(err))
		return nil, ErrAnalysisFailed
	}

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if err := w.WriteField("business_details_json", string(detailsJSON)); err != nil {
		c.log.Error("failed to build analysis request", zap.Error(err))
		return nil, ErrAnalysisFailed
	}
	for _, doc := range docs {
		// The field name carries the required-item label, the backend
		// keys the document on it.
		fw, err := w.CreateFormFile(doc.FileType, doc.Filename)
		if err == nil {
			_, err = fw.Write(doc.Content)
		}
		if err != nil {
			c.log.Error("failed to attach document",
				zap.String("file_type", doc.FileType), zap.Error(err))
			return nil, ErrAnalysisFailed
		}
	}
	if err := w.Close(); err != nil {
		c.log.Error("failed to build analysis request", zap.Error(err))
		return nil, ErrAnalysisFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run_analysis", body)
	if err != nil {
		c.log.Error("failed to build analysis request", zap.Error(err))
		return nil, ErrAnalysisFailed
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(SessionIDHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("analysis request failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, ErrAnalysisFailed
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("failed to read analysis response", zap.Error(err))
		return nil, ErrAnalysisFailed
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Error("analysis request rejected",
			zap.String("session_id", sessionID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, ErrAnalysisFailed
	}

	var result model.AnalysisResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Error("invalid analysis response",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, ErrAnalysisFailed
	}
	return &result, nil
}

// UploadDocument stores a document in the backend's session storage so it
// survives page reloads.
func (c *Client) UploadDocument(ctx context.Context, sessionID string, doc model.Document) error {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if err := w.WriteField("file_type", doc.FileType); err != nil {
		return c.backendErr("build upload request", sessionID, err)
	}
	fw, err := w.CreateFormFile("file", doc.Filename)
	if err == nil {
		_, err = fw.Write(doc.Content)
	}
	if err != nil {
		return c.backendErr("build upload request", sessionID, err)
	}
	if err := w.Close(); err != nil {
		return c.backendErr("build upload request", sessionID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", body)
	if err != nil {
		return c.backendErr("build upload request", sessionID, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(SessionIDHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.backendErr("upload document", sessionID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return c.backendErr("upload document", sessionID,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

// RemoveDocument deletes a previously uploaded document from the backend's
// session storage.
func (c *Client) RemoveDocument(ctx context.Context, sessionID, fileType, filename string) error {
	q := url.Values{}
	q.Set("file_type", fileType)
	q.Set("filename", filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/documents?"+q.Encode(), nil)
	if err != nil {
		return c.backendErr("build remove request", sessionID, err)
	}
	req.Header.Set(SessionIDHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.backendErr("remove document", sessionID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusNoContent {
		return c.backendErr("remove document", sessionID,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

// SessionDocument mirrors the backend's session document listing entry.
type SessionDocument struct {
	FileType string `json:"file_type"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ListDocuments returns the documents already stored for a session. A
// backend failure returns an empty list so a returning visitor can still
// use the form.
func (c *Client) ListDocuments(ctx context.Context, sessionID string) []SessionDocument {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/sessions/"+url.PathEscape(sessionID)+"/documents", nil)
	if err != nil {
		c.backendErr("build list request", sessionID, err)
		return nil
	}
	req.Header.Set(SessionIDHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.backendErr("list documents", sessionID, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.backendErr("list documents", sessionID,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
		return nil
	}

	var body struct {
		Documents []SessionDocument `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.backendErr("decode document listing", sessionID, err)
		return nil
	}
	return body.Documents
}

// DownloadDocument fetches one staged document's bytes back from the
// backend, used to restore a returning visitor's uploads.
func (c *Client) DownloadDocument(ctx context.Context, sessionID, fileType, filename string) (model.Document, error) {
	q := url.Values{}
	q.Set("file_type", fileType)
	q.Set("filename", filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/sessions/"+url.PathEscape(sessionID)+"/document?"+q.Encode(), nil)
	if err != nil {
		return model.Document{}, c.backendErr("build download request", sessionID, err)
	}
	req.Header.Set(SessionIDHeader, sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Document{}, c.backendErr("download document", sessionID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return model.Document{}, c.backendErr("download document", sessionID,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Document{}, c.backendErr("read downloaded document", sessionID, err)
	}
	return model.Document{
		FileType:    fileType,
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func (c *Client) backendErr(op, sessionID string, err error) error {
	c.log.Error("backend request failed",
		zap.String("op", op),
		zap.String("session_id", sessionID),
		zap.Error(err))
	return ErrBackendUnavailable
}
