package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/maximilianw-google/av-assistant/internal/model"
	"github.com/maximilianw-google/av-assistant/internal/storage"
)

var (
	ErrSessionIDRequired = errors.New("session id is required")
	ErrFilenameRequired  = errors.New("filename is required")
	ErrEmptyDocument     = errors.New("document content is empty")
)

// SessionDocument describes one file staged for a session, without its bytes.
type SessionDocument struct {
	FileType string `json:"file_type"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// DocumentService manages documents staged ahead of an analysis run, scoped
// to a form session. Blobs live under sessions/<id>/<file type>/<filename>
// and are subject to the bucket's age-based lifecycle rule.
type DocumentService interface {
	// Upload stages a document and returns its object key.
	Upload(ctx context.Context, sessionID string, doc model.Document) (string, error)
	// Remove deletes one staged document.
	Remove(ctx context.Context, sessionID, fileType, filename string) error
	// List returns the documents currently staged for the session.
	List(ctx context.Context, sessionID string) ([]SessionDocument, error)
	// Fetch returns one staged document including its bytes.
	Fetch(ctx context.Context, sessionID, fileType, filename string) (model.Document, error)
}

type documentService struct {
	store storage.Storage
}

// NewDocumentService constructs a DocumentService over the given storage.
func NewDocumentService(store storage.Storage) DocumentService {
	return &documentService{store: store}
}

func sessionPrefix(sessionID string) string {
	return path.Join("sessions", sessionID) + "/"
}

func (s *documentService) Upload(ctx context.Context, sessionID string, doc model.Document) (string, error) {
	if sessionID == "" {
		return "", ErrSessionIDRequired
	}
	if doc.Filename == "" {
		return "", ErrFilenameRequired
	}
	if len(doc.Content) == 0 {
		return "", ErrEmptyDocument
	}

	key := path.Join("sessions", sessionID, doc.FileType, doc.Filename)
	_, err := s.store.Put(ctx, key, bytes.NewReader(doc.Content), storage.PutObjectOptions{
		Size:        int64(len(doc.Content)),
		ContentType: doc.ContentType,
		Metadata:    map[string]string{"file-type": doc.FileType},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	return key, nil
}

func (s *documentService) Remove(ctx context.Context, sessionID, fileType, filename string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	if filename == "" {
		return ErrFilenameRequired
	}
	key := path.Join("sessions", sessionID, fileType, filename)
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete from storage: %w", err)
	}
	return nil
}

func (s *documentService) Fetch(ctx context.Context, sessionID, fileType, filename string) (model.Document, error) {
	if sessionID == "" {
		return model.Document{}, ErrSessionIDRequired
	}
	if filename == "" {
		return model.Document{}, ErrFilenameRequired
	}

	key := path.Join("sessions", sessionID, fileType, filename)
	rc, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Document{}, err
		}
		return model.Document{}, fmt.Errorf("get from storage: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return model.Document{}, fmt.Errorf("read from storage: %w", err)
	}
	return model.Document{
		FileType:    fileType,
		Filename:    filename,
		ContentType: info.ContentType,
		Content:     content,
	}, nil
}

func (s *documentService) List(ctx context.Context, sessionID string) ([]SessionDocument, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	prefix := sessionPrefix(sessionID)
	objs, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list storage: %w", err)
	}

	docs := make([]SessionDocument, 0, len(objs))
	for _, obj := range objs {
		rel := strings.TrimPrefix(obj.Key, prefix)
		fileType, filename := path.Split(rel)
		docs = append(docs, SessionDocument{
			FileType: strings.TrimSuffix(fileType, "/"),
			Filename: filename,
			Size:     obj.Size,
		})
	}
	return docs, nil
}
