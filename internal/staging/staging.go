package staging

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/maximilianw-google/av-assistant/internal/config"
	"github.com/maximilianw-google/av-assistant/internal/model"
	"github.com/maximilianw-google/av-assistant/internal/storage"
)

// Package staging holds the file-handling abstraction for one analysis
// request. The two deployment modes (stage bytes in object storage vs. pass
// them in memory) are two implementations of the same interface, selected by
// configuration, so the analysis handler carries no mode conditionals.

// Stager places uploaded documents somewhere for the duration of one
// analysis request and tears that place down afterwards.
type Stager interface {
	// Stage writes the documents under the request-scoped prefix and returns
	// one reference per document, in input order.
	Stage(ctx context.Context, prefix string, docs []model.Document) ([]string, error)
	// Discard removes everything staged under the prefix. Callers invoke it
	// unconditionally after the agent call, success or failure.
	Discard(ctx context.Context, prefix string) error
}

// New selects the Stager implementation for the configured mode.
func New(cfg config.StagingConfig, store storage.Storage) (Stager, error) {
	switch cfg.Mode {
	case config.StagingModeObject:
		if store == nil {
			return nil, fmt.Errorf("staging mode %q requires object storage", cfg.Mode)
		}
		return &ObjectStager{Store: store}, nil
	case config.StagingModeInline:
		return InlineStager{}, nil
	default:
		return nil, fmt.Errorf("unknown staging mode %q", cfg.Mode)
	}
}

// ObjectStager stages each document as one blob under
// <prefix>/<file type>/<filename>.
type ObjectStager struct {
	Store storage.Storage
}

// Key returns the object key for a document under the given prefix.
func (s *ObjectStager) Key(prefix string, doc model.Document) string {
	return path.Join(prefix, doc.FileType, doc.Filename)
}

func (s *ObjectStager) Stage(ctx context.Context, prefix string, docs []model.Document) ([]string, error) {
	refs := make([]string, 0, len(docs))
	for _, doc := range docs {
		key := s.Key(prefix, doc)
		_, err := s.Store.Put(ctx, key, bytes.NewReader(doc.Content), storage.PutObjectOptions{
			Size:        int64(len(doc.Content)),
			ContentType: doc.ContentType,
			Metadata:    map[string]string{"file-type": doc.FileType},
		})
		if err != nil {
			return refs, fmt.Errorf("stage %q: %w", key, err)
		}
		refs = append(refs, key)
	}
	return refs, nil
}

func (s *ObjectStager) Discard(ctx context.Context, prefix string) error {
	return s.Store.DeletePrefix(ctx, prefix)
}

// InlineStager is the in-memory passthrough mode: document bytes go straight
// to the agent and storage is never touched.
type InlineStager struct{}

func (InlineStager) Stage(ctx context.Context, prefix string, docs []model.Document) ([]string, error) {
	refs := make([]string, 0, len(docs))
	for _, doc := range docs {
		refs = append(refs, doc.Filename)
	}
	return refs, nil
}

func (InlineStager) Discard(ctx context.Context, prefix string) error {
	return nil
}
