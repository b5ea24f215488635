package mocks

import (
	"context"

	"github.com/maximilianw-google/av-assistant/internal/model"
	"github.com/maximilianw-google/av-assistant/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, sessionID string, details model.BusinessDetails, docs []model.Document) (*model.AnalysisResponse, error) {
	args := m.Called(ctx, sessionID, details, docs)
	resp, _ := args.Get(0).(*model.AnalysisResponse)
	return resp, args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, sessionID string, doc model.Document) (string, error) {
	args := m.Called(ctx, sessionID, doc)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Remove(ctx context.Context, sessionID, fileType, filename string) error {
	args := m.Called(ctx, sessionID, fileType, filename)
	return args.Error(0)
}

func (m *MockDocumentService) List(ctx context.Context, sessionID string) ([]service.SessionDocument, error) {
	args := m.Called(ctx, sessionID)
	docs, _ := args.Get(0).([]service.SessionDocument)
	return docs, args.Error(1)
}

func (m *MockDocumentService) Fetch(ctx context.Context, sessionID, fileType, filename string) (model.Document, error) {
	args := m.Called(ctx, sessionID, fileType, filename)
	doc, _ := args.Get(0).(model.Document)
	return doc, args.Error(1)
}
