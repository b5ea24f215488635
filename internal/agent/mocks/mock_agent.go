package mocks

import (
	"context"

	"github.com/maximilianw-google/av-assistant/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAgent struct {
	mock.Mock
}

func (m *MockAgent) Analyze(ctx context.Context, details model.BusinessDetails, docs []model.Document) (*model.AnalysisResponse, error) {
	args := m.Called(ctx, details, docs)
	resp, _ := args.Get(0).(*model.AnalysisResponse)
	return resp, args.Error(1)
}
