package mocks

import (
	"context"

	"github.com/maximilianw-google/av-assistant/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockStager struct {
	mock.Mock
}

func (m *MockStager) Stage(ctx context.Context, prefix string, docs []model.Document) ([]string, error) {
	args := m.Called(ctx, prefix, docs)
	refs, _ := args.Get(0).([]string)
	return refs, args.Error(1)
}

func (m *MockStager) Discard(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
