package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maximilianw-google/av-assistant/internal/agent"
	agentMocks "github.com/maximilianw-google/av-assistant/internal/agent/mocks"
	"github.com/maximilianw-google/av-assistant/internal/analytics"
	"github.com/maximilianw-google/av-assistant/internal/config"
	"github.com/maximilianw-google/av-assistant/internal/model"
	"github.com/maximilianw-google/av-assistant/internal/staging"
	stagingMocks "github.com/maximilianw-google/av-assistant/internal/staging/mocks"
	"github.com/maximilianw-google/av-assistant/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validDetails() model.BusinessDetails {
	return model.BusinessDetails{
		BusinessName:    "Acme Bakery",
		BusinessAddress: "123 Main St, Springfield, IL",
		BusinessType:    "Garage door",
	}
}

func validDocs() []model.Document {
	return []model.Document{{
		FileType:    "proof of address",
		Filename:    "proof.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4 proof"),
	}}
}

func stubResponse() *model.AnalysisResponse {
	return &model.AnalysisResponse{
		Summary: "Looks consistent",
		Aspects: []model.AspectAnalysis{{
			Name:          "Address match",
			Status:        model.StatusPass,
			Justification: "Address on the proof matches the business details.",
			Evidence:      []string{"Document: proof.pdf"},
		}},
	}
}

func noAnalytics() *analytics.Client {
	return analytics.New(config.AnalyticsConfig{}, zap.NewNop())
}

func TestAnalyzeValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		details model.BusinessDetails
		docs    []model.Document
		wantErr error
	}{
		{
			name:    "missing business name",
			details: model.BusinessDetails{BusinessAddress: "addr"},
			docs:    validDocs(),
			wantErr: ErrBusinessNameRequired,
		},
		{
			name:    "missing business address",
			details: model.BusinessDetails{BusinessName: "Acme Bakery"},
			docs:    validDocs(),
			wantErr: ErrBusinessAddressRequired,
		},
		{
			name:    "missing documents",
			details: validDetails(),
			docs:    nil,
			wantErr: ErrNoDocuments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStager := new(stagingMocks.MockStager)
			mAgent := new(agentMocks.MockAgent)
			svc := NewAnalysisService(mStager, mAgent, noAnalytics(), zap.NewNop(), 0)

			resp, err := svc.Analyze(ctx, "sess", tt.details, tt.docs)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
			// Validation failures happen before any staging or agent work.
			mStager.AssertNotCalled(t, "Stage")
			mAgent.AssertNotCalled(t, "Analyze")
		})
	}
}

func TestAnalyzePassThrough(t *testing.T) {
	ctx := context.Background()

	store := storage.NewMemory()
	stager := &staging.ObjectStager{Store: store}
	mAgent := new(agentMocks.MockAgent)
	mAgent.On("Analyze", mock.Anything, validDetails(), validDocs()).
		Return(stubResponse(), nil)

	svc := NewAnalysisService(stager, mAgent, noAnalytics(), zap.NewNop(), time.Minute)

	resp, err := svc.Analyze(ctx, "sess", validDetails(), validDocs())

	require.NoError(t, err)
	// Pass-through invariant: the agent's conforming response is returned
	// unchanged.
	assert.Equal(t, stubResponse(), resp)
	mAgent.AssertExpectations(t)

	// Cleanup invariant: no staged blob survives the run.
	objs, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestAnalyzeAgentFailureCleansUp(t *testing.T) {
	ctx := context.Background()

	store := storage.NewMemory()
	stager := &staging.ObjectStager{Store: store}
	mAgent := new(agentMocks.MockAgent)
	mAgent.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, agent.ErrUnavailable)

	svc := NewAnalysisService(stager, mAgent, noAnalytics(), zap.NewNop(), time.Minute)

	resp, err := svc.Analyze(ctx, "sess", validDetails(), validDocs())

	assert.ErrorIs(t, err, agent.ErrUnavailable)
	assert.Nil(t, resp)

	// Cleanup invariant holds on failure too.
	objs, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	ctx := context.Background()

	mStager := new(stagingMocks.MockStager)
	mStager.On("Stage", mock.Anything, mock.Anything, mock.Anything).Return([]string{"ref"}, nil)
	mStager.On("Discard", mock.Anything, mock.Anything).Return(nil)
	mAgent := new(agentMocks.MockAgent)
	mAgent.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, agent.ErrMalformedResponse)

	svc := NewAnalysisService(mStager, mAgent, noAnalytics(), zap.NewNop(), 0)

	resp, err := svc.Analyze(ctx, "sess", validDetails(), validDocs())

	assert.ErrorIs(t, err, agent.ErrMalformedResponse)
	assert.Nil(t, resp)
	mStager.AssertExpectations(t)
}

func TestAnalyzeStagingFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()

	mStager := new(stagingMocks.MockStager)
	mStager.On("Stage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("bucket unavailable"))
	mStager.On("Discard", mock.Anything, mock.Anything).Return(nil)
	mAgent := new(agentMocks.MockAgent)
	mAgent.On("Analyze", mock.Anything, validDetails(), validDocs()).
		Return(stubResponse(), nil)

	svc := NewAnalysisService(mStager, mAgent, noAnalytics(), zap.NewNop(), 0)

	resp, err := svc.Analyze(ctx, "sess", validDetails(), validDocs())

	// Best-effort staging: the result still comes back.
	require.NoError(t, err)
	assert.Equal(t, stubResponse(), resp)
	mStager.AssertExpectations(t)
	mAgent.AssertExpectations(t)
}

func TestAnalyzeDiscardFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()

	mStager := new(stagingMocks.MockStager)
	mStager.On("Stage", mock.Anything, mock.Anything, mock.Anything).Return([]string{"ref"}, nil)
	mStager.On("Discard", mock.Anything, mock.Anything).Return(errors.New("delete failed"))
	mAgent := new(agentMocks.MockAgent)
	mAgent.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
		Return(stubResponse(), nil)

	svc := NewAnalysisService(mStager, mAgent, noAnalytics(), zap.NewNop(), 0)

	resp, err := svc.Analyze(ctx, "sess", validDetails(), validDocs())

	require.NoError(t, err)
	assert.Equal(t, stubResponse(), resp)
	mStager.AssertExpectations(t)
}
