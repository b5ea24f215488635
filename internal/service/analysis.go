package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maximilianw-google/av-assistant/internal/agent"
	"github.com/maximilianw-google/av-assistant/internal/analytics"
	"github.com/maximilianw-google/av-assistant/internal/model"
	"github.com/maximilianw-google/av-assistant/internal/staging"
)

var (
	ErrBusinessNameRequired    = errors.New("business name is required")
	ErrBusinessAddressRequired = errors.New("business address is required")
	ErrNoDocuments             = errors.New("at least one document is required")
)

// AnalysisService runs one synchronous analysis per call: stage the uploaded
// documents, invoke the agent, tear the staging area down whatever happened.
type AnalysisService interface {
	Analyze(ctx context.Context, sessionID string, details model.BusinessDetails, docs []model.Document) (*model.AnalysisResponse, error)
}

type analysisService struct {
	stager    staging.Stager
	agent     agent.Agent
	analytics *analytics.Client
	log       *zap.Logger
	timeout   time.Duration
}

// NewAnalysisService constructs the AnalysisService. timeout bounds the
// agent call; zero means no explicit bound beyond the request context.
func NewAnalysisService(st staging.Stager, ag agent.Agent, an *analytics.Client, log *zap.Logger, timeout time.Duration) AnalysisService {
	return &analysisService{stager: st, agent: ag, analytics: an, log: log, timeout: timeout}
}

func (s *analysisService) Analyze(ctx context.Context, sessionID string, details model.BusinessDetails, docs []model.Document) (*model.AnalysisResponse, error) {
	if details.BusinessName == "" {
		return nil, ErrBusinessNameRequired
	}
	if details.BusinessAddress == "" {
		return nil, ErrBusinessAddressRequired
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	s.track(ctx, sessionID, analytics.AnalysisStarted(len(docs)))

	// Request-scoped staging prefix; no cross-request contention.
	prefix := path.Join("runs", uuid.NewString())

	refs, err := s.stager.Stage(ctx, prefix, docs)
	if err != nil {
		// Staging is best effort: the bytes are already in memory, so a
		// storage failure must not block the analysis.
		s.log.Warn("staging failed, continuing with in-memory documents",
			zap.String("prefix", prefix), zap.Error(err))
	} else {
		s.log.Info("documents staged",
			zap.String("prefix", prefix), zap.Int("count", len(refs)))
	}
	defer func() {
		// Unconditional cleanup, whether the agent call succeeded or not.
		// The request context may already be canceled by the time we get
		// here; the bucket lifecycle rule covers anything this misses.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := s.stager.Discard(cleanupCtx, prefix); err != nil {
			s.log.Warn("staging cleanup failed",
				zap.String("prefix", prefix), zap.Error(err))
		}
	}()

	agentCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		agentCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.agent.Analyze(agentCtx, details, docs)
	if err != nil {
		// Detail stays server-side; the caller gets a generic failure.
		s.log.Error("agent analysis failed",
			zap.String("session_id", sessionID), zap.Error(err))
		s.track(ctx, sessionID, analytics.AnalysisFailed(errorReason(err)))
		return nil, fmt.Errorf("analyze: %w", err)
	}
	duration := time.Since(start)

	s.log.Info("analysis finished",
		zap.String("session_id", sessionID),
		zap.Duration("duration", duration),
		zap.String("overall_status", string(resp.OverallStatus())))
	s.track(ctx, sessionID, analytics.AnalysisEnded(resp, duration))

	return resp, nil
}

// track dispatches an analytics event off the request path. Events are
// advisory; an analysis must never wait on the measurement endpoint.
func (s *analysisService) track(ctx context.Context, sessionID string, ev analytics.Event) {
	go s.analytics.Send(context.WithoutCancel(ctx), sessionID, ev)
}

// errorReason collapses agent errors to a coarse label for analytics; the
// full error never leaves the server logs.
func errorReason(err error) string {
	switch {
	case errors.Is(err, agent.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, agent.ErrUnavailable):
		return "agent_unavailable"
	default:
		return "unknown"
	}
}
