package agent

import (
	"context"
	"errors"

	"github.com/maximilianw-google/av-assistant/internal/model"
)

// Package agent is the boundary to the external LLM analysis component. The
// backend's only responsibilities here are building the content payload,
// requesting a JSON-shaped response and rejecting anything that violates the
// result schema. There is no retry policy: a failed call is surfaced to the
// caller, who re-submits.

var (
	// ErrMalformedResponse marks an agent response that is not valid JSON or
	// does not conform to the result schema. Never partially recovered.
	ErrMalformedResponse = errors.New("agent returned a malformed response")
	// ErrUnavailable marks transport-level failures reaching the agent.
	ErrUnavailable = errors.New("agent is unavailable")
)

// Agent analyzes a submission and returns structured findings.
type Agent interface {
	Analyze(ctx context.Context, details model.BusinessDetails, docs []model.Document) (*model.AnalysisResponse, error)
}
