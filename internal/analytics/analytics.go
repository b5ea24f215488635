package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maximilianw-google/av-assistant/internal/config"
	"github.com/maximilianw-google/av-assistant/internal/model"
)

// Package analytics reports anonymous usage events to the GA4 Measurement
// Protocol when the operator has opted in. Reporting is strictly best
// effort: failures are logged and never surface to the user, and a disabled
// client drops every event.

const defaultEndpoint = "https://www.google-analytics.com/mp/collect"

var specialChars = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// Event is a single measurement-protocol event.
type Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

type payload struct {
	ClientID string  `json:"client_id"`
	Events   []Event `json:"events"`
}

// Client sends usage events. The zero value is a disabled client.
type Client struct {
	endpoint string
	optIn    bool
	deployID string
	http     *http.Client
	log      *zap.Logger
}

// New builds a Client from configuration. When opt-in is false or the
// credentials are missing, the client is disabled and Send becomes a no-op.
func New(cfg config.AnalyticsConfig, log *zap.Logger) *Client {
	enabled := cfg.OptIn && cfg.MeasurementID != "" && cfg.APISecret != ""
	endpoint := ""
	if enabled {
		endpoint = fmt.Sprintf("%s?measurement_id=%s&api_secret=%s",
			defaultEndpoint, url.QueryEscape(cfg.MeasurementID), url.QueryEscape(cfg.APISecret))
	}
	return &Client{
		endpoint: endpoint,
		optIn:    enabled,
		deployID: cfg.DeployID,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// Enabled reports whether events will actually be sent.
func (c *Client) Enabled() bool { return c.optIn }

// Send posts events for the given client (session) ID. Errors are logged,
// never returned.
func (c *Client) Send(ctx context.Context, clientID string, events ...Event) {
	if !c.optIn || len(events) == 0 {
		return
	}
	for i := range events {
		if events[i].Params == nil {
			events[i].Params = map[string]any{}
		}
		if c.deployID != "" {
			events[i].Params["deploy_id"] = c.deployID
		}
	}
	body, err := json.Marshal(payload{ClientID: clientID, Events: events})
	if err != nil {
		c.log.Warn("analytics payload marshal failed", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.log.Warn("analytics request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("analytics send failed", zap.Error(err))
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		c.log.Warn("analytics send rejected", zap.Int("status", resp.StatusCode))
	}
}

// AnalysisStarted builds the event emitted when an analysis run begins.
func AnalysisStarted(documentCount int) Event {
	return Event{
		Name:   "run_analysis_started",
		Params: map[string]any{"documents_count": documentCount},
	}
}

// AnalysisEnded builds the event for a completed run, carrying the overall
// status, the run duration and one parameter per analyzed aspect.
func AnalysisEnded(resp *model.AnalysisResponse, duration time.Duration) Event {
	params := map[string]any{
		"duration":       int(duration.Seconds()),
		"overall_status": string(resp.OverallStatus()),
	}
	for _, a := range resp.Aspects {
		params[paramKey(a.Name)] = string(a.Status)
	}
	return Event{Name: "run_analysis_ended", Params: params}
}

// AnalysisFailed builds the event for a failed run.
func AnalysisFailed(reason string) Event {
	return Event{
		Name:   "run_analysis_failed",
		Params: map[string]any{"error_msg": reason},
	}
}

// paramKey turns an aspect name into a measurement-protocol parameter name.
func paramKey(aspect string) string {
	clean := specialChars.ReplaceAllString(aspect, "")
	return strings.ToLower(strings.ReplaceAll(clean, " ", "_"))
}
