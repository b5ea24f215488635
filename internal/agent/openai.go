package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/maximilianw-google/av-assistant/internal/config"
	"github.com/maximilianw-google/av-assistant/internal/model"
)

const maxTokens = 4096

// OpenAIAgent implements Agent against any OpenAI-protocol endpoint. In
// managed-credential mode BaseURL points at the platform's compatibility
// endpoint and the injected credential replaces the API key.
type OpenAIAgent struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds the agent client from configuration.
func NewOpenAI(cfg config.AgentConfig) (*OpenAIAgent, error) {
	if cfg.APIKey == "" && !cfg.ManagedCredentials {
		return nil, fmt.Errorf("agent api key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIAgent{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// wireResponse mirrors the JSON object the system prompt asks for. Statuses
// arrive as RYG color names and are normalized before validation.
type wireResponse struct {
	Summary string `json:"summary"`
	Aspects []struct {
		Name          string     `json:"name"`
		Status        string     `json:"status"`
		Justification string     `json:"justification"`
		Evidence      stringList `json:"evidence"`
	} `json:"aspects"`
}

// stringList accepts either a JSON array of strings or a bare string;
// models occasionally collapse single-element evidence lists.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single != "" {
		*l = []string{single}
	}
	return nil
}

// Analyze sends one chat completion request embedding the business details
// and every document, and parses the structured result. Any transport
// failure maps to ErrUnavailable, any schema violation to
// ErrMalformedResponse.
func (a *OpenAIAgent) Analyze(ctx context.Context, details model.BusinessDetails, docs []model.Document) (*model.AnalysisResponse, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal business details: %w", err)
	}

	parts := make([]openai.ChatMessagePart, 0, 2*len(docs)+1)
	for _, doc := range docs {
		parts = append(parts, documentParts(doc)...)
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: businessDetailsNote(detailsJSON),
	})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return ParseResponse([]byte(resp.Choices[0].Message.Content))
}

// ParseResponse decodes and validates an agent response body.
func ParseResponse(raw []byte) (*model.AnalysisResponse, error) {
	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := &model.AnalysisResponse{Summary: wire.Summary}
	for _, a := range wire.Aspects {
		status, err := model.ParseAspectStatus(a.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: aspect %q: %v", ErrMalformedResponse, a.Name, err)
		}
		out.Aspects = append(out.Aspects, model.AspectAnalysis{
			Name:          a.Name,
			Status:        status,
			Justification: a.Justification,
			Evidence:      a.Evidence,
		})
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}
