package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
	"ensemble/internal/infra/tracer"
)

// Compile-time interface assertion.
var _ domain.LLMProvider = (*AnthropicProvider)(nil)

const (
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 4096
)

// AnthropicProvider implements domain.LLMProvider for the Anthropic
// Messages API.
type AnthropicProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// --- Anthropic wire types ---

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Thinking    *anthropicThinking `json:"thinking,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Content []anthropicContent `json:"content"`
	Usage   anthropicUsage     `json:"usage"`
}

// NewAnthropicProvider creates a provider for the Anthropic API.
func NewAnthropicProvider(cfg config.ProviderConfig, logger *slog.Logger) *AnthropicProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	return &AnthropicProvider{
		name:    cfg.Vendor,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  NewHTTPClient(cfg),
		logger:  logger,
	}
}

// Chat implements domain.LLMProvider.
func (p *AnthropicProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.chat",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	if req.Model == "" {
		req.Model = p.model
	}

	body, err := doJSONRequest(ctx, p.client, p.baseURL+"/messages", p.headers(), toAnthropicRequest(req))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var antResp anthropicResponse
	if err := json.Unmarshal(body, &antResp); err != nil {
		err = fmt.Errorf("unmarshal response: %w", err)
		tracer.RecordError(span, err)
		return nil, err
	}

	resp := fromAnthropicResponse(&antResp)
	setUsageAttrs(span, resp.Usage)
	tracer.SetOK(span)
	logChatCompleted(p.logger, p.name, resp)

	return resp, nil
}

// Name implements domain.LLMProvider.
func (p *AnthropicProvider) Name() string { return p.name }

func (p *AnthropicProvider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

func toAnthropicRequest(req domain.ChatRequest) anthropicRequest {
	antReq := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	}

	if antReq.MaxTokens <= 0 {
		antReq.MaxTokens = anthropicDefaultMaxTokens
	}

	// Extended thinking. The API requires max_tokens to exceed the budget
	// and rejects explicit temperatures alongside thinking, so temperature
	// stays unset in that case.
	if req.ThinkingBudget > 0 {
		antReq.Thinking = &anthropicThinking{
			Type:         "enabled",
			BudgetTokens: req.ThinkingBudget,
		}
		if antReq.MaxTokens <= req.ThinkingBudget {
			antReq.MaxTokens = req.ThinkingBudget + anthropicDefaultMaxTokens
		}
	} else if req.Temperature > 0 {
		t := req.Temperature
		antReq.Temperature = &t
	}

	// System prompts travel in a dedicated field.
	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			antReq.System = m.Content
			continue
		}
		antReq.Messages = append(antReq.Messages, anthropicMessage{
			Role:    m.Role,
			Content: []anthropicContent{{Type: "text", Text: m.Content}},
		})
	}

	return antReq
}

func fromAnthropicResponse(in *anthropicResponse) *domain.ChatResponse {
	// Thinking blocks precede text blocks; only text becomes the answer.
	var sb strings.Builder
	for _, block := range in.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &domain.ChatResponse{
		ID:      in.ID,
		Model:   in.Model,
		Content: sb.String(),
		Usage: domain.Usage{
			PromptTokens:     in.Usage.InputTokens,
			CompletionTokens: in.Usage.OutputTokens,
			TotalTokens:      in.Usage.InputTokens + in.Usage.OutputTokens,
		},
		CreatedAt: time.Now(),
	}
}
