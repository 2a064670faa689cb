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
var _ domain.LLMProvider = (*OpenAIProvider)(nil)

// OpenAIProvider implements domain.LLMProvider for the OpenAI chat
// completions API. OpenAI-compatible backends (DeepSeek, Ollama,
// OpenRouter) reuse it with their own base URLs.
type OpenAIProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// --- OpenAI wire types ---

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Created int64          `json:"created"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

// NewOpenAIProvider creates a provider for the OpenAI API.
func NewOpenAIProvider(cfg config.ProviderConfig, logger *slog.Logger) *OpenAIProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		name:    cfg.Vendor,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  NewHTTPClient(cfg),
		logger:  logger,
	}
}

// Chat implements domain.LLMProvider.
func (p *OpenAIProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
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

	body, err := doJSONRequest(ctx, p.client, p.baseURL+"/chat/completions", p.headers(), toOpenAIRequest(req))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var openaiResp openaiResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		err = fmt.Errorf("unmarshal response: %w", err)
		tracer.RecordError(span, err)
		return nil, err
	}
	if len(openaiResp.Choices) == 0 {
		err := fmt.Errorf("%w: response contained no choices", domain.ErrEmptyCompletion)
		tracer.RecordError(span, err)
		return nil, err
	}

	resp := fromOpenAIResponse(&openaiResp)
	setUsageAttrs(span, resp.Usage)
	tracer.SetOK(span)
	logChatCompleted(p.logger, p.name, resp)

	return resp, nil
}

// Name implements domain.LLMProvider.
func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) headers() map[string]string {
	if p.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

func toOpenAIRequest(req domain.ChatRequest) openaiRequest {
	out := openaiRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	}

	// Omit temperature when unset so the vendor default applies.
	if req.Temperature > 0 {
		t := req.Temperature
		out.Temperature = &t
	}

	for _, m := range req.Messages {
		out.Messages = append(out.Messages, openaiMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func fromOpenAIResponse(in *openaiResponse) *domain.ChatResponse {
	created := time.Now()
	if in.Created > 0 {
		created = time.Unix(in.Created, 0)
	}

	return &domain.ChatResponse{
		ID:      in.ID,
		Model:   in.Model,
		Content: in.Choices[0].Message.Content,
		Usage: domain.Usage{
			PromptTokens:     in.Usage.PromptTokens,
			CompletionTokens: in.Usage.CompletionTokens,
			TotalTokens:      in.Usage.TotalTokens,
		},
		CreatedAt: created,
	}
}
