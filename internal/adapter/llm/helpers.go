package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"ensemble/internal/domain"
	"ensemble/internal/infra/tracer"
)

// maxResponseBytes caps how much of a provider response body is read.
const maxResponseBytes = 10 * 1024 * 1024

// doJSONRequest marshals payload, POSTs it with the given headers, and
// returns the raw response body. Non-200 statuses are mapped onto domain
// sentinels via mapHTTPError.
func doJSONRequest(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(httpResp.StatusCode, respBody)
	}

	return respBody, nil
}

// mapHTTPError converts a non-200 provider status into a domain sentinel.
// The response body is included verbatim so operators see the vendor's own
// description of the failure.
func mapHTTPError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: API error %d: %s", domain.ErrModelNotFound, status, msg)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: API error %d: %s", domain.ErrRateLimited, status, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: API error %d: %s", domain.ErrAuthInvalid, status, msg)
	case status == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: API error %d: %s", domain.ErrContextOverflow, status, msg)
	case status == http.StatusBadRequest:
		return mapBadRequest(msg)
	case status >= 500:
		return fmt.Errorf("%w: API error %d: %s", domain.ErrProviderTransient, status, msg)
	default:
		return fmt.Errorf("API error %d: %s", status, msg)
	}
}

// mapBadRequest picks apart 400 responses. Vendors reuse the status for
// unknown models (Gemini), oversized prompts (Anthropic), and genuinely
// malformed input, so the body text decides the sentinel.
func mapBadRequest(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not found") ||
		strings.Contains(lower, "not_found") ||
		strings.Contains(lower, "does not exist") ||
		strings.Contains(lower, "unknown model"):
		return fmt.Errorf("%w: API error 400: %s", domain.ErrModelNotFound, msg)
	case strings.Contains(lower, "context length") ||
		strings.Contains(lower, "context window") ||
		strings.Contains(lower, "too many tokens") ||
		strings.Contains(lower, "prompt is too long"):
		return fmt.Errorf("%w: API error 400: %s", domain.ErrContextOverflow, msg)
	default:
		return fmt.Errorf("%w: API error 400: %s", domain.ErrInvalidRequest, msg)
	}
}

// setUsageAttrs records token usage on the span.
func setUsageAttrs(span trace.Span, usage domain.Usage) {
	span.SetAttributes(
		tracer.IntAttr("llm.usage.prompt_tokens", usage.PromptTokens),
		tracer.IntAttr("llm.usage.completion_tokens", usage.CompletionTokens),
		tracer.IntAttr("llm.usage.total_tokens", usage.TotalTokens),
	)
}

// logChatCompleted emits the per-call debug line shared by all providers.
func logChatCompleted(logger *slog.Logger, provider string, resp *domain.ChatResponse) {
	logger.Debug("chat completed",
		"provider", provider,
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"content_len", len(resp.Content),
	)
}
