package usecase

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"ensemble/internal/domain"
)

// --- Mocks ---

// fakeProvider records every request and answers via an optional reply
// function. Without one it echoes the wire-level model name.
type fakeProvider struct {
	vendor string
	reply  func(req domain.ChatRequest) (*domain.ChatResponse, error)

	mu    sync.Mutex
	calls []domain.ChatRequest
}

func (p *fakeProvider) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	reply := p.reply
	p.mu.Unlock()

	if reply != nil {
		return reply(req)
	}
	return &domain.ChatResponse{Model: req.Model, Content: "answer from " + req.Model}, nil
}

func (p *fakeProvider) Name() string { return p.vendor }

func (p *fakeProvider) requests() []domain.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ChatRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeRegistry map[domain.Vendor]domain.LLMProvider

func (r fakeRegistry) Provider(v domain.Vendor) (domain.LLMProvider, error) {
	p, ok := r[v]
	if !ok {
		return nil, domain.NewOrchestrationError("registry", domain.ErrProviderUnavailable, string(v))
	}
	return p, nil
}

func (r fakeRegistry) Vendors() []domain.Vendor {
	out := make([]domain.Vendor, 0, len(r))
	for v := range r {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, reg domain.ProviderRegistry, fallbacks map[domain.ModelID]domain.ModelID, cfg Config) *Engine {
	t.Helper()
	logger := testLogger()
	return NewEngine(NewModelRouter(reg, fallbacks, logger), cfg, logger)
}

// lastContent returns the content of the final message of a request, which
// is the prompt the engine built for that call.
func lastContent(req domain.ChatRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}
