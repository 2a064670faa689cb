package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"ensemble/internal/domain"
	"ensemble/internal/infra/tracer"
)

// Engine defaults, overridable through Config.
const (
	defaultMaxRounds      = 3
	defaultThinkingBudget = 1024
)

// Config carries every tunable the engine needs. The engine never consults
// the environment; composition roots load configuration and pass it here.
type Config struct {
	// DefaultModels answer requests that name no models of their own.
	DefaultModels []domain.ModelID
	// MaxConcurrent bounds fan-out calls in flight at once (default 5).
	MaxConcurrent int
	// MaxRounds bounds debate iterations when a request does not set its
	// own (default 3).
	MaxRounds int
	// Temperature for regular model calls; zero leaves the provider
	// default in place.
	Temperature float64
	// SynthesisTemperature for merge/analysis calls (default 0.3).
	SynthesisTemperature float64
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = defaultMaxRounds
	}
	if c.SynthesisTemperature == 0 {
		c.SynthesisTemperature = defaultSynthesisTemperature
	}
	return c
}

// Engine executes orchestration strategies over a fixed provider registry.
// Stateless across calls: everything a run touches is created in
// Orchestrate and discarded at return.
type Engine struct {
	router     *ModelRouter
	dispatcher *dispatcher
	cfg        Config
	logger     *slog.Logger
}

// NewEngine builds the engine. The router is the only collaborator; all
// model traffic flows through it.
func NewEngine(router *ModelRouter, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		router:     router,
		dispatcher: newDispatcher(cfg.MaxConcurrent, logger),
		cfg:        cfg,
		logger:     logger,
	}
}

var _ domain.Orchestrator = (*Engine)(nil)

// Orchestrate validates the request, selects default models when none are
// given and executes the requested strategy. Unknown strategies fail before
// any model is called.
func (e *Engine) Orchestrate(ctx context.Context, req domain.OrchestrationRequest) (*domain.OrchestrationResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.NewOrchestrationError("orchestrate", domain.ErrInvalidRequest, "empty prompt")
	}

	models := req.Models
	if len(models) == 0 {
		models = e.cfg.DefaultModels
	}
	if len(models) == 0 {
		return nil, domain.NewOrchestrationError("orchestrate", domain.ErrInvalidRequest, "no models requested and no defaults configured")
	}

	r := newRun(req, models, e.cfg)

	ctx, span := tracer.StartSpan(ctx, "engine.orchestrate", trace.WithAttributes(
		tracer.StringAttr("orchestration.run_id", r.id),
		tracer.StringAttr("orchestration.strategy", string(req.Strategy)),
		tracer.IntAttr("orchestration.models", len(models)),
	))
	defer span.End()

	e.logger.Info("orchestration started",
		"run_id", r.id,
		"strategy", req.Strategy,
		"models", len(models))

	start := time.Now()

	var (
		result *domain.OrchestrationResult
		err    error
	)
	switch req.Strategy {
	case domain.StrategySequential:
		result, err = e.sequential(ctx, r)
	case domain.StrategyParallel:
		result, err = e.parallel(ctx, r)
	case domain.StrategyDebate:
		result, err = e.debate(ctx, r)
	case domain.StrategyConsensus:
		result, err = e.consensus(ctx, r)
	case domain.StrategySpecialist:
		result, err = e.specialist(ctx, r)
	case domain.StrategyHierarchical:
		result, err = e.hierarchical(ctx, r)
	case domain.StrategyMixture:
		result, err = e.mixture(ctx, r)
	default:
		err = domain.NewOrchestrationError("orchestrate", domain.ErrUnknownStrategy, string(req.Strategy))
	}
	if err != nil {
		tracer.RecordError(span, err)
		e.logger.Error("orchestration failed",
			"run_id", r.id,
			"strategy", req.Strategy,
			"error", err)
		return nil, err
	}

	result.Strategy = req.Strategy
	result.Metadata = domain.Metadata{
		RunID:           r.id,
		TotalDurationMs: time.Since(start).Milliseconds(),
		ModelsUsed:      r.used(),
	}
	tracer.SetOK(span)

	e.logger.Info("orchestration completed",
		"run_id", r.id,
		"strategy", req.Strategy,
		"duration_ms", result.Metadata.TotalDurationMs,
		"models_used", len(result.Metadata.ModelsUsed))

	return result, nil
}

// run is the call-scoped state of one orchestration: resolved options plus
// the set of model identifiers actually dispatched. Safe for use from
// concurrent fan-out tasks.
type run struct {
	id                   string
	prompt               string
	history              []domain.Message
	models               []domain.ModelID
	opts                 domain.OrchestrationOptions
	temperature          float64
	synthesisTemperature float64

	mu    sync.Mutex
	seen  map[domain.ModelID]struct{}
	order []domain.ModelID
}

func newRun(req domain.OrchestrationRequest, models []domain.ModelID, cfg Config) *run {
	opts := req.Options
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = cfg.MaxRounds
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = cfg.Temperature
	}
	synthesis := opts.Temperature
	if synthesis == 0 {
		synthesis = cfg.SynthesisTemperature
	}

	return &run{
		id:                   generateULID(time.Now()),
		prompt:               req.Prompt,
		history:              req.Context,
		models:               models,
		opts:                 opts,
		temperature:          temperature,
		synthesisTemperature: synthesis,
		seen:                 make(map[domain.ModelID]struct{}),
	}
}

// record registers the identifier that produced a response, keeping
// first-use order and dropping duplicates.
func (r *run) record(model domain.ModelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[model]; ok {
		return
	}
	r.seen[model] = struct{}{}
	r.order = append(r.order, model)
}

// used returns the distinct identifiers dispatched so far, in first-use
// order. The slice is a copy.
func (r *run) used() []domain.ModelID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ModelID, len(r.order))
	copy(out, r.order)
	return out
}

// thinkingEnabled reports whether extended thinking applies to a model:
// requested on the run and either unrestricted or listing this identifier.
func (r *run) thinkingEnabled(model domain.ModelID) bool {
	if !r.opts.UseThinking {
		return false
	}
	if len(r.opts.ThinkingTokens) == 0 {
		return true
	}
	for _, t := range r.opts.ThinkingTokens {
		if t == string(model) {
			return true
		}
	}
	return false
}

// call performs one logical model call. Conversation history, thinking
// options, the router's fallback policy and usage recording all apply here,
// so strategies never talk to the router directly.
func (e *Engine) call(ctx context.Context, r *run, model domain.ModelID, prompt string, temperature float64) (*domain.ProviderResponse, error) {
	messages := make([]domain.Message, 0, len(r.history)+1)
	messages = append(messages, r.history...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: prompt})

	req := domain.ChatRequest{
		Messages:    messages,
		Temperature: temperature,
	}
	if r.thinkingEnabled(model) {
		req.ThinkingBudget = defaultThinkingBudget
	}

	resp, err := e.router.Call(ctx, model, req)
	if err != nil {
		return nil, err
	}
	r.record(resp.Model)
	return resp, nil
}

// fanOut queries every run model concurrently with the same prompt through
// the bounded dispatcher. Result order matches r.models.
func (e *Engine) fanOut(ctx context.Context, r *run, prompt string) ([]domain.ProviderResponse, error) {
	tasks := make([]callTask, len(r.models))
	for i, m := range r.models {
		model := m
		tasks[i] = func(ctx context.Context) (*domain.ProviderResponse, error) {
			return e.call(ctx, r, model, prompt, r.temperature)
		}
	}
	out, err := e.dispatcher.runCalls(ctx, tasks)
	if err != nil {
		return nil, err
	}
	responses := make([]domain.ProviderResponse, len(out))
	for i, p := range out {
		responses[i] = *p
	}
	return responses, nil
}

func generateULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
