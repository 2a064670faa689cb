package usecase

import (
	"context"
	"strings"

	"ensemble/internal/domain"
)

// taskType classifies a prompt for specialist routing.
type taskType string

const (
	taskCoding       taskType = "coding"
	taskAnalysis     taskType = "analysis"
	taskCreative     taskType = "creative"
	taskMathematical taskType = "mathematical"
	taskGeneral      taskType = "general"
)

// taskKeywords is consulted in order; the first bucket with a hit wins.
var taskKeywords = []struct {
	task     taskType
	keywords []string
}{
	{taskCoding, []string{"code", "debug", "function"}},
	{taskAnalysis, []string{"analyze", "research"}},
	{taskCreative, []string{"creative", "story", "write"}},
	{taskMathematical, []string{"math", "calculate", "solve"}},
}

// specialistPreferences ranks models per task type. Selection takes the
// first preferred identifier present in the run's available set.
var specialistPreferences = map[taskType][]domain.ModelID{
	taskCoding:       {"anthropic/claude-sonnet-4-5", "openai/gpt-4o", "deepseek/deepseek-coder"},
	taskAnalysis:     {"anthropic/claude-opus-4-1", "openai/o3", "google/gemini-2.5-pro"},
	taskCreative:     {"openai/gpt-4o", "anthropic/claude-sonnet-4-5", "google/gemini-2.5-flash"},
	taskMathematical: {"openai/o3", "google/gemini-2.5-pro", "anthropic/claude-opus-4-1"},
	taskGeneral:      {"anthropic/claude-sonnet-4-5", "openai/gpt-4o-mini"},
}

// classifyTask buckets a prompt by case-insensitive keyword match.
func classifyTask(prompt string) taskType {
	lower := strings.ToLower(prompt)
	for _, bucket := range taskKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.task
			}
		}
	}
	return taskGeneral
}

// pickSpecialist returns the first preferred model for the task that is
// actually available, else the first available model.
func pickSpecialist(task taskType, available []domain.ModelID) domain.ModelID {
	for _, preferred := range specialistPreferences[task] {
		for _, m := range available {
			if m == preferred {
				return m
			}
		}
	}
	return available[0]
}

// specialist classifies the prompt, routes it to the best-suited available
// model and issues exactly one call.
func (e *Engine) specialist(ctx context.Context, r *run) (*domain.OrchestrationResult, error) {
	task := classifyTask(r.prompt)
	model := pickSpecialist(task, r.models)

	e.logger.Debug("specialist routing",
		"run_id", r.id,
		"task_type", task,
		"model", model)

	resp, err := e.call(ctx, r, model, r.prompt, r.temperature)
	if err != nil {
		return nil, domain.WrapOp("specialist", err)
	}

	return &domain.OrchestrationResult{
		Responses: []domain.ProviderResponse{*resp},
	}, nil
}
