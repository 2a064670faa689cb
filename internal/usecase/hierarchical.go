package usecase

import (
	"context"
	"fmt"
	"strings"

	"ensemble/internal/domain"
)

// hierarchical asks the lead model to break the prompt into numbered
// sub-problems, solves them concurrently with a round-robin model
// assignment, and merges the solutions with one synthesis call. A
// decomposition that yields no parseable items is not an error: the
// decomposition answer itself is returned as the only response.
func (e *Engine) hierarchical(ctx context.Context, r *run) (*domain.OrchestrationResult, error) {
	lead := r.models[0]

	decomposition, err := e.call(ctx, r, lead, decompositionPrompt(r.prompt), r.temperature)
	if err != nil {
		return nil, domain.WrapOp("hierarchical", err)
	}

	subProblems := parseNumberedItems(decomposition.Response)
	if len(subProblems) == 0 {
		e.logger.Warn("decomposition yielded no numbered sub-problems, returning it unsplit",
			"run_id", r.id,
			"model", decomposition.Model)
		return &domain.OrchestrationResult{
			Responses: []domain.ProviderResponse{*decomposition},
		}, nil
	}

	tasks := make([]callTask, len(subProblems))
	for i, sub := range subProblems {
		model := r.models[i%len(r.models)]
		prompt := fmt.Sprintf("As part of answering %q, solve this sub-problem:\n\n%s", r.prompt, sub)
		tasks[i] = func(ctx context.Context) (*domain.ProviderResponse, error) {
			return e.call(ctx, r, model, prompt, r.temperature)
		}
	}
	out, err := e.dispatcher.runCalls(ctx, tasks)
	if err != nil {
		return nil, domain.WrapOp("hierarchical", err)
	}
	solutions := make([]domain.ProviderResponse, len(out))
	for i, p := range out {
		solutions[i] = *p
	}

	merged, err := e.call(ctx, r, lead, hierarchicalSynthesisPrompt(r.prompt, subProblems, solutions), r.synthesisTemperature)
	if err != nil {
		return nil, domain.WrapOp("hierarchical", err)
	}

	return &domain.OrchestrationResult{
		Responses: solutions,
		Synthesis: merged.Response,
	}, nil
}

func decompositionPrompt(prompt string) string {
	return fmt.Sprintf(
		"Break the following problem into 3-5 numbered sub-problems, one per line, each formatted like \"1. ...\":\n\n%s",
		prompt)
}

// hierarchicalSynthesisPrompt pairs every sub-problem with the solution it
// received so the merge call sees the full decomposition.
func hierarchicalSynthesisPrompt(prompt string, subProblems []string, solutions []domain.ProviderResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original problem: %s\n\n", prompt)
	b.WriteString("It was split into sub-problems and solved piecewise:\n\n")
	for i, sub := range subProblems {
		fmt.Fprintf(&b, "Sub-problem %d: %s\nSolution (%s):\n%s\n\n",
			i+1, sub, solutions[i].Model, solutions[i].Response)
	}
	b.WriteString("Combine these solutions into one coherent answer to the original problem.")
	return b.String()
}
