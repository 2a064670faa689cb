package usecase

import (
	"context"
	"sort"

	"ensemble/internal/domain"
)

// mixture fans the prompt out to every model, scores each answer, and
// synthesizes the top half (rounded up) into the final response. All
// fan-out answers are returned; only the kept ones feed the synthesis.
func (e *Engine) mixture(ctx context.Context, r *run) (*domain.OrchestrationResult, error) {
	responses, err := e.fanOut(ctx, r, r.prompt)
	if err != nil {
		return nil, domain.WrapOp("mixture", err)
	}

	scored := make([]domain.ScoredResponse, len(responses))
	for i, resp := range responses {
		scored[i] = domain.ScoredResponse{
			ProviderResponse: resp,
			Score:            scoreResponse(resp.Response, r.prompt),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	keep := (len(scored) + 1) / 2

	synthesis, err := e.combineScored(ctx, r, scored[:keep])
	if err != nil {
		return nil, domain.WrapOp("mixture", err)
	}

	return &domain.OrchestrationResult{
		Responses: responses,
		Synthesis: synthesis.Response,
	}, nil
}
