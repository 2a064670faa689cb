package usecase

import (
	"context"

	"ensemble/internal/domain"
)

// parallel fans the unmodified prompt out to every model through the
// bounded dispatcher. When the request asks for reasoning, the answers are
// additionally merged into a synthesis.
func (e *Engine) parallel(ctx context.Context, r *run) (*domain.OrchestrationResult, error) {
	responses, err := e.fanOut(ctx, r, r.prompt)
	if err != nil {
		return nil, domain.WrapOp("parallel", err)
	}

	result := &domain.OrchestrationResult{Responses: responses}

	if r.opts.IncludeReasoning {
		synthesis, err := e.combine(ctx, r, responses)
		if err != nil {
			return nil, domain.WrapOp("parallel", err)
		}
		result.Synthesis = synthesis.Response
	}

	return result, nil
}
