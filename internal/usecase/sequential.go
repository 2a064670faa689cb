package usecase

import (
	"context"
	"fmt"

	"ensemble/internal/domain"
)

// sequential chains the models in order: each call sees the previous
// answer and refines it. Strictly one call at a time; step k+1 never starts
// before step k returns.
func (e *Engine) sequential(ctx context.Context, r *run) (*domain.OrchestrationResult, error) {
	responses := make([]domain.ProviderResponse, 0, len(r.models))
	previous := ""

	for _, model := range r.models {
		prompt := r.prompt
		if previous != "" {
			prompt = fmt.Sprintf(
				"Previous analysis:\n%s\n\nRefine and improve the analysis above as an answer to the original question: %s",
				previous, r.prompt)
		}

		resp, err := e.call(ctx, r, model, prompt, r.temperature)
		if err != nil {
			return nil, domain.WrapOp("sequential", err)
		}
		responses = append(responses, *resp)
		previous = resp.Response
	}

	return &domain.OrchestrationResult{Responses: responses}, nil
}
