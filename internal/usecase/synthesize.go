package usecase

import (
	"context"
	"fmt"
	"strings"

	"ensemble/internal/domain"
)

// defaultSynthesisTemperature keeps merge calls conservative so the
// synthesis model reconciles the answers instead of re-inventing them.
const defaultSynthesisTemperature = 0.3

// combine merges prior responses into one answer with a single call to the
// run's lead model at the synthesis temperature.
func (e *Engine) combine(ctx context.Context, r *run, responses []domain.ProviderResponse) (*domain.ProviderResponse, error) {
	prompt := buildSynthesisPrompt(r.prompt, responses)
	return e.call(ctx, r, r.models[0], prompt, r.synthesisTemperature)
}

// combineScored is combine for ranked responses: each entry carries the
// score it earned so the model can weigh stronger answers more heavily.
func (e *Engine) combineScored(ctx context.Context, r *run, scored []domain.ScoredResponse) (*domain.ProviderResponse, error) {
	prompt := buildScoredSynthesisPrompt(r.prompt, scored)
	return e.call(ctx, r, r.models[0], prompt, r.synthesisTemperature)
}

func buildSynthesisPrompt(prompt string, responses []domain.ProviderResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original question: %s\n\n", prompt)
	b.WriteString("The following answers were produced independently:\n\n")
	for i, r := range responses {
		fmt.Fprintf(&b, "Answer %d (%s):\n%s\n\n", i+1, r.Model, r.Response)
	}
	b.WriteString("Synthesize these answers into a single comprehensive response " +
		"to the original question. Merge the strongest points and resolve any contradictions.")
	return b.String()
}

func buildScoredSynthesisPrompt(prompt string, scored []domain.ScoredResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original question: %s\n\n", prompt)
	b.WriteString("The following answers were ranked by a quality heuristic:\n\n")
	for i, r := range scored {
		fmt.Fprintf(&b, "Answer %d (%s, score %d/100):\n%s\n\n", i+1, r.Model, r.Score, r.Response)
	}
	b.WriteString("Synthesize these answers into a single comprehensive response " +
		"to the original question, giving more weight to higher-scored answers.")
	return b.String()
}
