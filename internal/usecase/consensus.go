package usecase

import (
	"context"
	"fmt"
	"strings"

	"ensemble/internal/domain"
)

// consensus fans the prompt out to every model, has the lead model analyze
// the answers for agreements and disagreements, then asks the same model to
// state the consensus position.
func (e *Engine) consensus(ctx context.Context, r *run) (*domain.OrchestrationResult, error) {
	responses, err := e.fanOut(ctx, r, r.prompt)
	if err != nil {
		return nil, domain.WrapOp("consensus", err)
	}

	lead := r.models[0]

	analysis, err := e.call(ctx, r, lead, consensusAnalysisPrompt(r.prompt, responses), r.synthesisTemperature)
	if err != nil {
		return nil, domain.WrapOp("consensus", err)
	}

	verdict, err := e.call(ctx, r, lead, consensusVerdictPrompt(r.prompt, analysis.Response), r.synthesisTemperature)
	if err != nil {
		return nil, domain.WrapOp("consensus", err)
	}

	return &domain.OrchestrationResult{
		Responses: responses,
		Consensus: verdict.Response,
	}, nil
}

func consensusAnalysisPrompt(prompt string, responses []domain.ProviderResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", prompt)
	fmt.Fprintf(&b, "%d models answered independently:\n\n", len(responses))
	for _, resp := range responses {
		fmt.Fprintf(&b, "%s:\n%s\n\n", resp.Model, resp.Response)
	}
	b.WriteString("Identify the agreements, disagreements, and unique insights across these answers.")
	return b.String()
}

func consensusVerdictPrompt(prompt, analysis string) string {
	return fmt.Sprintf(
		"Based on this analysis of several independent answers:\n\n%s\n\nProduce a single consensus answer to the original question: %s",
		analysis, prompt)
}
