package usecase

import (
	"context"
	"fmt"
	"strings"

	"ensemble/internal/domain"
)

// debateTranscriptLimit caps how much of each peer answer is quoted back to
// the participants in later rounds. Kept at 200 characters for behavior
// parity across releases; tests pin it.
const debateTranscriptLimit = 200

// debate runs a fixed number of rounds. Round 0 is answered independently;
// in every later round each model sees the current topic plus a truncated
// transcript of the other participants' previous answers. The topic is
// re-derived from each round's disagreements, except after the last round,
// which instead feeds the closing conclusion. All calls are sequential by
// construction and never enter the dispatcher pool.
func (e *Engine) debate(ctx context.Context, r *run) (*domain.OrchestrationResult, error) {
	lead := r.models[0]
	topic := r.prompt
	rounds := make([]domain.Round, 0, r.opts.MaxRounds)

	for round := 0; round < r.opts.MaxRounds; round++ {
		responses := make([]domain.ProviderResponse, 0, len(r.models))

		for seat, model := range r.models {
			prompt := topic
			if round > 0 {
				prompt = debatePrompt(topic, seat, rounds[round-1].Responses)
			}
			resp, err := e.call(ctx, r, model, prompt, r.temperature)
			if err != nil {
				return nil, domain.WrapOp("debate", err)
			}
			responses = append(responses, *resp)
		}

		rounds = append(rounds, domain.Round{Index: round, Responses: responses})

		if round < r.opts.MaxRounds-1 {
			next, err := e.call(ctx, r, lead, refineTopicPrompt(round, responses), r.temperature)
			if err != nil {
				return nil, domain.WrapOp("debate", err)
			}
			topic = next.Response
		}
	}

	final := rounds[len(rounds)-1].Responses
	conclusion, err := e.call(ctx, r, lead, conclusionPrompt(r.prompt, len(rounds), final), r.temperature)
	if err != nil {
		return nil, domain.WrapOp("debate", err)
	}

	return &domain.OrchestrationResult{
		Responses:  final,
		Conclusion: conclusion.Response,
		Rounds:     rounds,
	}, nil
}

// debatePrompt quotes the other seats' previous answers, truncated, under
// the current topic. A model never sees its own previous answer quoted.
func debatePrompt(topic string, seat int, previous []domain.ProviderResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debate topic: %s\n\n", topic)
	b.WriteString("Other participants argued in the previous round:\n")
	for i, resp := range previous {
		if i == seat {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", resp.Model, truncateString(resp.Response, debateTranscriptLimit))
	}
	b.WriteString("\nRespond in 3-4 sentences, directly addressing the points raised.")
	return b.String()
}

func refineTopicPrompt(round int, responses []domain.ProviderResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These are the full responses from round %d of a debate:\n\n", round+1)
	for _, resp := range responses {
		fmt.Fprintf(&b, "%s:\n%s\n\n", resp.Model, resp.Response)
	}
	b.WriteString("Identify the key disagreements and open questions, then state a refined debate topic for the next round.")
	return b.String()
}

func conclusionPrompt(original string, roundCount int, final []domain.ProviderResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "After %d rounds of debate on %q, these are the final perspectives:\n\n", roundCount, original)
	for _, resp := range final {
		fmt.Fprintf(&b, "%s:\n%s\n\n", resp.Model, resp.Response)
	}
	b.WriteString("Weigh the perspectives from the previous rounds and provide a balanced concluding answer.")
	return b.String()
}
