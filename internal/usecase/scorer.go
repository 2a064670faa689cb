package usecase

import "strings"

// Scoring weights. The arithmetic is deliberately simple and deterministic
// so strategy tests can assert exact values; it ranks responses relative to
// each other within one run and claims nothing more.
const (
	scoreBase         = 50
	scoreLengthBonus  = 10
	scoreStructBonus  = 10
	scoreRelevanceHit = 5
	scoreRelevanceCap = 20
	scoreMarkerBonus  = 10
	scoreMax          = 100

	scoreMinWords = 100
	scoreMaxWords = 1000
)

// completionMarkers signal that a response wraps up rather than trailing off.
var completionMarkers = []string{"in conclusion", "summary", "therefore"}

// scoreResponse rates a response against the prompt that produced it. Pure
// and deterministic: base 50, plus bonuses for length, paragraph structure,
// prompt-term overlap and a closing marker, clamped to 100.
func scoreResponse(response, prompt string) int {
	score := scoreBase

	if n := len(strings.Fields(response)); n > scoreMinWords && n < scoreMaxWords {
		score += scoreLengthBonus
	}

	if strings.Contains(response, "\n\n") {
		score += scoreStructBonus
	}

	lower := strings.ToLower(response)

	relevance := 0
	for _, word := range strings.Fields(strings.ToLower(prompt)) {
		if len(word) <= 3 {
			continue
		}
		if strings.Contains(lower, word) {
			relevance += scoreRelevanceHit
			if relevance >= scoreRelevanceCap {
				relevance = scoreRelevanceCap
				break
			}
		}
	}
	score += relevance

	for _, marker := range completionMarkers {
		if strings.Contains(lower, marker) {
			score += scoreMarkerBonus
			break
		}
	}

	if score > scoreMax {
		score = scoreMax
	}
	return score
}
