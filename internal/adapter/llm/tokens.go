package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"ensemble/internal/domain"
)

// estimateEncoding is the tokenizer used when a vendor omits usage counts.
// cl100k_base is close enough for accounting across modern chat models.
const estimateEncoding = "cl100k_base"

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

func getEncoding() *tiktoken.Tiktoken {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(estimateEncoding)
		if err == nil {
			encoding = enc
		}
	})
	return encoding
}

// countTokens returns the token count of s, falling back to a bytes/4
// heuristic when the tokenizer data is unavailable.
func countTokens(s string) int {
	if enc := getEncoding(); enc != nil {
		return len(enc.Encode(s, nil, nil))
	}
	return (len(s) + 3) / 4
}

// estimateUsage approximates token usage for a completed call. The prompt
// side counts every message plus a small per-message overhead for role
// markers and separators.
func estimateUsage(req domain.ChatRequest, completion string) domain.Usage {
	prompt := 0
	for _, m := range req.Messages {
		prompt += countTokens(m.Content) + 4
	}
	out := countTokens(completion)

	return domain.Usage{
		PromptTokens:     prompt,
		CompletionTokens: out,
		TotalTokens:      prompt + out,
	}
}

// ensureUsage backfills estimated token counts on responses from vendors
// that do not report usage, keeping downstream accounting populated.
func ensureUsage(resp *domain.ChatResponse, req domain.ChatRequest) {
	if resp.Usage.TotalTokens > 0 {
		return
	}
	resp.Usage = estimateUsage(req, resp.Content)
}
