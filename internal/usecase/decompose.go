package usecase

import (
	"strings"
	"unicode"
)

// parseNumberedItems extracts the items of a numbered list from model
// output. A line contributes an item when, after trimming leading space, it
// starts with one or more digits followed by a period, as in
// "2. Define the schema". Surrounding prose is ignored. An empty result is
// valid; callers decide whether a plan with no parsed steps is an error.
func parseNumberedItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !unicode.IsDigit(rune(trimmed[0])) {
			continue
		}
		rest := strings.TrimLeft(trimmed, "0123456789")
		if !strings.HasPrefix(rest, ".") {
			continue
		}
		if item := strings.TrimSpace(rest[1:]); item != "" {
			items = append(items, item)
		}
	}
	return items
}
