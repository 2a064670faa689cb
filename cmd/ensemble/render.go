package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"ensemble/internal/domain"
)

// prettyWordWrap is the line width for glamour-rendered output.
const prettyWordWrap = 100

// writeJSON prints the full result as indented JSON.
func writeJSON(w io.Writer, result *domain.OrchestrationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// writeText prints the result as plain markdown sections.
func writeText(w io.Writer, result *domain.OrchestrationResult) error {
	_, err := io.WriteString(w, resultMarkdown(result))
	return err
}

// writePretty renders the result with terminal styling. Rendering failures
// fall back to the plain markdown.
func writePretty(w io.Writer, result *domain.OrchestrationResult) error {
	md := resultMarkdown(result)

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(prettyWordWrap),
	)
	if err != nil {
		_, werr := io.WriteString(w, md)
		return werr
	}

	out, err := r.Render(md)
	if err != nil {
		out = md
	}
	_, err = io.WriteString(w, out)
	return err
}

// resultMarkdown lays the result out as a markdown document: the combined
// answer first, then per-model responses, then run metadata.
func resultMarkdown(result *domain.OrchestrationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s orchestration\n\n", result.Strategy)

	switch {
	case result.Synthesis != "":
		b.WriteString("## Synthesis\n\n")
		b.WriteString(result.Synthesis)
		b.WriteString("\n\n")
	case result.Consensus != "":
		b.WriteString("## Consensus\n\n")
		b.WriteString(result.Consensus)
		b.WriteString("\n\n")
	case result.Conclusion != "":
		b.WriteString("## Conclusion\n\n")
		b.WriteString(result.Conclusion)
		b.WriteString("\n\n")
	}

	if len(result.Rounds) > 0 {
		for _, round := range result.Rounds {
			fmt.Fprintf(&b, "## Round %d\n\n", round.Index+1)
			for _, resp := range round.Responses {
				fmt.Fprintf(&b, "### %s\n\n%s\n\n", resp.Model, resp.Response)
			}
		}
	} else {
		b.WriteString("## Responses\n\n")
		for _, resp := range result.Responses {
			fmt.Fprintf(&b, "### %s (%s)\n\n%s\n\n",
				resp.Model,
				time.Duration(resp.DurationMs)*time.Millisecond,
				resp.Response)
		}
	}

	models := make([]string, 0, len(result.Metadata.ModelsUsed))
	for _, m := range result.Metadata.ModelsUsed {
		models = append(models, string(m))
	}
	fmt.Fprintf(&b, "---\n\nRun %s finished in %s using %s.\n",
		result.Metadata.RunID,
		time.Duration(result.Metadata.TotalDurationMs)*time.Millisecond,
		strings.Join(models, ", "))

	return b.String()
}
