package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/daybrief/internal/core"
	"github.com/agenthands/daybrief/internal/core/model"
)

const defaultPreamble = `You are the editor of a daily news digest. Write a markdown
narrative from the material below. Use one "## <category>" section per
non-empty category, keep the ranked order, and close with a "## deep dive"
section expanding the designated topic. Report only what the material
supports.`

// DigestSummarizer renders a DigestRequest into a prompt and asks the
// provider client for the draft narrative. It implements core.Summarizer.
type DigestSummarizer struct {
	Client   Client
	Preamble string
}

func NewDigestSummarizer(client Client, preamble string) *DigestSummarizer {
	if preamble == "" {
		preamble = defaultPreamble
	}
	return &DigestSummarizer{Client: client, Preamble: preamble}
}

func (s *DigestSummarizer) Summarize(ctx context.Context, req core.DigestRequest) (string, error) {
	draft, err := s.Client.Generate(ctx, s.buildPrompt(req))
	if err != nil {
		return "", fmt.Errorf("generate digest narrative: %w", err)
	}
	if strings.TrimSpace(draft) == "" {
		return "", fmt.Errorf("empty narrative from provider")
	}
	return draft, nil
}

func (s *DigestSummarizer) buildPrompt(req core.DigestRequest) string {
	var b strings.Builder
	b.WriteString(s.Preamble)
	fmt.Fprintf(&b, "\n\nRun date: %s\n", req.Date.Format("2006-01-02"))

	for _, cat := range model.Categories() {
		records := req.Categories[cat]
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n<%s>\n", cat)
		for i, rec := range records {
			fmt.Fprintf(&b, "%d. %s (sources: %s; url: %s)\n",
				i+1, rec.Title, strings.Join(rec.Merge.ContributingSources, ", "), rec.CanonicalURL)
			if rec.BodySnippet != "" {
				fmt.Fprintf(&b, "   %s\n", rec.BodySnippet)
			}
		}
		fmt.Fprintf(&b, "</%s>\n", cat)
	}

	if len(req.EntityChanges) > 0 {
		b.WriteString("\n<entity-timeline>\n")
		for _, c := range req.EntityChanges {
			fmt.Fprintf(&b, "- [%s] %s (%s) via %s: %s\n", c.Kind, c.Name, c.Entity, c.SourceID, c.Title)
		}
		b.WriteString("</entity-timeline>\n")
	}

	fmt.Fprintf(&b, "\nDeep-dive topic: %s\n", req.DeepDive.Title)
	if req.DeepDiveRepeat {
		b.WriteString("This topic was covered recently; frame the deep dive around what is new.\n")
	}
	return b.String()
}
