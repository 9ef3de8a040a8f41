package compliance

import (
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/daybrief/internal/core/model"
)

// Result carries the three output variants of one filtering pass. Raw is
// always the unmodified draft. Public is absent when a kill rule fired.
type Result struct {
	Raw            string
	Public         string
	PublicProduced bool
	Report         string
	Decisions      []model.ComplianceDecision
	KillSwitch     bool
}

// Filter runs the three-tier cascade over a draft digest. Tiers apply in
// fixed order red, orange, yellow: removal must precede rewriting so a
// blocked section is never paraphrased back in. The pass is deterministic
// and idempotent on its own public output.
func Filter(draft string, rules *RuleSet, runDate time.Time) *Result {
	res := &Result{Raw: draft}

	public, killed := applyRed(draft, rules, res)
	if killed {
		res.KillSwitch = true
		res.Report = renderReport(res, runDate, len(draft), 0)
		return res
	}

	public = applyOrange(public, rules, res)
	public = applyYellow(public, rules, res)

	res.Public = public
	res.PublicProduced = true
	res.Report = renderReport(res, runDate, len(draft), len(public))
	return res
}

// applyRed excises matched sections from the public variant. A section is
// the preamble or a block starting at a "## " heading. Kill rules abort
// the public variant after the full red scan so the report stays complete.
func applyRed(draft string, rules *RuleSet, res *Result) (string, bool) {
	red := rules.tier(model.TierRed)
	if len(red) == 0 {
		return draft, false
	}

	killed := false
	var kept []string
	for _, section := range splitSections(draft) {
		remove := false
		for _, rule := range red {
			span := rule.match(section)
			if span == "" {
				continue
			}
			action := "section removed"
			if rule.Kill {
				action = "kill switch: public variant aborted"
				killed = true
			}
			res.Decisions = append(res.Decisions, model.ComplianceDecision{
				RuleID:       rule.ID,
				Tier:         model.TierRed,
				OriginalSpan: span,
				Action:       action,
				Rationale:    rule.Note,
			})
			remove = true
		}
		if !remove {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, ""), killed
}

// applyOrange substitutes matched spans with their neutralized
// replacement. Content is reduced in specificity, never removed.
func applyOrange(text string, rules *RuleSet, res *Result) string {
	for _, rule := range rules.tier(model.TierOrange) {
		for _, re := range rule.compiled {
			for _, span := range re.FindAllString(text, -1) {
				res.Decisions = append(res.Decisions, model.ComplianceDecision{
					RuleID:       rule.ID,
					Tier:         model.TierOrange,
					OriginalSpan: span,
					Action:       rule.Replacement,
					Rationale:    rule.Note,
				})
			}
			text = re.ReplaceAllString(text, rule.Replacement)
		}
	}
	return text
}

// applyYellow appends disclosures. A yellow rule with patterns annotates
// only drafts that match one; a pattern-less rule annotates every draft.
// Existing content is never altered, and a disclosure already present is
// not appended again.
func applyYellow(text string, rules *RuleSet, res *Result) string {
	for _, rule := range rules.tier(model.TierYellow) {
		if len(rule.Patterns) > 0 && rule.match(text) == "" {
			continue
		}
		if strings.Contains(text, rule.Annotation) {
			continue
		}
		text = strings.TrimRight(text, "\n") + "\n\n" + rule.Annotation + "\n"
		res.Decisions = append(res.Decisions, model.ComplianceDecision{
			RuleID:    rule.ID,
			Tier:      model.TierYellow,
			Action:    "annotation appended",
			Rationale: rule.Note,
		})
	}
	return text
}

// splitSections cuts the draft at "## " headings, keeping separators so
// the concatenation of all sections reproduces the input byte for byte.
func splitSections(draft string) []string {
	lines := strings.SplitAfter(draft, "\n")
	var sections []string
	var current strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(line, "## ") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func renderReport(res *Result, runDate time.Time, originalLen, publicLen int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Compliance Report - %s\n\n", runDate.Format("2006-01-02"))

	counts := map[model.Tier]int{}
	for _, d := range res.Decisions {
		counts[d.Tier]++
	}
	fmt.Fprintf(&b, "- red (hard block): %d\n", counts[model.TierRed])
	fmt.Fprintf(&b, "- orange (soft rewrite): %d\n", counts[model.TierOrange])
	fmt.Fprintf(&b, "- yellow (annotation): %d\n\n", counts[model.TierYellow])

	if res.KillSwitch {
		b.WriteString("**Kill switch triggered: no public variant produced for this run.**\n\n")
	}

	b.WriteString("## Decisions (application order)\n\n")
	if len(res.Decisions) == 0 {
		b.WriteString("No rules matched.\n")
	}
	for i, d := range res.Decisions {
		fmt.Fprintf(&b, "%d. [%s] rule=%s action=%q", i+1, d.Tier, d.RuleID, d.Action)
		if d.OriginalSpan != "" {
			fmt.Fprintf(&b, " span=%q", truncate(d.OriginalSpan, 80))
		}
		if d.Rationale != "" {
			fmt.Fprintf(&b, " note=%q", d.Rationale)
		}
		b.WriteString("\n")
	}

	if !res.KillSwitch {
		fmt.Fprintf(&b, "\n## Effect\n\n- draft: %d bytes\n- public: %d bytes\n", originalLen, publicLen)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
