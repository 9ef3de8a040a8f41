package compliance

import (
	"testing"
	"time"

	"github.com/agenthands/daybrief/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRulesYAML = `
rules:
  - id: crypto_investment_advice
    tier: red
    patterns:
      - 'invest now in \w+'
      - 'guaranteed returns'
    note: investment solicitation is blocked outright
  - id: restricted_topic_kill
    tier: red
    kill: true
    patterns:
      - 'project blackout'
    note: configured kill-switch topic
  - id: market_call_neutralizer
    tier: orange
    patterns:
      - 'market (crash|collapse)'
    replacement: significant market adjustment
    note: directional calls become neutral description
  - id: figure_scrubber
    tier: orange
    patterns:
      - 'up \d+% today'
    replacement: moved notably today
    note: specific intraday figures removed
  - id: ai_notice
    tier: yellow
    annotation: '> AI-generation notice: this digest was produced with model assistance.'
    note: disclosure required on public variant
  - id: disclaimer
    tier: yellow
    annotation: '> Disclaimer: for information only, not investment advice.'
    note: fixed disclaimer
`

func testRules(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := ParseRules([]byte(testRulesYAML))
	require.NoError(t, err)
	return rs
}

var runDate = time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)

const draft = `# Daily Digest

Intro paragraph.

## finance-macro

Treasuries steady. Analysts fear a market crash by Friday.

## crypto corner

Everyone says invest now in BTC, people. Stocks up 14% today.

## global-events

Ceasefire talks continue.
`

func TestRedSectionRemoval(t *testing.T) {
	res := Filter(draft, testRules(t), runDate)

	// Raw variant is the untouched draft.
	assert.Equal(t, draft, res.Raw)
	assert.True(t, res.PublicProduced)

	// Offending section is gone from the public variant only.
	assert.NotContains(t, res.Public, "invest now in BTC")
	assert.Contains(t, res.Raw, "invest now in BTC")
	assert.Contains(t, res.Public, "Ceasefire talks continue.")

	// And the match is logged with tier red.
	var redDecision *model.ComplianceDecision
	for i := range res.Decisions {
		if res.Decisions[i].RuleID == "crypto_investment_advice" {
			redDecision = &res.Decisions[i]
		}
	}
	require.NotNil(t, redDecision)
	assert.Equal(t, model.TierRed, redDecision.Tier)
	assert.Contains(t, res.Report, "crypto_investment_advice")
}

func TestOrangeRewritePreservesContent(t *testing.T) {
	res := Filter(draft, testRules(t), runDate)

	assert.NotContains(t, res.Public, "market crash")
	assert.Contains(t, res.Public, "significant market adjustment")
	// The sentence itself survives in reduced-specificity form.
	assert.Contains(t, res.Public, "Analysts fear a significant market adjustment by Friday.")
}

func TestYellowAnnotationsAppended(t *testing.T) {
	res := Filter(draft, testRules(t), runDate)

	assert.Contains(t, res.Public, "AI-generation notice")
	assert.Contains(t, res.Public, "Disclaimer: for information only")
	// Annotations never alter existing content.
	assert.Contains(t, res.Public, "Intro paragraph.")
}

func TestFilterIdempotentOnPublicVariant(t *testing.T) {
	rules := testRules(t)
	first := Filter(draft, rules, runDate)
	second := Filter(first.Public, rules, runDate)

	assert.Equal(t, first.Public, second.Public)
	assert.Empty(t, second.Decisions)
}

func TestKillSwitchAbortsPublicOnly(t *testing.T) {
	killDraft := draft + "\n## rumor mill\n\nLeaked memo mentions Project Blackout rollout.\n"
	res := Filter(killDraft, testRules(t), runDate)

	assert.True(t, res.KillSwitch)
	assert.False(t, res.PublicProduced)
	assert.Empty(t, res.Public)
	// Raw variant is still produced.
	assert.Equal(t, killDraft, res.Raw)
	assert.Contains(t, res.Report, "Kill switch triggered")
}

func TestDecisionsInApplicationOrder(t *testing.T) {
	res := Filter(draft, testRules(t), runDate)

	rank := map[model.Tier]int{model.TierRed: 0, model.TierOrange: 1, model.TierYellow: 2}
	last := -1
	for _, d := range res.Decisions {
		assert.GreaterOrEqual(t, rank[d.Tier], last)
		last = rank[d.Tier]
	}
}

func TestYellowPatternGatesAnnotation(t *testing.T) {
	rs, err := ParseRules([]byte(`
rules:
  - id: ai_claims
    tier: yellow
    patterns: ['benchmark results']
    annotation: '> Capability claims are vendor-reported.'
`))
	require.NoError(t, err)

	matched := Filter("## ai\n\nNew benchmark results published.\n", rs, runDate)
	assert.Contains(t, matched.Public, "vendor-reported")

	unmatched := Filter("## ai\n\nA quiet day.\n", rs, runDate)
	assert.NotContains(t, unmatched.Public, "vendor-reported")
	assert.Empty(t, unmatched.Decisions)
}

func TestParseRulesValidation(t *testing.T) {
	_, err := ParseRules([]byte("rules:\n  - id: bad\n    tier: purple\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("rules:\n  - id: o\n    tier: orange\n    patterns: ['x']\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("rules:\n  - id: broken\n    tier: red\n    patterns: ['[']\n"))
	assert.Error(t, err)
}
