package cluster

import (
	"testing"
	"time"

	"github.com/agenthands/daybrief/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return NewEngine(
		map[string]model.Category{
			"hn":         model.CategoryAIFrontier,
			"techcrunch": model.CategoryStartupFunding,
			"reuters":    model.CategoryGlobalEvents,
			"caixin":     model.CategoryDomesticHotspots,
		},
		map[model.Category][]string{
			model.CategoryAIFrontier:     {"gpt", "llm", "model"},
			model.CategoryStartupFunding: {"funding", "series", "startup"},
			model.CategoryFinanceMacro:   {"rates", "inflation", "treasury"},
			model.CategoryTechPolicy:     {"regulation", "antitrust", "policy"},
		},
	)
}

func TestExactlyOneCategoryPerRecord(t *testing.T) {
	records := []model.Record{
		{Title: "Show HN: tiny LLM runtime", SourceID: "hn", CanonicalURL: "u1"},
		{Title: "Treasury rates climb as inflation cools and rates reprice", SourceID: "unknown-blog", CanonicalURL: "u2"},
		{Title: "Quiet day", SourceID: "nobody", CanonicalURL: "u3"},
	}

	e := testEngine()
	out := e.Classify(records)

	total := 0
	for cat, recs := range out {
		assert.True(t, cat.Valid())
		total += len(recs)
		for _, r := range recs {
			assert.Equal(t, cat, r.Category)
		}
	}
	assert.Equal(t, len(records), total)
}

func TestUnknownSourceKeywordOverride(t *testing.T) {
	e := testEngine()
	out := e.Classify([]model.Record{
		{Title: "New antitrust regulation targets app stores", SourceID: "unknown", CanonicalURL: "u1"},
	})
	require.Len(t, out[model.CategoryTechPolicy], 1)
}

func TestOverrideMustBeStrictlyHigher(t *testing.T) {
	e := testEngine()
	// One title keyword hit scores 2, equal to the source default
	// confidence. Equal is not strictly higher, so the default wins.
	out := e.Classify([]model.Record{
		{Title: "Reuters morning briefing: policy watch", SourceID: "reuters", CanonicalURL: "u1"},
	})
	require.Len(t, out[model.CategoryGlobalEvents], 1)

	// Two hits score 4 and beat the default.
	out = e.Classify([]model.Record{
		{Title: "Policy shift: sweeping new regulation announced", SourceID: "reuters", CanonicalURL: "u2"},
	})
	require.Len(t, out[model.CategoryTechPolicy], 1)
}

func TestClassifyIdempotent(t *testing.T) {
	records := []model.Record{
		{Title: "Startup raises Series A funding", SourceID: "hn", CanonicalURL: "u1"},
		{Title: "GPT quality jumps again", SourceID: "techcrunch", CanonicalURL: "u2"},
	}

	e := testEngine()
	first := e.Classify(records)

	var flattened []model.Record
	for _, cat := range model.Categories() {
		flattened = append(flattened, first[cat]...)
	}
	second := e.Classify(flattened)

	assert.Equal(t, first, second)
}

func TestRankingIsTotal(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 2, 8, h, 0, 0, 0, time.UTC) }
	mk := func(url string, mentions int, importance float64, h int) model.Record {
		r := model.Record{Title: "GPT item", SourceID: "hn", CanonicalURL: url, Importance: importance, PublishedAt: at(h)}
		r.Merge.MentionCount = mentions
		return r
	}

	e := testEngine()
	out := e.Classify([]model.Record{
		mk("u-low", 1, 99, 23),
		mk("u-high", 3, 0.1, 1),
		mk("u-tie-b", 2, 5, 10),
		mk("u-tie-a", 2, 5, 10),
		mk("u-recent", 2, 5, 12),
	})

	ranked := out[model.CategoryAIFrontier]
	require.Len(t, ranked, 5)
	// Mention count dominates regardless of other fields.
	assert.Equal(t, "u-high", ranked[0].CanonicalURL)
	// Then importance, recency, and finally canonical_url order.
	assert.Equal(t, "u-recent", ranked[1].CanonicalURL)
	assert.Equal(t, "u-tie-a", ranked[2].CanonicalURL)
	assert.Equal(t, "u-tie-b", ranked[3].CanonicalURL)
	assert.Equal(t, "u-low", ranked[4].CanonicalURL)
}

func TestRankedFlattensGlobally(t *testing.T) {
	e := testEngine()
	classified := e.Classify([]model.Record{
		func() model.Record {
			r := model.Record{Title: "GPT release", SourceID: "hn", CanonicalURL: "a"}
			r.Merge.MentionCount = 1
			return r
		}(),
		func() model.Record {
			r := model.Record{Title: "Startup funding round", SourceID: "techcrunch", CanonicalURL: "b"}
			r.Merge.MentionCount = 4
			return r
		}(),
	})

	all := Ranked(classified)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].CanonicalURL)
}
