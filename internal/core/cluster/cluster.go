package cluster

import (
	"sort"
	"strings"

	"github.com/agenthands/daybrief/internal/core/model"
)

// Engine assigns each record to exactly one of the six fixed categories and
// ranks records within a category. Classification is deterministic: a
// static source mapping provides the default, keyword heuristics may
// override it only with strictly higher confidence.
type Engine struct {
	// SourceCategories is the static source_id -> category table.
	SourceCategories map[string]model.Category
	// Keywords hold per-category heuristic terms for ambiguous content.
	Keywords map[model.Category][]string
	// DefaultConfidence is the score carried by a source-mapped default.
	// Sources absent from the table default to global-events at zero
	// confidence, so any keyword evidence wins.
	DefaultConfidence float64
	// OverrideThreshold is the minimum keyword score before an override
	// is even considered.
	OverrideThreshold float64
}

func NewEngine(sources map[string]model.Category, keywords map[model.Category][]string) *Engine {
	return &Engine{
		SourceCategories:  sources,
		Keywords:          keywords,
		DefaultConfidence: 2,
		OverrideThreshold: 2,
	}
}

// Classify assigns every record exactly one category and returns the
// records ranked within each bucket. Every record is evaluated against
// every category candidate independently; nothing terminates early.
func (e *Engine) Classify(records []model.Record) map[model.Category][]model.Record {
	out := make(map[model.Category][]model.Record)
	for _, rec := range records {
		rec.Category = e.classify(rec)
		out[rec.Category] = append(out[rec.Category], rec)
	}
	for cat := range out {
		rank(out[cat])
	}
	return out
}

func (e *Engine) classify(rec model.Record) model.Category {
	def, defConf := e.defaultCategory(rec.SourceID)
	override, overrideConf := e.keywordCategory(rec)

	if overrideConf >= e.OverrideThreshold && overrideConf > defConf {
		return override
	}
	return def
}

func (e *Engine) defaultCategory(sourceID string) (model.Category, float64) {
	if cat, ok := e.SourceCategories[sourceID]; ok && cat.Valid() {
		return cat, e.DefaultConfidence
	}
	return model.CategoryGlobalEvents, 0
}

// keywordCategory scores the record text against every category's keyword
// list. Title hits weigh double. Ties between categories resolve in the
// fixed category order, which keeps classification deterministic.
func (e *Engine) keywordCategory(rec model.Record) (model.Category, float64) {
	title := strings.ToLower(rec.Title)
	body := strings.ToLower(rec.BodySnippet)

	best := model.CategoryGlobalEvents
	bestScore := 0.0
	for _, cat := range model.Categories() {
		score := 0.0
		for _, kw := range e.Keywords[cat] {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			score += 2 * float64(strings.Count(title, kw))
			score += float64(strings.Count(body, kw))
		}
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}
	return best, bestScore
}

// rank orders records by mention_count desc, importance desc, published_at
// most-recent-first, then canonical_url ascending. The four keys make the
// order total, so no tie is ever left to input order.
func rank(records []model.Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Merge.MentionCount != b.Merge.MentionCount {
			return a.Merge.MentionCount > b.Merge.MentionCount
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.CanonicalURL < b.CanonicalURL
	})
}

// Ranked flattens the classified buckets into one globally ranked slice,
// applying the same composite order across categories. The orchestrator
// walks this list when choosing deep-dive candidates.
func Ranked(classified map[model.Category][]model.Record) []model.Record {
	var all []model.Record
	for _, cat := range model.Categories() {
		all = append(all, classified[cat]...)
	}
	rank(all)
	return all
}
