package model

import (
	"sort"
	"time"
)

// Category is one of the six fixed topical buckets a record can land in.
type Category string

const (
	CategoryAIFrontier       Category = "ai-frontier"
	CategoryStartupFunding   Category = "startup-funding"
	CategoryFinanceMacro     Category = "finance-macro"
	CategoryDomesticHotspots Category = "domestic-hotspots"
	CategoryTechPolicy       Category = "tech-policy"
	CategoryGlobalEvents     Category = "global-events"
)

// Categories returns the valid categories in presentation order.
func Categories() []Category {
	return []Category{
		CategoryAIFrontier,
		CategoryStartupFunding,
		CategoryFinanceMacro,
		CategoryDomesticHotspots,
		CategoryTechPolicy,
		CategoryGlobalEvents,
	}
}

// Valid reports whether c is one of the six fixed categories.
func (c Category) Valid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

// MergeMetadata accumulates cross-source evidence on a merged record.
// MentionCount always equals len(ContributingSources).
type MergeMetadata struct {
	ContributingSources []string  `json:"contributing_sources"`
	MentionCount        int       `json:"mention_count"`
	EarliestSeen        time.Time `json:"earliest_seen"`
}

// AddSource inserts a source into the contributing set, keeping the set
// sorted and the mention count in sync.
func (m *MergeMetadata) AddSource(sourceID string) {
	for _, s := range m.ContributingSources {
		if s == sourceID {
			return
		}
	}
	m.ContributingSources = append(m.ContributingSources, sourceID)
	sort.Strings(m.ContributingSources)
	m.MentionCount = len(m.ContributingSources)
}

// HasSource reports whether sourceID already contributed to this record.
func (m *MergeMetadata) HasSource(sourceID string) bool {
	for _, s := range m.ContributingSources {
		if s == sourceID {
			return true
		}
	}
	return false
}

// Record is one canonicalized news/event item. Fetch collaborators create
// records, the deduplicator merges them and the clustering engine assigns
// the category; records are immutable after that and discarded at end of
// run.
type Record struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	CanonicalURL string        `json:"canonical_url"`
	SourceID     string        `json:"source_id"`
	PublishedAt  time.Time     `json:"published_at"`
	FetchedAt    time.Time     `json:"fetched_at"`
	BodySnippet  string        `json:"body_snippet,omitempty"`
	Importance   float64       `json:"importance_score"`
	Category     Category      `json:"category,omitempty"`
	Language     string        `json:"language,omitempty"`
	Merge        MergeMetadata `json:"merge_metadata"`
}
