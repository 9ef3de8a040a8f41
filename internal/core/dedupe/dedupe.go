package dedupe

import (
	"sort"
	"strings"
	"time"

	"github.com/agenthands/daybrief/internal/core/model"
)

const snippetLimit = 600

// Deduplicator merges near-duplicate records reported by multiple sources.
// Merging enriches metadata and never drops information: the output always
// covers every contributing source of the input.
type Deduplicator struct {
	// Threshold is the minimum normalized-title similarity for a merge.
	Threshold float64
	// Window bounds how far apart in publish time two duplicates may be.
	Window time.Duration
	// SourcePriority designates higher-trust sources whose URL replaces
	// the canonical one on merge. Unlisted sources rank 0.
	SourcePriority map[string]int
}

func NewDeduplicator(threshold float64, window time.Duration, priority map[string]int) *Deduplicator {
	if threshold <= 0 {
		threshold = 0.85
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Deduplicator{Threshold: threshold, Window: window, SourcePriority: priority}
}

// Deduplicate returns a sequence no longer than the input in which near
// duplicates are merged. Records are processed earliest-fetched first so
// the first-seen record becomes the merge base.
func (d *Deduplicator) Deduplicate(records []model.Record) []model.Record {
	if len(records) == 0 {
		return nil
	}

	ordered := make([]model.Record, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].FetchedAt.Equal(ordered[j].FetchedAt) {
			return ordered[i].FetchedAt.Before(ordered[j].FetchedAt)
		}
		return ordered[i].CanonicalURL < ordered[j].CanonicalURL
	})

	var kept []model.Record
	for _, rec := range ordered {
		if rec.Merge.MentionCount == 0 {
			rec.Merge.AddSource(rec.SourceID)
			rec.Merge.EarliestSeen = rec.FetchedAt
		}

		idx := d.findDuplicate(kept, rec)
		if idx < 0 {
			kept = append(kept, rec)
			continue
		}
		d.mergeInto(&kept[idx], rec)
	}
	return kept
}

// findDuplicate returns the index of the kept record rec duplicates, or -1.
// A key collision alone is not enough: the similarity must clear the
// threshold, so false merges lose to false-negative duplicates.
func (d *Deduplicator) findDuplicate(kept []model.Record, rec model.Record) int {
	b := d.bucket(rec.PublishedAt)
	if b < 0 {
		// Unknown publish time never merges with anything.
		return -1
	}
	for i := range kept {
		if d.bucket(kept[i].PublishedAt) != b {
			continue
		}
		if Similarity(kept[i].Title, rec.Title) >= d.Threshold {
			return i
		}
	}
	return -1
}

// bucket maps a publish time onto a window-sized slot. Zero times (the
// representation of an unparsable timestamp) land in the unknown bucket -1.
func (d *Deduplicator) bucket(t time.Time) int64 {
	if t.IsZero() {
		return -1
	}
	return t.Unix() / int64(d.Window/time.Second)
}

func (d *Deduplicator) mergeInto(base *model.Record, dup model.Record) {
	for _, src := range dup.Merge.ContributingSources {
		base.Merge.AddSource(src)
	}
	if dup.Merge.EarliestSeen.Before(base.Merge.EarliestSeen) {
		base.Merge.EarliestSeen = dup.Merge.EarliestSeen
	}
	if dup.Importance > base.Importance {
		base.Importance = dup.Importance
	}
	base.BodySnippet = appendSnippet(base.BodySnippet, dup.BodySnippet)

	// First-seen URL stays canonical unless the duplicate came from a
	// strictly higher-trust source.
	if d.SourcePriority[dup.SourceID] > d.SourcePriority[base.SourceID] && dup.CanonicalURL != "" {
		base.CanonicalURL = dup.CanonicalURL
	}
}

func appendSnippet(acc, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || strings.Contains(acc, fragment) {
		return acc
	}
	if acc == "" {
		if len(fragment) > snippetLimit {
			return fragment[:snippetLimit]
		}
		return fragment
	}
	joined := acc + " / " + fragment
	if len(joined) > snippetLimit {
		return acc
	}
	return joined
}
