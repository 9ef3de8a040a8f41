package insight

import (
	"time"

	"github.com/agenthands/daybrief/internal/core/dedupe"
	"github.com/agenthands/daybrief/internal/core/model"
)

// History is the durable list of previously published deep-dive topics.
type History struct {
	Fingerprints []model.InsightTopicFingerprint `json:"fingerprints"`
}

// Store decides whether a candidate deep-dive topic repeats a recently
// published one. Matching reuses the deduplicator's normalized-title
// similarity so "repeated" means the same thing in both places.
type Store struct {
	// Window is the retention period; fingerprints older than this never
	// match and are pruned on Record.
	Window time.Duration
	// Threshold is the title similarity above which a topic counts as a
	// near-duplicate.
	Threshold float64
	Now       func() time.Time
}

func NewStore(windowDays int, threshold float64) *Store {
	if windowDays <= 0 {
		windowDays = 7
	}
	if threshold <= 0 {
		threshold = 0.85
	}
	return &Store{
		Window:    time.Duration(windowDays) * 24 * time.Hour,
		Threshold: threshold,
		Now:       time.Now,
	}
}

// Fingerprint builds the signature for a candidate deep-dive record.
func Fingerprint(rec model.Record, publishedDate time.Time) model.InsightTopicFingerprint {
	return model.InsightTopicFingerprint{
		NormalizedTitle: dedupe.NormalizeTitle(rec.Title),
		Category:        rec.Category,
		PublishedDate:   publishedDate,
	}
}

// IsRepeated reports whether the candidate matches any in-window
// fingerprint, exactly or as a near-duplicate.
func (s *Store) IsRepeated(candidate model.InsightTopicFingerprint, history History) bool {
	cutoff := s.Now().Add(-s.Window)
	for _, fp := range history.Fingerprints {
		if fp.PublishedDate.Before(cutoff) {
			continue
		}
		if fp.NormalizedTitle == candidate.NormalizedTitle {
			return true
		}
		if dedupe.Similarity(fp.NormalizedTitle, candidate.NormalizedTitle) >= s.Threshold {
			return true
		}
	}
	return false
}

// Record prunes expired fingerprints and appends the candidate, returning
// the updated history.
func (s *Store) Record(candidate model.InsightTopicFingerprint, history History) History {
	cutoff := s.Now().Add(-s.Window)
	kept := make([]model.InsightTopicFingerprint, 0, len(history.Fingerprints)+1)
	for _, fp := range history.Fingerprints {
		if fp.PublishedDate.Before(cutoff) {
			continue
		}
		kept = append(kept, fp)
	}
	if candidate.PublishedDate.IsZero() {
		candidate.PublishedDate = s.Now()
	}
	return History{Fingerprints: append(kept, candidate)}
}
