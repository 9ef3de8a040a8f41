package model

import "time"

// InsightTopicFingerprint is the compact signature of one previously
// published deep-dive topic. Fingerprints persist across runs and expire
// once older than the retention window.
type InsightTopicFingerprint struct {
	NormalizedTitle string    `json:"normalized_title"`
	Category        Category  `json:"category"`
	PublishedDate   time.Time `json:"published_date"`
}
