package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/agenthands/daybrief/internal/core/model"
)

// Mention is one candidate entity occurrence extracted from a record.
type Mention struct {
	Name string
	Kind model.EntityKind
}

// ExtractFunc produces candidate entity mentions for a record. Extraction
// is an injectable capability: the tracker does not care how it works.
type ExtractFunc func(model.Record) []Mention

// EqualityFunc decides whether two entity names refer to the same ledger
// entry. The tracker never guesses: fuzziness is whatever the caller
// injects here.
type EqualityFunc func(a, b string) bool

// DefaultEquality matches names exactly after case folding and whitespace
// collapsing.
func DefaultEquality(a, b string) bool {
	return canonicalName(a) == canonicalName(b)
}

func canonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// WatchlistExtractor builds an ExtractFunc that scans title and snippet for
// a configured set of known entities, the way the report generator's
// watchlist works.
func WatchlistExtractor(watch map[string]model.EntityKind) ExtractFunc {
	names := make([]string, 0, len(watch))
	for name := range watch {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(rec model.Record) []Mention {
		text := strings.ToLower(rec.Title + " " + rec.BodySnippet)
		var found []Mention
		for _, name := range names {
			if strings.Contains(text, strings.ToLower(name)) {
				found = append(found, Mention{Name: name, Kind: watch[name]})
			}
		}
		return found
	}
}

// Tracker maintains the rolling cross-day entity ledger.
type Tracker struct {
	Extract ExtractFunc
	Equal   EqualityFunc
	Now     func() time.Time
}

func NewTracker(extract ExtractFunc) *Tracker {
	return &Tracker{
		Extract: extract,
		Equal:   DefaultEquality,
		Now:     time.Now,
	}
}

// UpdateLedger folds a batch of records into the ledger. Entities are
// created on first encounter and updated afterwards; the tracker never
// deletes entries and never merges two names its equality function keeps
// apart. The change list exists for narrative generation only.
func (t *Tracker) UpdateLedger(records []model.Record, ledger map[string]*model.Entity) (map[string]*model.Entity, []model.EntityChange) {
	if ledger == nil {
		ledger = make(map[string]*model.Entity)
	}
	today := t.Now().Truncate(24 * time.Hour)

	var changes []model.EntityChange
	for _, rec := range records {
		for _, m := range t.Extract(rec) {
			existing := t.find(ledger, m.Name)
			if existing == nil {
				e := &model.Entity{
					Name:      m.Name,
					Kind:      m.Kind,
					FirstSeen: today,
					LastSeen:  today,
				}
				e.RecordMention(today, rec.SourceID)
				ledger[canonicalName(m.Name)] = e
				changes = append(changes, model.EntityChange{
					Kind:     model.EntityChangeNew,
					Name:     m.Name,
					Entity:   m.Kind,
					Date:     today,
					SourceID: rec.SourceID,
					Title:    rec.Title,
				})
				continue
			}

			existing.RecordMention(today, rec.SourceID)
			changes = append(changes, model.EntityChange{
				Kind:     model.EntityChangeUpdate,
				Name:     existing.Name,
				Entity:   existing.Kind,
				Date:     today,
				SourceID: rec.SourceID,
				Title:    rec.Title,
			})
		}
	}
	return ledger, changes
}

func (t *Tracker) find(ledger map[string]*model.Entity, name string) *model.Entity {
	equal := t.Equal
	if equal == nil {
		equal = DefaultEquality
	}
	// Fast path for the default key scheme.
	if e, ok := ledger[canonicalName(name)]; ok && equal(e.Name, name) {
		return e
	}
	for _, e := range ledger {
		if equal(e.Name, name) {
			return e
		}
	}
	return nil
}
