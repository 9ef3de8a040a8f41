package model

import (
	"sort"
	"time"
)

type EntityKind string

const (
	EntityOrganization EntityKind = "organization"
	EntityPerson       EntityKind = "person"
	EntityEvent        EntityKind = "event"
	EntityOther        EntityKind = "other"
)

// Entity is one cross-day ledger entry. Created on first encounter and
// updated (never replaced, never deleted) on subsequent encounters.
type Entity struct {
	Name              string     `json:"name"`
	Kind              EntityKind `json:"kind"`
	FirstSeen         time.Time  `json:"first_seen"`
	LastSeen          time.Time  `json:"last_seen"`
	MentionDates      []string   `json:"mention_dates"`
	AssociatedSources []string   `json:"associated_sources"`
}

// RecordMention appends a mention date (YYYY-MM-DD, at most once per day)
// and merges the reporting source into the associated set.
func (e *Entity) RecordMention(day time.Time, sourceID string) {
	date := day.Format("2006-01-02")
	seen := false
	for _, d := range e.MentionDates {
		if d == date {
			seen = true
			break
		}
	}
	if !seen {
		e.MentionDates = append(e.MentionDates, date)
	}
	if day.After(e.LastSeen) {
		e.LastSeen = day
	}
	for _, s := range e.AssociatedSources {
		if s == sourceID {
			return
		}
	}
	e.AssociatedSources = append(e.AssociatedSources, sourceID)
	sort.Strings(e.AssociatedSources)
}

type EntityChangeKind string

const (
	EntityChangeNew    EntityChangeKind = "new"
	EntityChangeUpdate EntityChangeKind = "update"
)

// EntityChange describes what a run did to one ledger entry. Changes feed
// narrative generation only; they are not persisted.
type EntityChange struct {
	Kind     EntityChangeKind `json:"kind"`
	Name     string           `json:"name"`
	Entity   EntityKind       `json:"entity_kind"`
	Date     time.Time        `json:"date"`
	SourceID string           `json:"source_id"`
	Title    string           `json:"title"`
}
