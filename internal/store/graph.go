package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/daybrief/internal/core/model"
)

const (
	saveEntityQuery = `
		MERGE (n:Entity {canonical: $canonical})
		SET n.name = $name,
			n.kind = $kind,
			n.first_seen = $first_seen,
			n.last_seen = $last_seen,
			n.mention_dates = $mention_dates,
			n.associated_sources = $associated_sources
		RETURN n.canonical AS canonical
	`

	loadEntitiesQuery = `
		MATCH (n:Entity)
		RETURN n.canonical AS canonical, n.name AS name, n.kind AS kind,
			n.first_seen AS first_seen, n.last_seen AS last_seen,
			n.mention_dates AS mention_dates,
			n.associated_sources AS associated_sources
	`
)

// GraphLedger backs the entity ledger with a neo4j-compatible graph
// database, one Entity node per ledger entry. Nodes merge on the
// canonical (ledger-key) name; the display name is a separate property
// so a round-trip preserves it.
type GraphLedger struct {
	driver neo4j.DriverWithContext
}

func NewGraphLedger(ctx context.Context, uri, user, password string) (*GraphLedger, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create graph driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}
	log.Printf("[store] connected to graph at %s", uri)

	g := &GraphLedger{driver: driver}
	if err := g.buildIndices(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GraphLedger) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func (g *GraphLedger) buildIndices(ctx context.Context) error {
	_, err := g.run(ctx, "CREATE INDEX ON :Entity(canonical);", nil)
	if err != nil {
		// Index creation is not idempotent on every backend.
		log.Printf("[store] entity index: %v", err)
	}
	return nil
}

func (g *GraphLedger) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, g.driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("graph query: %w", err)
	}
	return result, nil
}

func (g *GraphLedger) Load(ctx context.Context) (map[string]*model.Entity, error) {
	result, err := g.run(ctx, loadEntitiesQuery, nil)
	if err != nil {
		return nil, err
	}

	ledger := make(map[string]*model.Entity, len(result.Records))
	for _, rec := range result.Records {
		key, e := entityFromRecord(rec)
		if key != "" {
			ledger[key] = e
		}
	}
	return ledger, nil
}

func (g *GraphLedger) Save(ctx context.Context, ledger map[string]*model.Entity) error {
	for key, e := range ledger {
		if _, err := g.run(ctx, saveEntityQuery, entityParams(key, e)); err != nil {
			return fmt.Errorf("save entity %q: %w", key, err)
		}
	}
	return nil
}

// entityParams maps one ledger entry onto the save-query parameters. The
// ledger key and the display name travel separately.
func entityParams(key string, e *model.Entity) map[string]any {
	return map[string]any{
		"canonical":          key,
		"name":               e.Name,
		"kind":               string(e.Kind),
		"first_seen":         e.FirstSeen,
		"last_seen":          e.LastSeen,
		"mention_dates":      e.MentionDates,
		"associated_sources": e.AssociatedSources,
	}
}

// entityFromRecord rebuilds a ledger entry from one query-result record,
// returning its ledger key. Nodes written before the display-name property
// existed fall back to the canonical name.
func entityFromRecord(rec *neo4j.Record) (string, *model.Entity) {
	key := stringValue(rec, "canonical")
	e := &model.Entity{
		Name:              stringValue(rec, "name"),
		Kind:              model.EntityKind(stringValue(rec, "kind")),
		MentionDates:      stringListValue(rec, "mention_dates"),
		AssociatedSources: stringListValue(rec, "associated_sources"),
	}
	if e.Name == "" {
		e.Name = key
	}
	if v, ok := rec.Get("first_seen"); ok {
		if ts, ok := v.(time.Time); ok {
			e.FirstSeen = ts
		}
	}
	if v, ok := rec.Get("last_seen"); ok {
		if ts, ok := v.(time.Time); ok {
			e.LastSeen = ts
		}
	}
	return key, e
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stringListValue(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
