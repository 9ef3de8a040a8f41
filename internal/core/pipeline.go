package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/agenthands/daybrief/internal/core/cluster"
	"github.com/agenthands/daybrief/internal/core/compliance"
	"github.com/agenthands/daybrief/internal/core/dedupe"
	"github.com/agenthands/daybrief/internal/core/entity"
	"github.com/agenthands/daybrief/internal/core/insight"
	"github.com/agenthands/daybrief/internal/core/model"
)

var (
	// ErrSummarization marks a failure of the external narrative
	// collaborator; the run produces no output at all.
	ErrSummarization = errors.New("summarization failed")
	// ErrLedgerLocked is surfaced once lock retries are exhausted.
	ErrLedgerLocked = errors.New("entity ledger locked by another run")
	// ErrEmptyBatch means no record survived boundary validation.
	ErrEmptyBatch = errors.New("no valid records in batch")
)

// Summarizer is the external narrative-generation collaborator. Its
// failure is pipeline-fatal.
type Summarizer interface {
	Summarize(ctx context.Context, req DigestRequest) (string, error)
}

// DigestRequest is the categorized, ranked, entity-annotated record set
// handed to the summarization collaborator.
type DigestRequest struct {
	Date           time.Time
	Categories     map[model.Category][]model.Record
	EntityChanges  []model.EntityChange
	DeepDive       model.Record
	DeepDiveRepeat bool
}

// EntityLedger is the durable keyed entity store, read at pipeline start
// and written at pipeline end.
type EntityLedger interface {
	Load(ctx context.Context) (map[string]*model.Entity, error)
	Save(ctx context.Context, ledger map[string]*model.Entity) error
}

// HistoryStore persists insight-topic fingerprints across runs.
type HistoryStore interface {
	Load(ctx context.Context) (insight.History, error)
	Save(ctx context.Context, history insight.History) error
}

// Locker serializes concurrent runs against the shared stores. Acquire
// returns a release func on success.
type Locker interface {
	Acquire() (release func(), err error)
}

// Pipeline sequences one run over a record batch. It owns no algorithmic
// logic beyond sequencing and carries stage errors to the caller; a failed
// run returns no partial output.
type Pipeline struct {
	Dedupe     *dedupe.Deduplicator
	Cluster    *cluster.Engine
	Tracker    *entity.Tracker
	Insight    *insight.Store
	Rules      *compliance.RuleSet
	Summarizer Summarizer
	Ledger     EntityLedger
	History    HistoryStore
	Lock       Locker

	// LockRetries and LockBackoff govern retryable lock contention.
	LockRetries int
	LockBackoff time.Duration

	Now    func() time.Time
	Logger *log.Logger
}

// RunResult is everything one successful run hands back for external
// persistence and delivery.
type RunResult struct {
	Date             time.Time
	Raw              string
	Public           string
	PublicProduced   bool
	ComplianceReport string
	Decisions        []model.ComplianceDecision
	EntityChanges    []model.EntityChange
	DeepDive         model.Record
	DeepDiveRepeat   bool
	Rejected         int
	Merged           int
}

// Run executes Deduplicate -> Classify -> UpdateLedger -> insight check ->
// Summarize -> Filter -> persist fingerprints, in that order. Each stage
// sees the prior stage's complete output.
func (p *Pipeline) Run(ctx context.Context, batch []model.Record) (*RunResult, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	runDate := now()

	records, rejected := validateBatch(batch, logger)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w (%d rejected)", ErrEmptyBatch, rejected)
	}

	release, err := p.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	merged := p.Dedupe.Deduplicate(records)
	logger.Printf("[pipeline] dedupe: %d -> %d records", len(records), len(merged))

	classified := p.Cluster.Classify(merged)

	ledger, err := p.Ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entity ledger: %w", err)
	}
	ledger, changes := p.Tracker.UpdateLedger(merged, ledger)

	history, err := p.History.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load insight history: %w", err)
	}
	deepDive, repeat := p.selectDeepDive(classified, history, runDate)

	draft, err := p.Summarizer.Summarize(ctx, DigestRequest{
		Date:           runDate,
		Categories:     classified,
		EntityChanges:  changes,
		DeepDive:       deepDive,
		DeepDiveRepeat: repeat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarization, err)
	}

	filtered := compliance.Filter(draft, p.Rules, runDate)

	// A fallback repeat already has an in-window fingerprint; recording
	// it again would duplicate the entry on every repeated day.
	if !repeat {
		history = p.Insight.Record(insight.Fingerprint(deepDive, runDate), history)
	}
	if err := p.History.Save(ctx, history); err != nil {
		return nil, fmt.Errorf("save insight history: %w", err)
	}
	if err := p.Ledger.Save(ctx, ledger); err != nil {
		return nil, fmt.Errorf("save entity ledger: %w", err)
	}

	return &RunResult{
		Date:             runDate,
		Raw:              filtered.Raw,
		Public:           filtered.Public,
		PublicProduced:   filtered.PublicProduced,
		ComplianceReport: filtered.Report,
		Decisions:        filtered.Decisions,
		EntityChanges:    changes,
		DeepDive:         deepDive,
		DeepDiveRepeat:   repeat,
		Rejected:         rejected,
		Merged:           len(merged),
	}, nil
}

// validateBatch rejects malformed records one at a time, loudly.
func validateBatch(batch []model.Record, logger *log.Logger) ([]model.Record, int) {
	var valid []model.Record
	rejected := 0
	for _, rec := range batch {
		switch {
		case rec.CanonicalURL == "":
			logger.Printf("[pipeline] rejected record %q from %s: missing canonical_url", rec.Title, rec.SourceID)
			rejected++
		case rec.Title == "" || rec.SourceID == "":
			logger.Printf("[pipeline] rejected record %q: missing required field", rec.CanonicalURL)
			rejected++
		default:
			valid = append(valid, rec)
		}
	}
	return valid, rejected
}

func (p *Pipeline) acquireLock() (func(), error) {
	if p.Lock == nil {
		return func() {}, nil
	}
	retries := p.LockRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := p.LockBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var err error
	for attempt := 0; attempt < retries; attempt++ {
		var release func()
		release, err = p.Lock.Acquire()
		if err == nil {
			return release, nil
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("%w: %v", ErrLedgerLocked, err)
}

// selectDeepDive walks the globally ranked candidates and returns the
// first one the insight history does not flag. If every candidate is
// flagged, the top candidate is allowed to repeat: the deep-dive section
// is never empty.
func (p *Pipeline) selectDeepDive(classified map[model.Category][]model.Record, history insight.History, runDate time.Time) (model.Record, bool) {
	ranked := cluster.Ranked(classified)
	if len(ranked) == 0 {
		return model.Record{}, false
	}
	for _, candidate := range ranked {
		if !p.Insight.IsRepeated(insight.Fingerprint(candidate, runDate), history) {
			return candidate, false
		}
	}
	return ranked[0], true
}
