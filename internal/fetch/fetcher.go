package fetch

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/agenthands/daybrief/internal/config"
	"github.com/agenthands/daybrief/internal/core/model"
)

const defaultLimit = 20

// Fetcher pulls the current batch of records from one configured source.
type Fetcher interface {
	SourceID() string
	Fetch(ctx context.Context) ([]model.Record, error)
}

// Registry holds the fetchers built from configuration and runs them as a
// group. A failing source is logged and skipped; the run proceeds with
// whatever the other sources produced.
type Registry struct {
	fetchers []Fetcher
	logger   *log.Logger
}

// NewRegistry instantiates one fetcher per enabled source.
func NewRegistry(sources []config.SourceConfig, client *http.Client, logger *log.Logger) (*Registry, error) {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}

	r := &Registry{logger: logger}
	for _, src := range sources {
		if !src.Enabled {
			continue
		}
		f, err := newFetcher(src, client)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.ID, err)
		}
		r.fetchers = append(r.fetchers, f)
	}
	return r, nil
}

func newFetcher(src config.SourceConfig, client *http.Client) (Fetcher, error) {
	switch src.Kind {
	case "hn":
		return NewHackerNewsFetcher(src, client), nil
	case "rss":
		return NewRSSFetcher(src, client), nil
	case "html":
		return NewPageFetcher(src, client)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// FetchAll runs every fetcher concurrently and concatenates the results.
func (r *Registry) FetchAll(ctx context.Context) []model.Record {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []model.Record
	)

	for _, f := range r.fetchers {
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			recs, err := f.Fetch(ctx)
			if err != nil {
				r.logger.Printf("[fetch] source %s failed: %v", f.SourceID(), err)
				return
			}
			r.logger.Printf("[fetch] source %s: %d records", f.SourceID(), len(recs))
			mu.Lock()
			records = append(records, recs...)
			mu.Unlock()
		}(f)
	}
	wg.Wait()
	return records
}

// Sources lists the registered source IDs.
func (r *Registry) Sources() []string {
	ids := make([]string, 0, len(r.fetchers))
	for _, f := range r.fetchers {
		ids = append(ids, f.SourceID())
	}
	return ids
}

func sourceLimit(src config.SourceConfig) int {
	if src.Limit > 0 {
		return src.Limit
	}
	return defaultLimit
}

// snippet trims body text to the stored snippet size on a rune boundary.
func snippet(text string) string {
	const max = 600
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	for len(string(runes)) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
