package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/agenthands/daybrief/internal/config"
	"github.com/agenthands/daybrief/internal/core/model"
)

// PageFetcher scrapes an HTML listing page with configured selectors.
// Listings rarely carry timestamps, so PublishedAt stays zero and the
// deduplicator never merges these records on time proximity.
type PageFetcher struct {
	source config.SourceConfig
	client *http.Client
	base   *url.URL
}

func NewPageFetcher(src config.SourceConfig, client *http.Client) (*PageFetcher, error) {
	if src.ItemSelector == "" || src.TitleSelector == "" || src.LinkSelector == "" {
		return nil, fmt.Errorf("html source needs item, title and link selectors")
	}
	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %s: %w", src.URL, err)
	}
	return &PageFetcher{source: src, client: client, base: base}, nil
}

func (f *PageFetcher) SourceID() string { return f.source.ID }

func (f *PageFetcher) Fetch(ctx context.Context) ([]model.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "daybrief/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page %s returned %s", f.source.URL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", f.source.URL, err)
	}

	limit := sourceLimit(f.source)
	now := time.Now()
	records := make([]model.Record, 0, limit)
	doc.Find(f.source.ItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}
		title := strings.TrimSpace(item.Find(f.source.TitleSelector).First().Text())
		href, _ := item.Find(f.source.LinkSelector).First().Attr("href")
		link := f.resolve(strings.TrimSpace(href))
		if title == "" || link == "" {
			return true
		}
		records = append(records, model.Record{
			ID:           uuid.NewString(),
			Title:        title,
			CanonicalURL: link,
			SourceID:     f.source.ID,
			FetchedAt:    now,
		})
		return true
	})
	return records, nil
}

func (f *PageFetcher) resolve(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return f.base.ResolveReference(ref).String()
}
