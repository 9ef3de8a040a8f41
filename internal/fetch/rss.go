package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/daybrief/internal/config"
	"github.com/agenthands/daybrief/internal/core/model"
)

// RSSFetcher reads an RSS 2.0 feed. Publication dates that fail to parse
// are left zero so the deduplicator treats the record as unknown-time.
type RSSFetcher struct {
	source config.SourceConfig
	client *http.Client
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

var tagExpr = regexp.MustCompile(`<[^>]+>`)

func NewRSSFetcher(src config.SourceConfig, client *http.Client) *RSSFetcher {
	return &RSSFetcher{source: src, client: client}
}

func (f *RSSFetcher) SourceID() string { return f.source.ID }

func (f *RSSFetcher) Fetch(ctx context.Context) ([]model.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", f.source.URL, resp.Status)
	}

	var doc rssDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.source.URL, err)
	}

	limit := sourceLimit(f.source)
	now := time.Now()
	records := make([]model.Record, 0, limit)
	for _, item := range doc.Channel.Items {
		if len(records) >= limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		records = append(records, model.Record{
			ID:           uuid.NewString(),
			Title:        title,
			CanonicalURL: link,
			SourceID:     f.source.ID,
			PublishedAt:  parsePubDate(item.PubDate),
			FetchedAt:    now,
			BodySnippet:  snippet(stripTags(item.Description)),
		})
	}
	return records, nil
}

func stripTags(s string) string {
	return strings.TrimSpace(tagExpr.ReplaceAllString(s, ""))
}

func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
