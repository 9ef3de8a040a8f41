package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/daybrief/internal/config"
	"github.com/agenthands/daybrief/internal/core/model"
)

const hackerNewsAPI = "https://hacker-news.firebaseio.com/v0"

// HackerNewsFetcher reads the Firebase topstories feed and resolves each
// item. Items without an external URL (Ask HN and similar) are skipped.
type HackerNewsFetcher struct {
	source  config.SourceConfig
	client  *http.Client
	baseURL string
}

type hnItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	Time  int64  `json:"time"`
	Text  string `json:"text"`
}

func NewHackerNewsFetcher(src config.SourceConfig, client *http.Client) *HackerNewsFetcher {
	base := src.URL
	if base == "" {
		base = hackerNewsAPI
	}
	return &HackerNewsFetcher{source: src, client: client, baseURL: base}
}

func (f *HackerNewsFetcher) SourceID() string { return f.source.ID }

func (f *HackerNewsFetcher) Fetch(ctx context.Context) ([]model.Record, error) {
	var ids []int
	if err := f.getJSON(ctx, f.baseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}

	limit := sourceLimit(f.source)
	now := time.Now()
	records := make([]model.Record, 0, limit)
	for _, id := range ids {
		if len(records) >= limit {
			break
		}
		var item hnItem
		if err := f.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", f.baseURL, id), &item); err != nil {
			return nil, fmt.Errorf("item %d: %w", id, err)
		}
		if item.URL == "" || item.Title == "" {
			continue
		}
		records = append(records, model.Record{
			ID:           uuid.NewString(),
			Title:        item.Title,
			CanonicalURL: item.URL,
			SourceID:     f.source.ID,
			PublishedAt:  time.Unix(item.Time, 0).UTC(),
			FetchedAt:    now,
			BodySnippet:  snippet(stripTags(item.Text)),
			Importance:   float64(item.Score),
		})
	}
	return records, nil
}

func (f *HackerNewsFetcher) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
