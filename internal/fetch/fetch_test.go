package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/daybrief/internal/config"
)

func TestHackerNewsFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/topstories.json":
			fmt.Fprint(w, `[1, 2, 3]`)
		case "/item/1.json":
			fmt.Fprint(w, `{"id":1,"title":"OpenAI releases GPT-X","url":"https://example.com/gpt-x","score":412,"time":1756195200}`)
		case "/item/2.json":
			// Ask HN style item without an external URL.
			fmt.Fprint(w, `{"id":2,"title":"Ask HN: anything","score":10,"time":1756195200}`)
		case "/item/3.json":
			fmt.Fprint(w, `{"id":3,"title":"Chip export rules tightened","url":"https://example.com/chips","score":88,"time":1756198800}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHackerNewsFetcher(config.SourceConfig{ID: "hn", Kind: "hn", URL: srv.URL, Enabled: true, Limit: 5}, srv.Client())
	records, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "OpenAI releases GPT-X", records[0].Title)
	assert.Equal(t, "https://example.com/gpt-x", records[0].CanonicalURL)
	assert.Equal(t, "hn", records[0].SourceID)
	assert.Equal(t, float64(412), records[0].Importance)
	assert.False(t, records[0].PublishedAt.IsZero())
	assert.NotEmpty(t, records[0].ID)
}

func TestHackerNewsFetcherStripsMarkupFromText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			fmt.Fprint(w, `[1]`)
			return
		}
		fmt.Fprint(w, `{"id":1,"title":"Show HN: daybrief","url":"https://example.com/daybrief","score":40,"time":1756195200,"text":"<p>A digest pipeline.</p> <a href=\"https://example.com\">demo</a>"}`)
	}))
	defer srv.Close()

	f := NewHackerNewsFetcher(config.SourceConfig{ID: "hn", URL: srv.URL}, srv.Client())
	records, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "A digest pipeline. demo", records[0].BodySnippet)
	assert.NotContains(t, records[0].BodySnippet, "<")
}

func TestHackerNewsFetcherLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			fmt.Fprint(w, `[1, 2, 3, 4]`)
			return
		}
		fmt.Fprintf(w, `{"id":1,"title":"story %s","url":"https://example.com%s","score":1,"time":1756195200}`, r.URL.Path, r.URL.Path)
	}))
	defer srv.Close()

	f := NewHackerNewsFetcher(config.SourceConfig{ID: "hn", URL: srv.URL, Limit: 2}, srv.Client())
	records, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRSSFetcher(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item>
    <title>Fed holds rates steady</title>
    <link>https://example.com/fed</link>
    <description>&lt;p&gt;The central bank left rates unchanged.&lt;/p&gt;</description>
    <pubDate>Tue, 26 Aug 2026 08:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Undated story</title>
    <link>https://example.com/undated</link>
    <description>No date here.</description>
    <pubDate>not a date</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled</link>
  </item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer srv.Close()

	f := NewRSSFetcher(config.SourceConfig{ID: "reuters", Kind: "rss", URL: srv.URL}, srv.Client())
	records, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Fed holds rates steady", records[0].Title)
	assert.Equal(t, "The central bank left rates unchanged.", records[0].BodySnippet)
	assert.Equal(t, "2026-08-26", records[0].PublishedAt.Format("2006-01-02"))

	// Unparseable pubDate stays zero so time-window merging never applies.
	assert.True(t, records[1].PublishedAt.IsZero())
}

func TestPageFetcher(t *testing.T) {
	page := `<html><body>
  <div class="story"><h2>Local summit opens</h2><a href="/news/summit">more</a></div>
  <div class="story"><h2>Port expansion approved</h2><a href="https://other.example.com/port">more</a></div>
  <div class="story"><h2></h2><a href="/news/untitled">more</a></div>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	f, err := NewPageFetcher(config.SourceConfig{
		ID: "localnews", Kind: "html", URL: srv.URL,
		ItemSelector: "div.story", TitleSelector: "h2", LinkSelector: "a",
	}, srv.Client())
	require.NoError(t, err)

	records, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Local summit opens", records[0].Title)
	assert.Equal(t, srv.URL+"/news/summit", records[0].CanonicalURL)
	assert.Equal(t, "Port expansion approved", records[1].Title)
	assert.Equal(t, "https://other.example.com/port", records[1].CanonicalURL)
}

func TestPageFetcherRequiresSelectors(t *testing.T) {
	_, err := NewPageFetcher(config.SourceConfig{ID: "x", Kind: "html", URL: "https://example.com"}, http.DefaultClient)
	require.Error(t, err)
}

func TestRegistryFetchAllSkipsFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			fmt.Fprint(w, `[1]`)
			return
		}
		fmt.Fprint(w, `{"id":1,"title":"one story","url":"https://example.com/one","score":5,"time":1756195200}`)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()

	registry, err := NewRegistry([]config.SourceConfig{
		{ID: "hn", Kind: "hn", URL: good.URL, Enabled: true},
		{ID: "feed", Kind: "rss", URL: bad.URL, Enabled: true},
		{ID: "off", Kind: "rss", URL: bad.URL, Enabled: false},
	}, http.DefaultClient, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"hn", "feed"}, registry.Sources())

	records := registry.FetchAll(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, "one story", records[0].Title)
}

func TestRegistryRejectsUnknownKind(t *testing.T) {
	_, err := NewRegistry([]config.SourceConfig{{ID: "x", Kind: "gopher", Enabled: true}}, nil, nil)
	require.Error(t, err)
}
