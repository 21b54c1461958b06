package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/scanner"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>AI Weekly</title>
    <item>
      <title>  Model tops benchmark </title>
      <link>https://example.com/a</link>
      <description>&lt;p&gt;A &lt;b&gt;new&lt;/b&gt; model &amp;amp; tools&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>No date here</title>
      <link>https://example.com/b</link>
      <pubDate>sometime last week</pubDate>
    </item>
    <item>
      <title>Missing link</title>
    </item>
  </channel>
</rss>`

func TestRSSFetcherFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewRSSFetcher(server.Client(), HTTPOptions{})
	entries, err := fetcher.Fetch(context.Background(), domain.FeedSource{URL: server.URL})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Model tops benchmark", entries[0].Title)
	assert.Equal(t, "https://example.com/a", entries[0].Link)
	assert.Equal(t, "A new model & tools", entries[0].Summary)
	require.NotNil(t, entries[0].Published)
	assert.True(t, entries[0].Published.Equal(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)))

	assert.Nil(t, entries[1].Published)
	assert.Empty(t, entries[1].Summary)
}

func TestRSSFetcherErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			_, _ = w.Write([]byte("this is not a feed"))
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	defer server.Close()

	fetcher := NewRSSFetcher(server.Client(), HTTPOptions{})

	_, err := fetcher.Fetch(context.Background(), domain.FeedSource{URL: server.URL + "/broken"})
	var parseErr *domain.FeedParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, server.URL+"/broken", parseErr.FeedURL)

	_, err = fetcher.Fetch(context.Background(), domain.FeedSource{URL: server.URL + "/missing"})
	var fetchErr *domain.FeedFetchError
	require.ErrorAs(t, err, &fetchErr)

	_, err = fetcher.Fetch(context.Background(), domain.FeedSource{URL: "ftp://example.com/feed"})
	require.ErrorAs(t, err, &fetchErr)
}

func TestStrategySourceDispatchesOnKind(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	reg := scanner.NewRegistry()
	reg.Register(NewRSSFetcher(server.Client(), HTTPOptions{}))
	source := NewStrategySource(reg, nil)

	entries, err := source.Fetch(context.Background(), domain.FeedSource{URL: server.URL})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = source.Fetch(context.Background(), domain.FeedSource{URL: server.URL, Kind: "gopher"})
	var fetchErr *domain.FeedFetchError
	require.ErrorAs(t, err, &fetchErr)
}
