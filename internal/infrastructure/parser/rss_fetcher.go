package parser

import (
	"bytes"
	"context"
	"html"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/scanner"
)

// RSSFetcher reads RSS, Atom and JSON feeds.
type RSSFetcher struct {
	docs     *documentFetcher
	sanitize *bluemonday.Policy
}

var _ scanner.Scanner = (*RSSFetcher)(nil)

// NewRSSFetcher wires an HTTP client; nil uses a client with opts.Timeout.
func NewRSSFetcher(client *http.Client, opts HTTPOptions) *RSSFetcher {
	return &RSSFetcher{
		docs:     newDocumentFetcher(client, opts),
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Name identifies the strategy inside the registry.
func (r *RSSFetcher) Name() string {
	return domain.FeedKindRSS
}

// Fetch downloads and parses the feed. Entries without a link are dropped.
func (r *RSSFetcher) Fetch(ctx context.Context, feed domain.FeedSource) ([]domain.FeedEntry, error) {
	body, err := r.docs.get(ctx, feed.URL)
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FeedParseError{FeedURL: feed.URL, Err: err}
	}

	entries := make([]domain.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		entry := domain.FeedEntry{
			Title:   strings.TrimSpace(item.Title),
			Link:    link,
			Summary: r.plainText(summary),
		}
		if item.PublishedParsed != nil {
			published := item.PublishedParsed.UTC()
			entry.Published = &published
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *RSSFetcher) plainText(s string) string {
	s = html.UnescapeString(r.sanitize.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}
