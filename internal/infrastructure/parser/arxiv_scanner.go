package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/scanner"
)

const (
	arxivBaseURL     = "https://arxiv.org"
	defaultArxivShow = 200
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner reads arXiv listing pages, which have no syndication document of their own.
type ArxivScanner struct {
	docs     *documentFetcher
	pageSize int
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivScanner(client *http.Client, opts HTTPOptions) *ArxivScanner {
	return &ArxivScanner{docs: newDocumentFetcher(client, opts), pageSize: defaultArxivShow}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return domain.FeedKindArxiv
}

// Fetch reads the first listing page of the feed URL.
func (a *ArxivScanner) Fetch(ctx context.Context, feed domain.FeedSource) ([]domain.FeedEntry, error) {
	pageURL, err := buildPageURL(feed.URL, 0, a.pageSize)
	if err != nil {
		return nil, &domain.FeedFetchError{FeedURL: feed.URL, Err: err}
	}

	body, err := a.docs.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FeedParseError{FeedURL: feed.URL, Err: err}
	}

	if doc.Find("dl > dt").Length() == 0 {
		return nil, &domain.FeedParseError{FeedURL: feed.URL, Err: fmt.Errorf("no listing entries found")}
	}

	var entries []domain.FeedEntry
	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		entry, ok := parseEntry(dt, dt.Next())
		if ok {
			entries = append(entries, entry)
		}
	})
	return entries, nil
}

func parseEntry(dt, dd *goquery.Selection) (domain.FeedEntry, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, exists := link.Attr("href")
	if !exists || href == "" {
		return domain.FeedEntry{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimPrefix(title, "Title:")
	title = strings.TrimSpace(title)

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:")
	summary = strings.TrimSpace(summary)

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	entry := domain.FeedEntry{Title: title, Link: href, Summary: summary}
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			entry.Published = &parsed
		}
	}
	return entry, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
