package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/metrics"
	"NewsClassifier/internal/ports"
)

// IngestionDeps wires all driven adapters into the ingestion engine.
type IngestionDeps struct {
	Feeds      ports.FeedRepository
	Content    ports.ContentRepository
	Fetcher    ports.FeedFetcher
	Classifier *ClassificationService
	Notifier   ports.Notifier
	Logger     *slog.Logger
	Now        func() time.Time
}

// Ingestion fetches due feeds, deduplicates entries by URL and stores classified items.
type Ingestion struct {
	feeds      ports.FeedRepository
	content    ports.ContentRepository
	fetcher    ports.FeedFetcher
	classifier *ClassificationService
	notifier   ports.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	FeedsDue      int
	FeedsFetched  int
	ItemsInserted int
	Failures      []FeedFailure
}

// FeedFailure records a feed that could not be processed in a run.
type FeedFailure struct {
	FeedID  int64
	FeedURL string
	Err     error
}

// MarshalJSON renders the cause as a string.
func (f FeedFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		FeedID  int64  `json:"feed_id"`
		FeedURL string `json:"feed_url"`
		Error   string `json:"error"`
	}{f.FeedID, f.FeedURL, msg})
}

// NewIngestion constructs the ingestion engine.
func NewIngestion(deps IngestionDeps) *Ingestion {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Ingestion{
		feeds:      deps.Feeds,
		content:    deps.Content,
		fetcher:    deps.Fetcher,
		classifier: deps.Classifier,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		now:        now,
	}
}

// FetchAllFeeds processes every active feed whose fetch interval has elapsed.
// Per-feed failures are logged and reported; only failing to list feeds is returned.
func (i *Ingestion) FetchAllFeeds(ctx context.Context) (IngestReport, error) {
	var report IngestReport
	if i.feeds == nil || i.content == nil || i.fetcher == nil {
		return report, nil
	}

	feeds, err := i.feeds.ActiveFeeds(ctx)
	if err != nil {
		return report, fmt.Errorf("load active feeds: %w", err)
	}

	var digest []domain.ContentItem
	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		now := i.now()
		if !feed.Due(now) {
			continue
		}
		report.FeedsDue++

		inserted, high, err := i.processFeed(ctx, feed, now)
		if err != nil {
			report.Failures = append(report.Failures, FeedFailure{FeedID: feed.ID, FeedURL: feed.URL, Err: err})
			i.logFeedFailure(feed, err)
			metrics.RecordFeedFetch("error", 0)
			continue
		}
		report.FeedsFetched++
		report.ItemsInserted += inserted
		digest = append(digest, high...)
		metrics.RecordFeedFetch("ok", inserted)
	}

	i.notify(ctx, digest)
	i.info("ingestion finished",
		"due", report.FeedsDue,
		"fetched", report.FeedsFetched,
		"failed", len(report.Failures),
		"inserted", report.ItemsInserted)
	return report, nil
}

// FetchFeed processes a single feed immediately, ignoring its fetch interval.
func (i *Ingestion) FetchFeed(ctx context.Context, feedID int64) (IngestReport, error) {
	var report IngestReport
	if i.feeds == nil || i.content == nil || i.fetcher == nil {
		return report, nil
	}

	feed, err := i.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return report, fmt.Errorf("load feed: %w", err)
	}
	report.FeedsDue = 1

	inserted, high, err := i.processFeed(ctx, feed, i.now())
	if err != nil {
		report.Failures = append(report.Failures, FeedFailure{FeedID: feed.ID, FeedURL: feed.URL, Err: err})
		metrics.RecordFeedFetch("error", 0)
		return report, err
	}
	report.FeedsFetched = 1
	report.ItemsInserted = inserted
	metrics.RecordFeedFetch("ok", inserted)

	i.notify(ctx, high)
	return report, nil
}

func (i *Ingestion) processFeed(ctx context.Context, feed domain.FeedSource, now time.Time) (int, []domain.ContentItem, error) {
	entries, err := i.fetcher.Fetch(ctx, feed)
	if err != nil {
		return 0, nil, err
	}

	urls := make([]string, 0, len(entries))
	unique := make([]domain.FeedEntry, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Link == "" || seen[entry.Link] {
			continue
		}
		seen[entry.Link] = true
		urls = append(urls, entry.Link)
		unique = append(unique, entry)
	}

	known, err := i.content.ExistingURLs(ctx, urls)
	if err != nil {
		return 0, nil, fmt.Errorf("load known urls for %s: %w", feed.URL, err)
	}

	items := make([]domain.ContentItem, 0, len(unique))
	for _, entry := range unique {
		if known[entry.Link] {
			continue
		}
		items = append(items, i.buildItem(feed, entry, now))
	}

	inserted, err := i.content.SaveFeedBatch(ctx, domain.FeedBatch{
		FeedID:    feed.ID,
		FetchedAt: now,
		Items:     items,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("save batch for %s: %w", feed.URL, err)
	}

	stored := make(map[string]bool, len(inserted))
	for _, url := range inserted {
		stored[url] = true
	}
	var high []domain.ContentItem
	for _, item := range items {
		if stored[item.URL] && item.Priority != nil && *item.Priority == domain.PriorityHigh {
			high = append(high, item)
		}
	}

	i.debug("feed processed", "feed", feed.Name, "entries", len(entries), "new", len(items), "inserted", len(inserted))
	return len(inserted), high, nil
}

func (i *Ingestion) buildItem(feed domain.FeedSource, entry domain.FeedEntry, now time.Time) domain.ContentItem {
	classification := i.classifier.Classify(entry.Title, entry.Summary)

	published := now
	if entry.Published != nil {
		published = *entry.Published
	}
	category := classification.Category
	priority := classification.Priority

	return domain.ContentItem{
		URL:          entry.Link,
		Title:        entry.Title,
		Source:       feed.Name,
		Summary:      entry.Summary,
		Category:     &category,
		Priority:     &priority,
		KeyTerms:     classification.TermStrings(),
		PublishedAt:  &published,
		DiscoveredAt: now,
	}
}

func (i *Ingestion) notify(ctx context.Context, items []domain.ContentItem) {
	if i.notifier == nil || len(items) == 0 {
		return
	}
	if err := i.notifier.PublishDigest(ctx, buildDigestMessage(items)); err != nil && i.logger != nil {
		i.logger.Warn("publish digest failed", "items", len(items), "error", err)
	}
}

func (i *Ingestion) logFeedFailure(feed domain.FeedSource, err error) {
	if i.logger == nil {
		return
	}
	kind := "store"
	var fetchErr *domain.FeedFetchError
	var parseErr *domain.FeedParseError
	switch {
	case errors.As(err, &fetchErr):
		kind = "fetch"
	case errors.As(err, &parseErr):
		kind = "parse"
	}
	i.logger.Error("feed failed", "feed", feed.Name, "url", feed.URL, "kind", kind, "error", err)
}

func (i *Ingestion) info(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

func (i *Ingestion) debug(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Debug(msg, args...)
	}
}

func buildDigestMessage(items []domain.ContentItem) string {
	var b strings.Builder
	for _, item := range items {
		category := domain.DefaultCategory
		if item.Category != nil {
			category = *item.Category
		}
		fmt.Fprintf(&b, "- %s\n%s | %s\n%s\n\n", item.Title, item.Source, category, item.URL)
	}
	return b.String()
}
