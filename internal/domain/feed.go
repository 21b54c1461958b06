package domain

import "time"

// Feed kinds select the fetch strategy registered in scanner.Registry.
const (
	FeedKindRSS   = "rss"
	FeedKindArxiv = "arxiv"
)

// DefaultFetchInterval applies to feeds without an explicit interval.
const DefaultFetchInterval = time.Hour

// FeedSource is a periodically polled syndication endpoint.
type FeedSource struct {
	ID            int64
	Name          string
	URL           string
	Kind          string
	Active        bool
	LastFetched   *time.Time
	FetchInterval time.Duration
}

// Due reports whether the feed's fetch interval has elapsed at now.
func (f FeedSource) Due(now time.Time) bool {
	if !f.Active {
		return false
	}
	if f.LastFetched == nil {
		return true
	}
	interval := f.FetchInterval
	if interval <= 0 {
		interval = DefaultFetchInterval
	}
	return !now.Before(f.LastFetched.Add(interval))
}

// FeedBatch is the only write the ingestion engine performs: new items for one feed
// plus that feed's last-fetched timestamp, committed together.
type FeedBatch struct {
	FeedID    int64
	FetchedAt time.Time
	Items     []ContentItem
}

// FeedStats summarizes items ingested from a single feed.
type FeedStats struct {
	TotalItems int
	Categories map[string]int
	Priorities map[Priority]int
}
