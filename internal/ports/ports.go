package ports

import (
	"context"
	"time"

	"NewsClassifier/internal/domain"
)

// FeedRepository exposes the feed rows the ingestion engine reads and advances.
type FeedRepository interface {
	ActiveFeeds(ctx context.Context) ([]domain.FeedSource, error)
	GetFeed(ctx context.Context, id int64) (domain.FeedSource, error)
}

// ContentRepository persists content items for deduplication and training.
type ContentRepository interface {
	// ExistingURLs returns the subset of urls already stored.
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	// SaveFeedBatch inserts new items (skipping known URLs) and advances the feed's
	// last-fetched timestamp in one transaction. It returns the URLs actually inserted;
	// items lost to a concurrent writer are not among them.
	SaveFeedBatch(ctx context.Context, batch domain.FeedBatch) ([]string, error)
	LabeledItems(ctx context.Context) ([]domain.ContentItem, error)
	ItemsByCategory(ctx context.Context, category string) ([]domain.ContentItem, error)
	ItemsBySource(ctx context.Context, source string) ([]domain.ContentItem, error)
	UpdateClassification(ctx context.Context, update domain.ClassificationUpdate) error
}

// InteractionRepository reads the interaction log and applies feedback promotions.
type InteractionRepository interface {
	InteractionsSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error)
	// PromotePriority sets High unless the item already is High. It reports whether a row changed.
	PromotePriority(ctx context.Context, promotion domain.PriorityPromotion) (bool, error)
}

// ContentStore is the full store contract consumed by the core.
type ContentStore interface {
	FeedRepository
	ContentRepository
	InteractionRepository
}

// FeedFetcher downloads and parses one feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, feed domain.FeedSource) ([]domain.FeedEntry, error)
}

// ModelStore keeps the serialized classifier snapshot. Save must be atomic.
type ModelStore interface {
	Save(ctx context.Context, payload []byte) error
	// Load returns domain.ErrNoSavedModel when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
}

// Notifier streams selected digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler drives one periodic cycle.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context, time.Time)) error
	Stop(ctx context.Context) error
}
