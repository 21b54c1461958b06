package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// MemoryStore is a process-local ContentStore used by the CLI dry runs and tests.
type MemoryStore struct {
	mu           sync.Mutex
	feeds        map[int64]domain.FeedSource
	items        []domain.ContentItem
	byURL        map[string]int
	interactions []domain.InteractionEvent
	nextItemID   int64
}

var _ ports.ContentStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		feeds: make(map[int64]domain.FeedSource),
		byURL: make(map[string]int),
	}
}

// AddFeed registers or replaces a feed.
func (s *MemoryStore) AddFeed(feed domain.FeedSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[feed.ID] = feed
}

// AddItem stores an item unless its URL is already known and returns the stored id.
func (s *MemoryStore) AddItem(item domain.ContentItem) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.insertLocked(item)
	return id
}

// AddInteraction appends an interaction event.
func (s *MemoryStore) AddInteraction(event domain.InteractionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == 0 {
		event.ID = int64(len(s.interactions) + 1)
	}
	s.interactions = append(s.interactions, event)
}

// Items returns a copy of every stored item in insertion order.
func (s *MemoryStore) Items() []domain.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, cloneItem(item))
	}
	return out
}

// Feed returns the current state of one feed.
func (s *MemoryStore) Feed(id int64) (domain.FeedSource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[id]
	return feed, ok
}

func (s *MemoryStore) ActiveFeeds(ctx context.Context) ([]domain.FeedSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.FeedSource
	for _, feed := range s.feeds {
		if feed.Active {
			out = append(out, feed)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetFeed(ctx context.Context, id int64) (domain.FeedSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[id]
	if !ok {
		return domain.FeedSource{}, fmt.Errorf("feed %d: %w", id, domain.ErrFeedNotFound)
	}
	return feed, nil
}

func (s *MemoryStore) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool)
	for _, u := range urls {
		if _, ok := s.byURL[u]; ok {
			out[u] = true
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveFeedBatch(ctx context.Context, batch domain.FeedBatch) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []string
	for _, item := range batch.Items {
		if _, ok := s.insertLocked(item); ok {
			inserted = append(inserted, item.URL)
		}
	}
	if feed, ok := s.feeds[batch.FeedID]; ok {
		fetched := batch.FetchedAt
		feed.LastFetched = &fetched
		s.feeds[batch.FeedID] = feed
	}
	return inserted, nil
}

func (s *MemoryStore) LabeledItems(ctx context.Context) ([]domain.ContentItem, error) {
	return s.filter(func(item domain.ContentItem) bool { return item.Labeled() }), nil
}

func (s *MemoryStore) ItemsByCategory(ctx context.Context, category string) ([]domain.ContentItem, error) {
	return s.filter(func(item domain.ContentItem) bool {
		return item.Category != nil && *item.Category == category
	}), nil
}

func (s *MemoryStore) ItemsBySource(ctx context.Context, source string) ([]domain.ContentItem, error) {
	return s.filter(func(item domain.ContentItem) bool { return item.Source == source }), nil
}

func (s *MemoryStore) UpdateClassification(ctx context.Context, update domain.ClassificationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexByID(update.ItemID)
	if !ok {
		return nil
	}
	category := update.Category
	s.items[idx].Category = &category
	if current := s.items[idx].Priority; current == nil || *current != domain.PriorityHigh {
		priority := update.Priority
		s.items[idx].Priority = &priority
	}
	s.items[idx].KeyTerms = append([]string{}, update.KeyTerms...)
	return nil
}

func (s *MemoryStore) InteractionsSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.InteractionEvent
	for _, event := range s.interactions {
		if !event.OccurredAt.Before(since) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *MemoryStore) PromotePriority(ctx context.Context, promotion domain.PriorityPromotion) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexByID(promotion.ItemID)
	if !ok {
		return false, nil
	}
	current := s.items[idx].Priority
	if current != nil && *current == domain.PriorityHigh {
		return false, nil
	}
	high := domain.PriorityHigh
	s.items[idx].Priority = &high
	return true, nil
}

func (s *MemoryStore) filter(keep func(domain.ContentItem) bool) []domain.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ContentItem
	for _, item := range s.items {
		if keep(item) {
			out = append(out, cloneItem(item))
		}
	}
	return out
}

func (s *MemoryStore) insertLocked(item domain.ContentItem) (int64, bool) {
	if idx, ok := s.byURL[item.URL]; ok {
		return s.items[idx].ID, false
	}
	s.nextItemID++
	item.ID = s.nextItemID
	item = cloneItem(item)
	s.byURL[item.URL] = len(s.items)
	s.items = append(s.items, item)
	return item.ID, true
}

func (s *MemoryStore) indexByID(id int64) (int, bool) {
	for i, item := range s.items {
		if item.ID == id {
			return i, true
		}
	}
	return 0, false
}

func cloneItem(item domain.ContentItem) domain.ContentItem {
	if item.Category != nil {
		c := *item.Category
		item.Category = &c
	}
	if item.Priority != nil {
		p := *item.Priority
		item.Priority = &p
	}
	if item.PublishedAt != nil {
		t := *item.PublishedAt
		item.PublishedAt = &t
	}
	if item.KeyTerms != nil {
		item.KeyTerms = append([]string{}, item.KeyTerms...)
	}
	return item
}
