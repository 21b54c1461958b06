package usecase

import (
	"context"
	"fmt"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// FeedStats counts the items one feed produced by category and priority.
func FeedStats(ctx context.Context, store ports.ContentStore, feedID int64) (domain.FeedStats, error) {
	stats := domain.FeedStats{
		Categories: map[string]int{},
		Priorities: map[domain.Priority]int{},
	}

	feed, err := store.GetFeed(ctx, feedID)
	if err != nil {
		return stats, fmt.Errorf("load feed: %w", err)
	}
	items, err := store.ItemsBySource(ctx, feed.Name)
	if err != nil {
		return stats, fmt.Errorf("load feed items: %w", err)
	}

	stats.TotalItems = len(items)
	for _, item := range items {
		if item.Category != nil {
			stats.Categories[*item.Category]++
		}
		if item.Priority != nil {
			stats.Priorities[*item.Priority]++
		}
	}
	return stats, nil
}
