package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/infrastructure/storage"
)

func newFeedbackFixture(now time.Time) (*FeedbackAdapter, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	adapter := NewFeedbackAdapter(store, FeedbackOptions{}, nil)
	adapter.now = func() time.Time { return now }
	return adapter, store
}

func addEvents(store *storage.MemoryStore, item int64, at time.Time, kinds ...domain.InteractionKind) {
	for _, kind := range kinds {
		store.AddInteraction(domain.InteractionEvent{ItemID: item, Kind: kind, OccurredAt: at})
	}
}

func priorityOf(t *testing.T, store *storage.MemoryStore, id int64) domain.Priority {
	t.Helper()
	for _, item := range store.Items() {
		if item.ID == id {
			require.NotNil(t, item.Priority)
			return *item.Priority
		}
	}
	t.Fatalf("item %d not found", id)
	return ""
}

func TestFeedbackThresholdBoundary(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	adapter, store := newFeedbackFixture(now)

	low := domain.PriorityLow
	clicked := store.AddItem(domain.ContentItem{URL: "https://example.com/clicked", Priority: &low})
	engaged := store.AddItem(domain.ContentItem{URL: "https://example.com/engaged", Priority: &low})

	addEvents(store, clicked, now.Add(-time.Hour), domain.InteractionClick, domain.InteractionClick)
	addEvents(store, engaged, now.Add(-time.Hour),
		domain.InteractionSave, domain.InteractionClick, domain.InteractionClick, domain.InteractionClick)

	report, err := adapter.UpdateFromInteractions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, report.Events)
	assert.Equal(t, []int64{engaged}, report.Promoted)
	assert.Equal(t, domain.PriorityLow, priorityOf(t, store, clicked))
	assert.Equal(t, domain.PriorityHigh, priorityOf(t, store, engaged))
}

func TestFeedbackIsMonotonicRatchet(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	adapter, store := newFeedbackFixture(now)

	high := domain.PriorityHigh
	low := domain.PriorityLow
	quiet := store.AddItem(domain.ContentItem{URL: "https://example.com/quiet", Priority: &high})
	dismissed := store.AddItem(domain.ContentItem{URL: "https://example.com/dismissed", Priority: &high})
	hot := store.AddItem(domain.ContentItem{URL: "https://example.com/hot", Priority: &low})

	addEvents(store, dismissed, now.Add(-time.Hour),
		domain.InteractionDismiss, domain.InteractionDismiss, domain.InteractionShare)
	addEvents(store, hot, now.Add(-2*time.Hour),
		domain.InteractionSave, domain.InteractionSave, domain.InteractionSave)

	for run := 0; run < 2; run++ {
		report, err := adapter.UpdateFromInteractions(context.Background())
		require.NoError(t, err)
		if run == 0 {
			assert.Equal(t, []int64{hot}, report.Promoted)
		} else {
			assert.Empty(t, report.Promoted, "already High items are not promoted again")
		}
	}

	assert.Equal(t, domain.PriorityHigh, priorityOf(t, store, quiet))
	assert.Equal(t, domain.PriorityHigh, priorityOf(t, store, dismissed))
	assert.Equal(t, domain.PriorityHigh, priorityOf(t, store, hot))
}

func TestFeedbackIgnoresEventsOutsideWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	adapter, store := newFeedbackFixture(now)

	low := domain.PriorityLow
	stale := store.AddItem(domain.ContentItem{URL: "https://example.com/stale", Priority: &low})
	addEvents(store, stale, now.Add(-8*24*time.Hour),
		domain.InteractionSave, domain.InteractionSave, domain.InteractionSave)

	report, err := adapter.UpdateFromInteractions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Events)
	assert.Empty(t, report.Promoted)
	assert.Equal(t, domain.PriorityLow, priorityOf(t, store, stale))
}

func TestScore(t *testing.T) {
	t.Parallel()
	events := []domain.InteractionEvent{
		{ItemID: 1, Kind: domain.InteractionSave},
		{ItemID: 1, Kind: domain.InteractionClick},
		{ItemID: 2, Kind: domain.InteractionShare},
		{ItemID: 2, Kind: "unknown"},
	}
	scores := Score(events, DefaultFeedbackOptions().Weights)
	assert.Equal(t, map[int64]int{1: 3, 2: 0}, scores)
}
