package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsClassifier/internal/config"
	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/infrastructure/modelstore"
	"NewsClassifier/internal/infrastructure/storage"
)

type staticFetcher map[string][]domain.FeedEntry

func (f staticFetcher) Fetch(_ context.Context, feed domain.FeedSource) ([]domain.FeedEntry, error) {
	entries, ok := f[feed.URL]
	if !ok {
		return nil, &domain.FeedFetchError{FeedURL: feed.URL, Err: fmt.Errorf("unknown feed")}
	}
	return entries, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	cfg := config.Load()
	cfg.Model.Trees = 10
	cfg.Metrics.Addr = ""
	return cfg
}

func seed(store *storage.MemoryStore) {
	stories := []struct {
		title, summary, category string
		priority                 domain.Priority
	}{
		{"Neural network beats benchmark", "A new neural network model tops the language benchmark", "AI", domain.PriorityHigh},
		{"Language model release", "Open language model with neural network weights released", "AI", domain.PriorityLow},
		{"Stock market rally", "Investors push the stock market to record highs", "Markets", domain.PriorityLow},
		{"Stock market slump", "Tech stock prices fall as investors sell", "Markets", domain.PriorityLow},
	}
	for round := 0; round < 3; round++ {
		for i, s := range stories {
			category, priority := s.category, s.priority
			store.AddItem(domain.ContentItem{
				URL:      fmt.Sprintf("https://seed.example.com/%d/%d", round, i),
				Title:    s.title,
				Summary:  s.summary,
				Source:   "seed",
				Category: &category,
				Priority: &priority,
			})
		}
	}
}

func TestApplicationOperations(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seed(store)
	store.AddFeed(domain.FeedSource{ID: 3, Name: "AI Weekly", URL: "https://feeds.example.com/ai", Active: true})
	models := modelstore.NewFileStore(t.TempDir())
	fetcher := staticFetcher{"https://feeds.example.com/ai": {
		{Title: "Neural network chips", Link: "https://example.com/chips", Summary: "Startup ships neural network accelerator"},
	}}

	a, err := New(testConfig(), quietLogger(), WithContentStore(store), WithModelStore(models), WithFetcher(fetcher))
	require.NoError(t, err)
	defer a.Close()

	got := a.Classify("Title", "Summary")
	assert.Equal(t, domain.DefaultCategory, got.Category)

	loaded, err := a.LoadModel(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)

	report, err := a.TrainModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, report.Samples)

	ingest, err := a.FetchAllFeeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ingest.ItemsInserted)

	stats, err := a.FeedStats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalItems)

	feedback, err := a.UpdateFromInteractions(ctx)
	require.NoError(t, err)
	assert.Zero(t, feedback.Events)

	restarted, err := New(testConfig(), quietLogger(), WithContentStore(store), WithModelStore(models), WithFetcher(fetcher))
	require.NoError(t, err)
	loaded, err = restarted.LoadModel(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, a.Classify("Stock market", "investors sell"), restarted.Classify("Stock market", "investors sell"))

	_, err = a.Migrate()
	require.Error(t, err)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ModelStore.Backend = "s3"
	_, err := New(cfg, quietLogger(), WithContentStore(storage.NewMemoryStore()))
	require.Error(t, err)

	cfg = testConfig()
	cfg.Scheduler.IngestSpec = "whenever"
	_, err = New(cfg, quietLogger(), WithContentStore(storage.NewMemoryStore()))
	require.Error(t, err)
}
