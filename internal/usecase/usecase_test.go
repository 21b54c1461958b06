package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/infrastructure/storage"
)

type fetchResult struct {
	entries []domain.FeedEntry
	err     error
}

type fakeFetcher struct {
	mu      sync.Mutex
	results map[string]fetchResult
	calls   map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{results: map[string]fetchResult{}, calls: map[string]int{}}
}

func (f *fakeFetcher) set(url string, entries []domain.FeedEntry, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[url] = fetchResult{entries: entries, err: err}
}

func (f *fakeFetcher) Fetch(_ context.Context, feed domain.FeedSource) ([]domain.FeedEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[feed.URL]++
	res, ok := f.results[feed.URL]
	if !ok {
		return nil, &domain.FeedFetchError{FeedURL: feed.URL, Err: fmt.Errorf("no fixture")}
	}
	return res.entries, res.err
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type recordingNotifier struct {
	mu      sync.Mutex
	digests []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type modelBlob struct {
	mu      sync.Mutex
	payload []byte
	saveErr error
}

func (m *modelBlob) Save(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.payload = append([]byte(nil), payload...)
	return nil
}

func (m *modelBlob) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payload == nil {
		return nil, domain.ErrNoSavedModel
	}
	return m.payload, nil
}

var (
	aiStories = [][2]string{
		{"Neural network beats benchmark", "A new neural network model tops the language benchmark"},
		{"Language model release", "Open language model with neural network weights released"},
		{"Transformer research", "Researchers scale transformer language model training"},
		{"Neural network chips", "Startup ships neural network accelerator for model training"},
	}
	marketStories = [][2]string{
		{"Stock market rally", "Investors push the stock market to record highs"},
		{"Bond yields climb", "Bond market investors react to interest rate outlook"},
		{"Stock market slump", "Tech stock prices fall as investors sell"},
		{"Central bank decision", "Market investors await central bank rate decision"},
	}
)

// seedLabeled stores three labeled copies of every story.
func seedLabeled(store *storage.MemoryStore) {
	for round := 0; round < 3; round++ {
		for i, story := range aiStories {
			priority := domain.PriorityLow
			if i%2 == 0 {
				priority = domain.PriorityHigh
			}
			addLabeled(store, fmt.Sprintf("https://ai.example.com/%d/%d", round, i), story, "AI", priority)
		}
		for i, story := range marketStories {
			addLabeled(store, fmt.Sprintf("https://markets.example.com/%d/%d", round, i), story, "Markets", domain.PriorityLow)
		}
	}
}

func addLabeled(store *storage.MemoryStore, url string, story [2]string, category string, priority domain.Priority) int64 {
	return store.AddItem(domain.ContentItem{
		URL:      url,
		Title:    story[0],
		Summary:  story[1],
		Source:   "seed",
		Category: &category,
		Priority: &priority,
	})
}
