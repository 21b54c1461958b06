package parser

import (
	"context"
	"fmt"
	"log/slog"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
	"NewsClassifier/internal/scanner"
)

// StrategySource implements ports.FeedFetcher by dispatching on the feed kind.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.FeedFetcher = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Fetch resolves the scanner for feed.Kind (rss when empty) and runs it.
func (s *StrategySource) Fetch(ctx context.Context, feed domain.FeedSource) ([]domain.FeedEntry, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	kind := feed.Kind
	if kind == "" {
		kind = domain.FeedKindRSS
	}
	strategy, err := s.registry.Resolve(kind)
	if err != nil {
		return nil, &domain.FeedFetchError{FeedURL: feed.URL, Err: err}
	}

	s.debug("fetch feed", "feed", feed.Name, "kind", kind, "url", feed.URL)
	entries, err := strategy.Fetch(ctx, feed)
	if err != nil {
		return nil, err
	}
	s.debug("feed produced entries", "feed", feed.Name, "count", len(entries))
	return entries, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
