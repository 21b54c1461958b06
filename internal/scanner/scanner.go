package scanner

import (
	"context"
	"fmt"

	"NewsClassifier/internal/domain"
)

// Scanner fetches one kind of feed (RSS/Atom, arXiv listings, ...).
type Scanner interface {
	Name() string
	Fetch(ctx context.Context, feed domain.FeedSource) ([]domain.FeedEntry, error)
}

// Registry keeps a mapping from feed kinds to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
