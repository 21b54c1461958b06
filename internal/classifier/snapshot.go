package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
	"NewsClassifier/internal/textfeatures"
)

const snapshotVersion = 1

// snapshot is the single persisted unit. Every section is required.
type snapshot struct {
	Version        int       `json:"version"`
	ID             string    `json:"id"`
	TrainedAt      time.Time `json:"trained_at"`
	Vocabulary     []string  `json:"vocabulary"`
	IDF            []float64 `json:"idf"`
	CategoryLabels []string  `json:"category_labels"`
	CategoryForest *Forest   `json:"category_forest"`
	PriorityForest *Forest   `json:"priority_forest"`
	Threshold      float64   `json:"threshold"`
	KeyTerms       int       `json:"key_terms"`
}

// Persist writes the whole model as one blob; the store guarantees the write is atomic.
func Persist(ctx context.Context, store ports.ModelStore, m *Model) error {
	if m == nil || !m.vectorizer.Fitted() {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, domain.ErrNotFitted)
	}
	payload, err := json.Marshal(snapshot{
		Version:        snapshotVersion,
		ID:             m.ID,
		TrainedAt:      m.TrainedAt,
		Vocabulary:     m.vectorizer.Terms(),
		IDF:            m.vectorizer.IDF(),
		CategoryLabels: m.labels,
		CategoryForest: m.category,
		PriorityForest: m.priority,
		Threshold:      m.threshold,
		KeyTerms:       m.keyTerms,
	})
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", domain.ErrPersistence, err)
	}
	if err := store.Save(ctx, payload); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Restore loads the last persisted model. Missing or incomplete snapshots yield ErrNoSavedModel.
func Restore(ctx context.Context, store ports.ModelStore) (*Model, error) {
	payload, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSavedModel) {
			return nil, err
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w: %w", domain.ErrNoSavedModel, err)
	}
	if err := snap.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoSavedModel, err)
	}

	vectorizer, err := textfeatures.RestoreVectorizer(snap.Vocabulary, snap.IDF)
	if err != nil {
		return nil, err
	}

	opts := Options{HighPriorityThreshold: snap.Threshold, KeyTerms: snap.KeyTerms}.withDefaults()
	return &Model{
		ID:         snap.ID,
		TrainedAt:  snap.TrainedAt,
		vectorizer: vectorizer,
		category:   snap.CategoryForest,
		priority:   snap.PriorityForest,
		labels:     snap.CategoryLabels,
		threshold:  opts.HighPriorityThreshold,
		keyTerms:   opts.KeyTerms,
	}, nil
}

func (s snapshot) validate() error {
	if s.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	switch {
	case len(s.Vocabulary) == 0:
		return errors.New("vocabulary missing")
	case len(s.CategoryLabels) == 0:
		return errors.New("category labels missing")
	case s.CategoryForest == nil || len(s.CategoryForest.Trees) == 0:
		return errors.New("category model missing")
	case s.PriorityForest == nil || len(s.PriorityForest.Trees) == 0:
		return errors.New("priority model missing")
	}
	if s.CategoryForest.Classes != len(s.CategoryLabels) {
		return fmt.Errorf("category model has %d classes for %d labels", s.CategoryForest.Classes, len(s.CategoryLabels))
	}
	if s.PriorityForest.Classes != 2 {
		return fmt.Errorf("priority model has %d classes", s.PriorityForest.Classes)
	}
	for _, forest := range []*Forest{s.CategoryForest, s.PriorityForest} {
		for i, tree := range forest.Trees {
			if tree == nil {
				return fmt.Errorf("tree %d missing", i)
			}
			if err := tree.validate(forest.Classes, len(s.Vocabulary)); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	}
	return nil
}
