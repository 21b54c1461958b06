// Package classifier holds the category and priority models and their persisted snapshot.
package classifier

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/textfeatures"
)

// Options tune training. Zero values fall back to the defaults below.
type Options struct {
	Seed                  uint64
	Trees                 int
	CategoryMaxDepth      int
	PriorityMaxDepth      int
	MaxFeatures           int
	MinDF                 int
	HighPriorityThreshold float64
	KeyTerms              int
}

// DefaultOptions mirrors the tuning the classifier has always shipped with.
func DefaultOptions() Options {
	return Options{
		Seed:                  42,
		Trees:                 100,
		CategoryMaxDepth:      10,
		PriorityMaxDepth:      5,
		MaxFeatures:           textfeatures.DefaultMaxFeatures,
		MinDF:                 textfeatures.DefaultMinDF,
		HighPriorityThreshold: 0.7,
		KeyTerms:              domain.MaxKeyTerms,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.CategoryMaxDepth <= 0 {
		o.CategoryMaxDepth = d.CategoryMaxDepth
	}
	if o.PriorityMaxDepth <= 0 {
		o.PriorityMaxDepth = d.PriorityMaxDepth
	}
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = d.MaxFeatures
	}
	if o.MinDF <= 0 {
		o.MinDF = d.MinDF
	}
	if o.HighPriorityThreshold <= 0 || o.HighPriorityThreshold >= 1 {
		o.HighPriorityThreshold = d.HighPriorityThreshold
	}
	if o.KeyTerms <= 0 {
		o.KeyTerms = d.KeyTerms
	}
	return o
}

// Model is an immutable fitted snapshot: vocabulary, both forests and the category labels.
// A new training run always produces a new Model.
type Model struct {
	ID        string
	TrainedAt time.Time

	vectorizer *textfeatures.Vectorizer
	category   *Forest
	priority   *Forest
	labels     []string
	threshold  float64
	keyTerms   int
}

// Prediction is the raw model output for one text.
type Prediction struct {
	Category           string
	CategoryConfidence float64
	Priority           domain.Priority
	PriorityConfidence float64
	KeyTerms           []domain.Term
}

// Train fits a fresh model. Label ids are rebuilt from the sorted distinct categories,
// so only the label strings are stable across retrains.
func Train(ctx context.Context, texts, categories, priorities []string, opts Options) (*Model, error) {
	if len(texts) != len(categories) || len(texts) != len(priorities) {
		return nil, fmt.Errorf("train: %d texts, %d categories, %d priorities: %w",
			len(texts), len(categories), len(priorities), ErrLengthMismatch)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("train: empty corpus: %w", domain.ErrNotEnoughData)
	}
	opts = opts.withDefaults()

	vectorizer := textfeatures.NewVectorizer(opts.MaxFeatures, opts.MinDF)
	if err := vectorizer.Fit(texts); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	features, err := vectorizer.Transform(texts)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	labels, encoded := encodeLabels(categories)
	category, err := FitForest(ctx, features, encoded, len(labels), ForestConfig{
		Trees:    opts.Trees,
		MaxDepth: opts.CategoryMaxDepth,
		Seed:     opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("train category model: %w", err)
	}

	binary := make([]int, len(priorities))
	for i, p := range priorities {
		if domain.Priority(p) == domain.PriorityHigh {
			binary[i] = 1
		}
	}
	priority, err := FitForest(ctx, features, binary, 2, ForestConfig{
		Trees:    opts.Trees,
		MaxDepth: opts.PriorityMaxDepth,
		Seed:     opts.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("train priority model: %w", err)
	}

	return &Model{
		ID:         uuid.NewString(),
		TrainedAt:  time.Now().UTC(),
		vectorizer: vectorizer,
		category:   category,
		priority:   priority,
		labels:     labels,
		threshold:  opts.HighPriorityThreshold,
		keyTerms:   opts.KeyTerms,
	}, nil
}

// Predict classifies a single text.
func (m *Model) Predict(text string) (Prediction, error) {
	if m == nil || !m.vectorizer.Fitted() {
		return Prediction{}, domain.ErrNotFitted
	}
	vecs, err := m.vectorizer.Transform([]string{text})
	if err != nil {
		return Prediction{}, err
	}
	features := vecs[0]

	categoryProba := m.category.PredictProba(features)
	best := 0
	for c, p := range categoryProba {
		if p > categoryProba[best] {
			best = c
		}
	}

	priorityProba := m.priority.PredictProba(features)
	positive := priorityProba[1]
	priority := domain.PriorityLow
	if positive > m.threshold {
		priority = domain.PriorityHigh
	}

	keyTerms, err := m.vectorizer.TopTerms(text, m.keyTerms)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{
		Category:           m.labels[best],
		CategoryConfidence: categoryProba[best],
		Priority:           priority,
		PriorityConfidence: positive,
		KeyTerms:           keyTerms,
	}, nil
}

// Labels returns the category labels in encoded order.
func (m *Model) Labels() []string {
	return append([]string(nil), m.labels...)
}

// Vocabulary returns the fitted terms in feature order.
func (m *Model) Vocabulary() []string {
	return m.vectorizer.Terms()
}

func encodeLabels(categories []string) ([]string, []int) {
	set := map[string]struct{}{}
	for _, c := range categories {
		set[c] = struct{}{}
	}
	labels := make([]string, 0, len(set))
	for c := range set {
		labels = append(labels, c)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	encoded := make([]int, len(categories))
	for i, c := range categories {
		encoded[i] = index[c]
	}
	return labels, encoded
}
