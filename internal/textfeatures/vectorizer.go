package textfeatures

import (
	"fmt"
	"math"
	"sort"

	"NewsClassifier/internal/domain"
)

const (
	DefaultMaxFeatures = 1000
	DefaultMinDF       = 2
)

// Vectorizer learns a bounded unigram+bigram vocabulary and maps text onto it.
// Fit replaces the vocabulary in place, so a Vectorizer shared between readers must not be refit.
type Vectorizer struct {
	maxFeatures int
	minDF       int

	terms      []string
	idf        []float64
	vocabulary map[string]int
}

// NewVectorizer returns an unfitted vectorizer. Non-positive limits fall back to defaults.
func NewVectorizer(maxFeatures, minDF int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	if minDF <= 0 {
		minDF = DefaultMinDF
	}
	return &Vectorizer{maxFeatures: maxFeatures, minDF: minDF}
}

// RestoreVectorizer rebuilds a fitted vectorizer from its persisted vocabulary and weights.
func RestoreVectorizer(terms []string, idf []float64) (*Vectorizer, error) {
	if len(terms) == 0 || len(terms) != len(idf) {
		return nil, fmt.Errorf("vocabulary has %d terms and %d weights: %w", len(terms), len(idf), domain.ErrNoSavedModel)
	}
	v := &Vectorizer{maxFeatures: len(terms), minDF: DefaultMinDF}
	v.setVocabulary(append([]string(nil), terms...), append([]float64(nil), idf...))
	return v, nil
}

// Fitted reports whether a vocabulary has been learned.
func (v *Vectorizer) Fitted() bool {
	return v != nil && len(v.terms) > 0
}

// Dimension is the width of every vector produced by Transform.
func (v *Vectorizer) Dimension() int {
	return len(v.terms)
}

// Terms returns a copy of the vocabulary in index order.
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// IDF returns a copy of the inverse document frequency weights in index order.
func (v *Vectorizer) IDF() []float64 {
	return append([]float64(nil), v.idf...)
}

// Fit learns the vocabulary from corpus, replacing any previous one.
func (v *Vectorizer) Fit(corpus []string) error {
	docs := make([][]string, len(corpus))
	df := map[string]int{}
	tf := map[string]int{}
	for i, text := range corpus {
		docs[i] = analyze(text)
		seen := map[string]struct{}{}
		for _, term := range docs[i] {
			tf[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	kept := make([]string, 0, len(df))
	for term, count := range df {
		if count >= v.minDF {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return fmt.Errorf("fit vectorizer on %d documents: %w", len(corpus), domain.ErrNotEnoughData)
	}

	if len(kept) > v.maxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if tf[kept[i]] != tf[kept[j]] {
				return tf[kept[i]] > tf[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.maxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(corpus))
	idf := make([]float64, len(kept))
	for i, term := range kept {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	v.setVocabulary(kept, idf)
	return nil
}

// Transform maps texts onto the fitted vocabulary. Absent terms are zero.
func (v *Vectorizer) Transform(texts []string) ([][]float64, error) {
	if !v.Fitted() {
		return nil, domain.ErrNotFitted
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = v.vector(text)
	}
	return out, nil
}

// TopTerms returns the n highest weighted vocabulary terms present in text.
// Equal weights keep vocabulary order.
func (v *Vectorizer) TopTerms(text string, n int) ([]domain.Term, error) {
	if !v.Fitted() {
		return nil, domain.ErrNotFitted
	}
	if n <= 0 {
		return []domain.Term{}, nil
	}
	vec := v.vector(text)
	idx := make([]int, 0, n)
	for i, w := range vec {
		if w > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return vec[idx[a]] > vec[idx[b]] })
	if len(idx) > n {
		idx = idx[:n]
	}

	terms := make([]domain.Term, 0, len(idx))
	for _, i := range idx {
		terms = append(terms, domain.Term{Term: v.terms[i], Weight: vec[i]})
	}
	return terms, nil
}

func (v *Vectorizer) vector(text string) []float64 {
	vec := make([]float64, len(v.terms))
	for _, term := range analyze(text) {
		if i, ok := v.vocabulary[term]; ok {
			vec[i]++
		}
	}

	var norm float64
	for i, count := range vec {
		if count == 0 {
			continue
		}
		vec[i] = count * v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (v *Vectorizer) setVocabulary(terms []string, idf []float64) {
	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		vocabulary[term] = i
	}
	v.terms = terms
	v.idf = idf
	v.vocabulary = vocabulary
}
