package domain

import "time"

// MaxKeyTerms bounds the key terms stored on a ContentItem.
const MaxKeyTerms = 5

// Priority is the coarse importance label attached to content.
type Priority string

const (
	PriorityHigh Priority = "High"
	PriorityLow  Priority = "Low"
)

// DefaultCategory is assigned when no fitted classifier is available.
const DefaultCategory = "Uncategorized"

// ContentItem is an ingested, deduplicated piece of content. URL is the dedup key.
type ContentItem struct {
	ID           int64
	URL          string
	Title        string
	Source       string
	Summary      string
	Category     *string
	Priority     *Priority
	KeyTerms     []string
	PublishedAt  *time.Time
	DiscoveredAt time.Time
	Archived     bool
}

// Labeled reports whether the item can be used as a training sample.
func (c ContentItem) Labeled() bool {
	return c.Category != nil && c.Priority != nil
}

// Text joins title and summary the way the classifier sees them.
func (c ContentItem) Text() string {
	return ClassifierText(c.Title, c.Summary)
}

// ClassifierText is the single place that decides how title and summary are combined.
func ClassifierText(title, summary string) string {
	return title + "\n" + summary
}

// FeedEntry is one entry of a fetched syndication document.
type FeedEntry struct {
	Title     string
	Link      string
	Summary   string
	Published *time.Time
}

// Term is a weighted vocabulary term found in a text.
type Term struct {
	Term   string  `json:"term"`
	Weight float64 `json:"score"`
}

// Classification is the outcome of classifying a single title/summary pair.
type Classification struct {
	Category           string
	CategoryConfidence float64
	Priority           Priority
	PriorityConfidence float64
	KeyTerms           []Term
}

// DefaultClassification is returned while no model is loaded.
func DefaultClassification() Classification {
	return Classification{
		Category: DefaultCategory,
		Priority: PriorityLow,
		KeyTerms: []Term{},
	}
}

// TermStrings returns at most MaxKeyTerms term strings.
func (c Classification) TermStrings() []string {
	out := make([]string, 0, len(c.KeyTerms))
	for _, t := range c.KeyTerms {
		if len(out) == MaxKeyTerms {
			break
		}
		out = append(out, t.Term)
	}
	return out
}
