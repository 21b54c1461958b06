package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/metrics"
	"NewsClassifier/internal/ports"
)

// FeedbackOptions tune the engagement scoring.
type FeedbackOptions struct {
	Window    time.Duration
	Threshold int
	Weights   map[domain.InteractionKind]int
}

// DefaultFeedbackOptions returns a trailing week, threshold 5, save=2 and click=1.
func DefaultFeedbackOptions() FeedbackOptions {
	return FeedbackOptions{
		Window:    7 * 24 * time.Hour,
		Threshold: 5,
		Weights: map[domain.InteractionKind]int{
			domain.InteractionSave:  2,
			domain.InteractionClick: 1,
		},
	}
}

// FeedbackReport summarizes one feedback run.
type FeedbackReport struct {
	Events   int
	Items    int
	Promoted []int64
}

// FeedbackAdapter promotes items whose recent engagement crosses the threshold.
// It only ever raises priority.
type FeedbackAdapter struct {
	store  ports.InteractionRepository
	opts   FeedbackOptions
	logger *slog.Logger
	now    func() time.Time
}

// NewFeedbackAdapter fills unset options from DefaultFeedbackOptions.
func NewFeedbackAdapter(store ports.InteractionRepository, opts FeedbackOptions, logger *slog.Logger) *FeedbackAdapter {
	d := DefaultFeedbackOptions()
	if opts.Window <= 0 {
		opts.Window = d.Window
	}
	if opts.Threshold <= 0 {
		opts.Threshold = d.Threshold
	}
	if len(opts.Weights) == 0 {
		opts.Weights = d.Weights
	}
	return &FeedbackAdapter{
		store:  store,
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// UpdateFromInteractions scores the interaction window and applies promotions.
func (f *FeedbackAdapter) UpdateFromInteractions(ctx context.Context) (FeedbackReport, error) {
	var report FeedbackReport
	if f.store == nil {
		return report, nil
	}

	events, err := f.store.InteractionsSince(ctx, f.now().Add(-f.opts.Window))
	if err != nil {
		return report, fmt.Errorf("load interactions: %w", err)
	}
	report.Events = len(events)
	if len(events) == 0 {
		return report, nil
	}

	scores := Score(events, f.opts.Weights)
	report.Items = len(scores)

	ids := make([]int64, 0, len(scores))
	for id, score := range scores {
		if score >= f.opts.Threshold {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	for _, id := range ids {
		changed, err := f.store.PromotePriority(ctx, domain.PriorityPromotion{ItemID: id})
		if err != nil {
			if f.logger != nil {
				f.logger.Error("promote item failed", "item", id, "error", err)
			}
			continue
		}
		if changed {
			report.Promoted = append(report.Promoted, id)
			if f.logger != nil {
				f.logger.Info("item promoted to High", "item", id, "score", scores[id])
			}
		}
	}
	metrics.RecordPromotions(len(report.Promoted))
	return report, nil
}

// Score sums interaction weights per item. Unknown kinds weigh zero.
func Score(events []domain.InteractionEvent, weights map[domain.InteractionKind]int) map[int64]int {
	scores := make(map[int64]int)
	for _, event := range events {
		w := weights[event.Kind]
		if w < 0 {
			w = 0
		}
		scores[event.ItemID] += w
	}
	return scores
}
