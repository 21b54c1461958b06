package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsClassifier/internal/classifier"
	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/metrics"
	"NewsClassifier/internal/ports"
)

// RetrainerDeps wires the retraining job.
type RetrainerDeps struct {
	Content ports.ContentRepository
	Store   ports.ModelStore
	Handle  *classifier.Handle
	Options classifier.Options
	// ReclassifyUncategorized re-labels items still in the default category after each retrain.
	ReclassifyUncategorized bool
	Logger                  *slog.Logger
}

// Retrainer refits the classifier from the labeled corpus, persists it and swaps it in.
type Retrainer struct {
	content    ports.ContentRepository
	store      ports.ModelStore
	handle     *classifier.Handle
	opts       classifier.Options
	reclassify bool
	logger     *slog.Logger
}

// TrainReport summarizes one training run.
type TrainReport struct {
	ModelID      string
	Samples      int
	Categories   []string
	Vocabulary   int
	Reclassified int
}

// NewRetrainer constructs the retraining job.
func NewRetrainer(deps RetrainerDeps) *Retrainer {
	return &Retrainer{
		content:    deps.Content,
		store:      deps.Store,
		handle:     deps.Handle,
		opts:       deps.Options,
		reclassify: deps.ReclassifyUncategorized,
		logger:     deps.Logger,
	}
}

// TrainModel runs a full retrain. On any failure the live and stored snapshots are untouched.
func (r *Retrainer) TrainModel(ctx context.Context) (TrainReport, error) {
	var report TrainReport
	if r.content == nil || r.handle == nil {
		return report, nil
	}

	items, err := r.content.LabeledItems(ctx)
	if err != nil {
		return report, fmt.Errorf("load labeled items: %w", err)
	}
	if len(items) == 0 {
		return report, domain.ErrNoLabeledData
	}

	texts := make([]string, len(items))
	categories := make([]string, len(items))
	priorities := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text()
		categories[i] = *item.Category
		priorities[i] = string(*item.Priority)
	}

	model, err := classifier.Train(ctx, texts, categories, priorities, r.opts)
	if err != nil {
		return report, err
	}

	if r.store != nil {
		if err := classifier.Persist(ctx, r.store, model); err != nil {
			return report, err
		}
	}
	r.handle.Swap(model)
	metrics.RecordTraining(len(items))

	report.ModelID = model.ID
	report.Samples = len(items)
	report.Categories = model.Labels()
	report.Vocabulary = len(model.Vocabulary())
	r.info("model trained", "model", model.ID, "samples", report.Samples,
		"categories", len(report.Categories), "vocabulary", report.Vocabulary)

	if r.reclassify {
		report.Reclassified = r.reclassifyDefaults(ctx, model)
	}
	return report, nil
}

// LoadModel installs the stored snapshot. A missing snapshot is not an error;
// it reports false and the service keeps classifying with defaults.
func (r *Retrainer) LoadModel(ctx context.Context) (bool, error) {
	if r.store == nil || r.handle == nil {
		return false, nil
	}
	model, err := classifier.Restore(ctx, r.store)
	if err != nil {
		if errors.Is(err, domain.ErrNoSavedModel) {
			r.info("no saved model, running unfitted", "reason", err)
			metrics.SetModelLoaded(false)
			return false, nil
		}
		return false, fmt.Errorf("restore model: %w", err)
	}
	r.handle.Swap(model)
	metrics.SetModelLoaded(true)
	r.info("model restored", "model", model.ID, "trained_at", model.TrainedAt)
	return true, nil
}

func (r *Retrainer) reclassifyDefaults(ctx context.Context, model *classifier.Model) int {
	items, err := r.content.ItemsByCategory(ctx, domain.DefaultCategory)
	if err != nil {
		r.warn("load uncategorized items failed", "error", err)
		return 0
	}

	updated := 0
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		prediction, err := model.Predict(item.Text())
		if err != nil {
			r.warn("reclassify item failed", "item", item.ID, "error", err)
			continue
		}
		terms := domain.Classification{KeyTerms: prediction.KeyTerms}.TermStrings()
		err = r.content.UpdateClassification(ctx, domain.ClassificationUpdate{
			ItemID:   item.ID,
			Category: prediction.Category,
			Priority: prediction.Priority,
			KeyTerms: terms,
		})
		if err != nil {
			r.warn("store reclassification failed", "item", item.ID, "error", err)
			continue
		}
		updated++
	}
	return updated
}

func (r *Retrainer) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Retrainer) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
