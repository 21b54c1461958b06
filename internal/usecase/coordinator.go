package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/metrics"
	"NewsClassifier/internal/ports"
)

// Cycle names used in logs and metrics.
const (
	CycleIngest   = "ingest"
	CycleTraining = "training"
)

// CoordinatorDeps wires the two cycles with their drivers.
type CoordinatorDeps struct {
	IngestDriver   ports.Scheduler
	TrainingDriver ports.Scheduler
	Ingestion      *Ingestion
	Feedback       *FeedbackAdapter
	Retrainer      *Retrainer
	Logger         *slog.Logger
}

// Coordinator runs ingestion and feedback+retraining on independent cycles.
// A failing iteration is logged and counted; the cycle keeps going.
type Coordinator struct {
	ingestDriver   ports.Scheduler
	trainingDriver ports.Scheduler
	ingestion      *Ingestion
	feedback       *FeedbackAdapter
	retrainer      *Retrainer
	logger         *slog.Logger
}

// NewCoordinator returns a helper to start/stop both cycles.
func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		ingestDriver:   deps.IngestDriver,
		trainingDriver: deps.TrainingDriver,
		ingestion:      deps.Ingestion,
		feedback:       deps.Feedback,
		retrainer:      deps.Retrainer,
		logger:         logger,
	}
}

// Start registers both cycles with their drivers.
func (c *Coordinator) Start(ctx context.Context) error {
	if c.ingestDriver != nil && c.ingestion != nil {
		if err := c.ingestDriver.Start(ctx, c.job(CycleIngest, c.runIngest)); err != nil {
			return fmt.Errorf("start %s cycle: %w", CycleIngest, err)
		}
	}
	if c.trainingDriver != nil && (c.feedback != nil || c.retrainer != nil) {
		if err := c.trainingDriver.Start(ctx, c.job(CycleTraining, c.runTraining)); err != nil {
			return fmt.Errorf("start %s cycle: %w", CycleTraining, err)
		}
	}
	return nil
}

// Stop shuts both cycles down in parallel; neither waits on the other's iteration.
func (c *Coordinator) Stop(ctx context.Context) error {
	var g errgroup.Group
	for _, driver := range []ports.Scheduler{c.ingestDriver, c.trainingDriver} {
		if driver == nil {
			continue
		}
		g.Go(func() error { return driver.Stop(ctx) })
	}
	return g.Wait()
}

// RunIngestOnce executes one ingest iteration synchronously.
func (c *Coordinator) RunIngestOnce(ctx context.Context) error {
	return c.runIngest(ctx)
}

// RunTrainingOnce executes one feedback+retraining iteration synchronously.
func (c *Coordinator) RunTrainingOnce(ctx context.Context) error {
	return c.runTraining(ctx)
}

func (c *Coordinator) job(cycle string, run func(context.Context) error) func(context.Context, time.Time) {
	return func(ctx context.Context, trigger time.Time) {
		started := time.Now()
		err := run(ctx)
		elapsed := time.Since(started)

		outcome := metrics.OutcomeSuccess
		switch {
		case err == nil:
		case onlySkips(err):
			outcome = metrics.OutcomeSkipped
			c.logger.Warn("cycle skipped", "cycle", cycle, "trigger", trigger, "reason", err)
		default:
			outcome = metrics.OutcomeError
			c.logger.Error("cycle failed", "cycle", cycle, "trigger", trigger, "error", err)
		}
		metrics.RecordCycle(cycle, outcome, elapsed.Seconds())
		if outcome == metrics.OutcomeSuccess {
			c.logger.Info("cycle finished", "cycle", cycle, "elapsed", elapsed)
		}
	}
}

func (c *Coordinator) runIngest(ctx context.Context) error {
	if c.ingestion == nil {
		return nil
	}
	_, err := c.ingestion.FetchAllFeeds(ctx)
	return err
}

func (c *Coordinator) runTraining(ctx context.Context) error {
	var errs []error
	if c.feedback != nil {
		if _, err := c.feedback.UpdateFromInteractions(ctx); err != nil {
			errs = append(errs, fmt.Errorf("feedback: %w", err))
		}
	}
	if c.retrainer != nil {
		if _, err := c.retrainer.TrainModel(ctx); err != nil {
			errs = append(errs, fmt.Errorf("retrain: %w", err))
		}
	}
	return errors.Join(errs...)
}

// onlySkips reports whether err consists solely of not-enough-data conditions.
func onlySkips(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !onlySkips(e) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, domain.ErrNoLabeledData) || errors.Is(err, domain.ErrNotEnoughData)
}
