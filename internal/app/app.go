package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"NewsClassifier/internal/classifier"
	"NewsClassifier/internal/config"
	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/infrastructure/modelstore"
	"NewsClassifier/internal/infrastructure/parser"
	"NewsClassifier/internal/infrastructure/scheduler"
	"NewsClassifier/internal/infrastructure/storage"
	"NewsClassifier/internal/infrastructure/telegram"
	"NewsClassifier/internal/logging"
	"NewsClassifier/internal/ports"
	"NewsClassifier/internal/scanner"
	"NewsClassifier/internal/usecase"
)

// Option overrides an adapter that New would otherwise build from config.
type Option func(*Application)

// WithContentStore replaces the Postgres repository.
func WithContentStore(store ports.ContentStore) Option {
	return func(a *Application) { a.store = store }
}

// WithModelStore replaces the configured snapshot backend.
func WithModelStore(store ports.ModelStore) Option {
	return func(a *Application) { a.modelStore = store }
}

// WithFetcher replaces the scanner-based feed fetcher.
func WithFetcher(fetcher ports.FeedFetcher) Option {
	return func(a *Application) { a.fetcher = fetcher }
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db         *sqlx.DB
	redis      redis.UniversalClient
	store      ports.ContentStore
	modelStore ports.ModelStore
	fetcher    ports.FeedFetcher
	notifier   ports.Notifier

	handle      *classifier.Handle
	classifier  *usecase.ClassificationService
	ingestion   *usecase.Ingestion
	feedback    *usecase.FeedbackAdapter
	retrainer   *usecase.Retrainer
	coordinator *usecase.Coordinator
}

// New builds the application. Connections are opened lazily by their drivers.
func New(cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		db, err := sqlx.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if cfg.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		}
		a.db = db
		a.store = storage.NewPostgresRepository(db)
	}

	if a.modelStore == nil {
		switch cfg.ModelStore.Backend {
		case config.ModelStoreRedis:
			a.redis = redis.NewClient(&redis.Options{Addr: cfg.ModelStore.RedisAddr})
			a.modelStore = modelstore.NewRedisStore(a.redis, cfg.ModelStore.RedisKey)
		case config.ModelStoreFile, "":
			a.modelStore = modelstore.NewFileStore(cfg.ModelStore.Dir)
		default:
			return nil, fmt.Errorf("unknown model store backend %q", cfg.ModelStore.Backend)
		}
	}

	if a.fetcher == nil {
		httpOpts := parser.HTTPOptions{
			Timeout:        cfg.Ingestion.HTTPTimeout,
			UserAgent:      cfg.Ingestion.UserAgent,
			RequestsPerSec: cfg.Ingestion.RequestsPerSecond,
			Burst:          cfg.Ingestion.Burst,
		}
		registry := scanner.NewRegistry()
		registry.Register(parser.NewRSSFetcher(nil, httpOpts))
		registry.Register(parser.NewArxivScanner(nil, httpOpts))
		a.fetcher = parser.NewStrategySource(registry, baseLogger.With("component", "source"))
	}

	if cfg.Notifications.Telegram.Enabled() {
		a.notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	a.handle = classifier.NewHandle(nil)
	a.classifier = usecase.NewClassificationService(a.handle, baseLogger.With("component", "classifier"))
	a.ingestion = usecase.NewIngestion(usecase.IngestionDeps{
		Feeds:      a.store,
		Content:    a.store,
		Fetcher:    a.fetcher,
		Classifier: a.classifier,
		Notifier:   a.notifier,
		Logger:     baseLogger.With("component", "ingestion"),
	})
	a.feedback = usecase.NewFeedbackAdapter(a.store, usecase.FeedbackOptions{
		Window:    cfg.Feedback.Window,
		Threshold: cfg.Feedback.Threshold,
		Weights: map[domain.InteractionKind]int{
			domain.InteractionSave:  cfg.Feedback.SaveWeight,
			domain.InteractionClick: cfg.Feedback.ClickWeight,
		},
	}, baseLogger.With("component", "feedback"))
	a.retrainer = usecase.NewRetrainer(usecase.RetrainerDeps{
		Content:                 a.store,
		Store:                   a.modelStore,
		Handle:                  a.handle,
		Options:                 modelOptions(cfg.Model),
		ReclassifyUncategorized: cfg.Retraining.Reclassify(),
		Logger:                  baseLogger.With("component", "retrainer"),
	})

	loc := cfg.Scheduler.Location()
	ingestDriver, err := scheduler.NewCronScheduler(usecase.CycleIngest, cfg.Scheduler.IngestSpec, loc,
		baseLogger.With("component", "scheduler"))
	if err != nil {
		return nil, err
	}
	trainingDriver, err := scheduler.NewCronScheduler(usecase.CycleTraining, cfg.Scheduler.TrainingSpec, loc,
		baseLogger.With("component", "scheduler"))
	if err != nil {
		return nil, err
	}
	a.coordinator = usecase.NewCoordinator(usecase.CoordinatorDeps{
		IngestDriver:   ingestDriver,
		TrainingDriver: trainingDriver,
		Ingestion:      a.ingestion,
		Feedback:       a.feedback,
		Retrainer:      a.retrainer,
		Logger:         baseLogger.With("component", "coordinator"),
	})

	return a, nil
}

func modelOptions(m config.ModelConfig) classifier.Options {
	return classifier.Options{
		Seed:                  m.Seed,
		Trees:                 m.Trees,
		CategoryMaxDepth:      m.CategoryMaxDepth,
		PriorityMaxDepth:      m.PriorityMaxDepth,
		MaxFeatures:           m.MaxFeatures,
		MinDF:                 m.MinDF,
		HighPriorityThreshold: m.HighPriorityThreshold,
		KeyTerms:              m.KeyTerms,
	}
}

// LoadModel restores the persisted classifier if one exists.
func (a *Application) LoadModel(ctx context.Context) (bool, error) {
	return a.retrainer.LoadModel(ctx)
}

// Classify labels a single title/summary pair with the live model.
func (a *Application) Classify(title, summary string) domain.Classification {
	return a.classifier.Classify(title, summary)
}

// FetchAllFeeds runs one ingestion pass over the due feeds.
func (a *Application) FetchAllFeeds(ctx context.Context) (usecase.IngestReport, error) {
	return a.ingestion.FetchAllFeeds(ctx)
}

// FetchFeed ingests one feed regardless of its interval.
func (a *Application) FetchFeed(ctx context.Context, feedID int64) (usecase.IngestReport, error) {
	return a.ingestion.FetchFeed(ctx, feedID)
}

// TrainModel retrains, persists and swaps in a new classifier.
func (a *Application) TrainModel(ctx context.Context) (usecase.TrainReport, error) {
	return a.retrainer.TrainModel(ctx)
}

// UpdateFromInteractions applies the engagement ratchet once.
func (a *Application) UpdateFromInteractions(ctx context.Context) (usecase.FeedbackReport, error) {
	return a.feedback.UpdateFromInteractions(ctx)
}

// FeedStats summarizes the items of one feed.
func (a *Application) FeedStats(ctx context.Context, feedID int64) (domain.FeedStats, error) {
	return usecase.FeedStats(ctx, a.store, feedID)
}

// Migrate applies pending schema migrations.
func (a *Application) Migrate() (bool, error) {
	if a.db == nil {
		return false, errors.New("migrations need a Postgres connection")
	}
	return storage.RunMigrations(a.db.DB)
}

// Serve restores the model, starts both cycles and the metrics listener, and blocks until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	if _, err := a.LoadModel(ctx); err != nil {
		a.logger.Warn("model restore failed, running unfitted", "error", err)
	}

	var server *http.Server
	serverErr := make(chan error, 1)
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		a.logger.Info("metrics listening", "addr", a.cfg.Metrics.Addr)
	}

	if err := a.coordinator.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		runErr = fmt.Errorf("metrics server: %w", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Scheduler.ShutdownTimeout)
	defer cancel()
	if err := a.coordinator.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
