package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"NewsClassifier/internal/app"
	"NewsClassifier/internal/config"
	"NewsClassifier/internal/logging"
)

type runtime struct {
	cfg         config.Config
	logLevel    string
	modelDir    string
	application *app.Application
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "newsclassifier",
		Short: "Adaptive news feed classifier",
		Long: `newsclassifier ingests syndicated feeds, classifies every new item by
category and priority, promotes items users engage with and periodically
retrains its model.

Example usage:
  newsclassifier migrate                 # Apply database migrations
  newsclassifier serve                   # Run ingest and training cycles
  newsclassifier fetch                   # Fetch all due feeds once
  newsclassifier classify --title "..."  # Classify one item`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.application == nil {
				return nil
			}
			return rt.application.Close()
		},
	}
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().StringVar(&rt.modelDir, "model-dir", "", "override the file model store directory")

	root.AddCommand(
		serveCmd(rt),
		fetchCmd(rt),
		trainCmd(rt),
		feedbackCmd(rt),
		classifyCmd(rt),
		statsCmd(rt),
		migrateCmd(rt),
	)
	return root
}

func (rt *runtime) init() error {
	rt.cfg = config.Load()
	if rt.logLevel != "" {
		rt.cfg.Logging.Level = rt.logLevel
	}
	if rt.modelDir != "" {
		rt.cfg.ModelStore.Dir = rt.modelDir
	}
	application, err := app.New(rt.cfg, logging.NewWithFormat(os.Stderr, rt.cfg.Logging.Level, rt.cfg.Logging.Format))
	if err != nil {
		return err
	}
	rt.application = application
	return nil
}

func serveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingest and training cycles until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return rt.application.Serve(ctx)
		},
	}
}

func fetchCmd(rt *runtime) *cobra.Command {
	var feedID int64
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch due feeds once (or a single feed with --feed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := rt.application.LoadModel(ctx); err != nil {
				return err
			}
			if feedID > 0 {
				report, err := rt.application.FetchFeed(ctx, feedID)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			}
			report, err := rt.application.FetchAllFeeds(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().Int64Var(&feedID, "feed", 0, "fetch only this feed id, ignoring its interval")
	return cmd
}

func trainCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Retrain the classifier from the labeled corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := rt.application.TrainModel(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func feedbackCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback",
		Short: "Promote items whose recent engagement crosses the threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := rt.application.UpdateFromInteractions(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

type classificationOutput struct {
	Category           string   `json:"category"`
	CategoryConfidence float64  `json:"category_confidence"`
	Priority           string   `json:"priority"`
	PriorityConfidence float64  `json:"priority_confidence"`
	KeyTerms           []string `json:"key_terms"`
}

func classifyCmd(rt *runtime) *cobra.Command {
	var title, summary string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single title and summary with the stored model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.application.LoadModel(cmd.Context()); err != nil {
				return err
			}
			c := rt.application.Classify(title, summary)
			return printJSON(cmd, classificationOutput{
				Category:           c.Category,
				CategoryConfidence: c.CategoryConfidence,
				Priority:           string(c.Priority),
				PriorityConfidence: c.PriorityConfidence,
				KeyTerms:           c.TermStrings(),
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "item title")
	cmd.Flags().StringVar(&summary, "summary", "", "item summary")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func statsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats FEED_ID",
		Short: "Show item counts per category and priority for one feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid feed id %q: %w", args[0], err)
			}
			stats, err := rt.application.FeedStats(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
}

func migrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := rt.application.Migrate()
			if err != nil {
				return err
			}
			if changed {
				cmd.Println("migrations applied")
			} else {
				cmd.Println("schema up to date")
			}
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
