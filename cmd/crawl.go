package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/canvas"
	"github.com/edtools/canvas-crawler/internal/config"
	"github.com/edtools/canvas-crawler/internal/crawler"
	"github.com/edtools/canvas-crawler/internal/handler"
	"github.com/edtools/canvas-crawler/internal/hash/sha256"
	"github.com/edtools/canvas-crawler/internal/id/uuid"
	"github.com/edtools/canvas-crawler/internal/ledger"
	"github.com/edtools/canvas-crawler/internal/logging"
	"github.com/edtools/canvas-crawler/internal/metrics"
	"github.com/edtools/canvas-crawler/internal/storage"
	"github.com/edtools/canvas-crawler/internal/webclient"
)

// newCrawlCmd creates and configures the 'crawl' subcommand, which runs one
// full course crawl to completion.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls one Canvas course and archives its content",
		Long: `Seeds the traversal queue with the course-level listings, then drains
it breadth-first. Every handled item is written under the output
directory; zip attachments are expanded in place with sandboxed paths.`,
		RunE: runCrawlCommand,
	}

	cmd.Flags().String("course-id", "", "Canvas course id to crawl")
	cmd.Flags().String("token", "", "Canvas API bearer token")
	cmd.Flags().String("base-url", "", "Canvas instance base URL")
	cmd.Flags().String("output-dir", "", "directory the archive is written to")
	cmd.Flags().Int("depth-limit", 0, "maximum traversal depth")
	cmd.Flags().Bool("verbose", false, "enable development logging")

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCrawlConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	engine, cleanup, err := buildCrawlEngine(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("crawl starting",
		zap.String("course_id", cfg.Crawler.CourseID),
		zap.String("base_url", cfg.Canvas.BaseURL),
		zap.String("output_dir", cfg.Crawler.OutputDir),
		zap.Int("depth_limit", cfg.Crawler.DepthLimit),
	)

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}

	logCounterTotals(reg, logger)
	logger.Info("crawl finished")
	return nil
}

func loadCrawlConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("course-id") {
		cfg.Crawler.CourseID, _ = flags.GetString("course-id")
	}
	if flags.Changed("token") {
		cfg.Canvas.Token, _ = flags.GetString("token")
	}
	if flags.Changed("base-url") {
		cfg.Canvas.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("output-dir") {
		cfg.Crawler.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("depth-limit") {
		cfg.Crawler.DepthLimit, _ = flags.GetInt("depth-limit")
	}
	if flags.Changed("verbose") {
		cfg.Logging.Development, _ = flags.GetBool("verbose")
	}

	if cfg.Crawler.CourseID == "" {
		return config.Config{}, errors.New("crawler.course_id is required (--course-id)")
	}
	if cfg.Canvas.Token == "" {
		return config.Config{}, errors.New("canvas.token is required (--token or CANVASCRAWL_CANVAS_TOKEN)")
	}
	return cfg, nil
}

// buildCrawlEngine wires the Canvas client, storage, handlers and optional
// ledger and publisher into a ready-to-run engine. The returned cleanup
// closes whatever was opened.
func buildCrawlEngine(
	ctx context.Context,
	cfg config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*crawler.Engine, func(), error) {
	client := canvas.New(cfg.Canvas.BaseURL, cfg.Canvas.Token, cfg.CanvasTimeout(), logger.Named("canvas"))
	web := webclient.New(cfg.Web.UserAgent, cfg.WebTimeout(), logger.Named("web"))

	store, err := storage.NewManager(afero.NewOsFs(), storage.Config{
		BaseDir: cfg.Crawler.OutputDir,
		Limits: storage.ArchiveLimits{
			MaxDepth:      cfg.Archive.MaxDepth,
			MaxMembers:    cfg.Archive.MaxMembers,
			MaxTotalBytes: cfg.Archive.MaxTotalBytes,
		},
	}, m, logger.Named("storage"))
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	registry, err := handler.NewRegistry(handler.Deps{
		Client:  client,
		Web:     web,
		Storage: store,
		Hasher:  sha256.New(),
		Logger:  logger.Named("handler"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init handler registry: %w", err)
	}

	cleanup := func() {}
	var artifactLedger crawler.Ledger
	if cfg.Ledger.DSN != "" {
		pg, err := ledger.NewPostgres(ctx, ledger.PostgresConfig{
			DSN:   cfg.Ledger.DSN,
			Table: cfg.Ledger.Table,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init ledger: %w", err)
		}
		artifactLedger = pg
		cleanup = pg.Close
	}

	publisher, pubCleanup, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if pubCleanup != nil {
		ledgerCleanup := cleanup
		cleanup = func() {
			pubCleanup()
			ledgerCleanup()
		}
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("generate run id: %w", err)
	}

	engine := crawler.NewEngine(
		crawler.EngineConfig{
			CourseID:   cfg.Crawler.CourseID,
			DepthLimit: cfg.Crawler.DepthLimit,
			SeedTypes:  cfg.Crawler.SeedTypes,
			Topic:      cfg.PubSub.TopicName,
		},
		client,
		registry,
		m,
		artifactLedger,
		publisher,
		runID,
		logger.Named("engine"),
	)
	return engine, cleanup, nil
}

// logCounterTotals logs the final value of every registered counter so a run
// leaves a summary even without a scraping Prometheus server.
func logCounterTotals(reg *prometheus.Registry, logger *zap.Logger) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gather metrics failed", zap.Error(err))
		return
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
		logger.Info("metric total",
			zap.String("metric", mf.GetName()),
			zap.Float64("value", total),
		)
	}
}
