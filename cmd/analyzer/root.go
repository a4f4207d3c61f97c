package main

import (
	"context"
	"crime_news/internal/analysis"
	"crime_news/internal/catalog"
	"crime_news/internal/config"
	"crime_news/internal/db"
	"crime_news/internal/fetcher"
	"crime_news/internal/logger"
	"crime_news/internal/metrics"
	"crime_news/internal/pipeline"
	"crime_news/internal/server"
	"crime_news/internal/stats"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "analyzer",
		Short: "Compares race mentions in crime news with FBI offender statistics",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				logger.Log.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "path to JSON config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newServeCmd(), newReportCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Run one render and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout занят JSON-отчётом.
			logger.Log.SetOutput(os.Stderr)

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, runErr := a.pipeline.Run(cmd.Context())
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			return runErr
		},
	}
}

// app - собранные зависимости одного процесса.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	metrics  *metrics.Metrics
	database *db.Database
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
}

func setup(ctx context.Context) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	timeout := cfg.HTTPTimeout()
	client := &http.Client{Timeout: timeout}

	a := &app{cfg: cfg, metrics: metrics.New()}
	opts := pipeline.Options{
		Feeds:   cfg.RSSFeeds,
		Fetcher: fetcher.New(client, timeout),
		Stats: stats.NewLoader(stats.Options{
			RemoteURL: cfg.Stats.RemoteURL,
			APIKey:    cfg.Stats.APIKey,
			Limit:     cfg.Stats.Limit,
			LocalFile: cfg.Stats.LocalFile,
			DataDir:   cfg.Stats.DataDir,
			FileMatch: cfg.Stats.FileMatch,
			Timeout:   timeout,
		}, client, logger.Component("stats")),
		Tagger:  analysis.NewTagger(cfg.Keywords),
		Metrics: a.metrics,
		Log:     logger.Component("pipeline"),
	}

	cat := catalog.New(catalog.Options{
		BaseURL:      cfg.Catalog.BaseURL,
		Rows:         cfg.Catalog.Rows,
		RowLimit:     cfg.Catalog.RowLimit,
		MaxResources: cfg.Catalog.MaxResources,
		Timeout:      timeout,
	}, client, logger.Component("catalog"))
	if cat.Enabled() {
		opts.Catalog = cat
	}

	if cfg.DatabaseURL != "" {
		database, err := db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		a.database = database
		opts.Store = database
	}

	a.pipeline = pipeline.New(opts)
	return a, nil
}

func serve(ctx context.Context) error {
	defer logger.Log.Info("Application stopped")

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var history server.History
	if a.database != nil {
		history = a.database
	}
	srv := server.NewServer(a.pipeline, history, a.metrics.Handler(), logger.Component("server"))

	httpServer := &http.Server{Addr: a.cfg.ListenAddr, Handler: srv.Routes()}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infof("Starting HTTP server on %s", a.cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	logger.Log.Info("Shutting down...")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctxShutdown)
}
