package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	app "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/internal/adapters/source"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

type runOptions struct {
	storePath   string
	metricsAddr string
	workers     int
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <games-path>",
		Short: "Reconstruct every game in a file or directory",
		Long: `Load every .json, .yaml and .yml game file under the path, reconstruct
the games in the worker pool and persist the results. A game that cannot be
replayed fails on its own; the rest of the batch carries on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("store") {
				root.cfg.StorePath = opts.storePath
			}
			if cmd.Flags().Changed("metrics-addr") {
				root.cfg.MetricsAddr = opts.metricsAddr
			}
			if opts.workers > 0 {
				root.cfg.WorkerCount = opts.workers
			}
			return runGames(cmd, root, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.storePath, "store", "", "SQLite database path (default: in memory)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "number of reconstruction workers (default from config)")
	return cmd
}

func runGames(cmd *cobra.Command, root *rootOptions, path string) error {
	ctx := cmd.Context()
	cfg := root.cfg
	log := logger.Named("run")

	games, err := source.Load(path)
	if err != nil {
		return err
	}
	log.Info(ctx, "loaded games", logger.String("path", path), logger.Int("games", len(games)))

	store, err := openStore(ctx, cfg.StorePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close store", logger.Error(err))
		}
	}()

	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(ctx, cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
			}
		}()
	}

	svc := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithGameTimeout(cfg.GameTimeout()),
		app.WithFuzzyThreshold(cfg.FuzzyThreshold),
		app.WithStore(store),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	start := time.Now()
	summaries, err := svc.Process(ctx, games)
	if err != nil {
		return err
	}
	log.Info(ctx, "batch finished",
		logger.String("run_id", svc.RunID()),
		logger.Int("games", len(summaries)),
		logger.Duration("elapsed", time.Since(start)),
	)

	if err := writeSummaries(cmd.OutOrStdout(), root.format, svc.RunID(), summaries); err != nil {
		return err
	}

	failed := 0
	for _, s := range summaries {
		if s.Status == model.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d %w", failed, len(summaries), errGamesFailed)
	}
	return nil
}

func openStore(ctx context.Context, path string) (repository.Store, error) {
	if path == "" {
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// serveMetrics exposes the metrics registry on addr until shut down.
func serveMetrics(ctx context.Context, addr string) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	log := logger.Named("metrics")
	go func() {
		log.Info(ctx, "serving metrics", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	return srv, nil
}
