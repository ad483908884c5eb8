package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/sentinel/internal/adapters/http/api"
	"github.com/okian/sentinel/internal/adapters/http/swagger"
	"github.com/okian/sentinel/internal/adapters/snapshot"
	app "github.com/okian/sentinel/internal/app"
	"github.com/okian/sentinel/internal/config"
	"github.com/okian/sentinel/internal/domain/lexicon"
	"github.com/okian/sentinel/pkg/logger"
	"github.com/okian/sentinel/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: stop is called explicitly above
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to set log format: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildService assembles the service from cfg, loading the lexicon file and
// connecting to Redis when configured.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	lex := lexicon.Default()
	if cfg.LexiconFile != "" {
		var err error
		if lex, err = lexicon.Load(ctx, cfg.LexiconFile); err != nil {
			return nil, err
		}
		log.Info(ctx, "lexicon loaded", logger.String("path", cfg.LexiconFile))
	}

	var publisher snapshot.Publisher = snapshot.Nop{}
	if cfg.RedisAddr != "" {
		client, err := snapshot.NewRedisClient(ctx, snapshot.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		publisher = snapshot.NewRedisPublisher(client,
			snapshot.WithPrefix(cfg.RedisPrefix),
			snapshot.WithTTL(time.Duration(cfg.RedisTTLSeconds)*time.Second),
			snapshot.WithLogger(log.Named("snapshot")),
		)
		log.Info(ctx, "publishing snapshots to redis", logger.String("addr", cfg.RedisAddr), logger.String("prefix", cfg.RedisPrefix))
	}

	return app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithHistoryLimit(cfg.HistoryLimit),
		app.WithTrackedTokens(cfg.TrackedTokens),
		app.WithTrackedOnly(cfg.TrackedOnly),
		app.WithLexicon(lex),
		app.WithWeights(cfg.Weights),
		app.WithScoringParallelism(cfg.ScoringParallelism),
		app.WithPublisher(publisher),
	), nil
}

// newMux registers the docs and business routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc,
		api.WithMaxTrendingLimit(cfg.MaxTrendingLimit),
		api.WithMaxBatchItems(cfg.MaxBatchItems),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
