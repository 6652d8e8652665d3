// Package main is the entry point for the curate server. It wires the form
// engine, session store, backend clients, and HTTP transport together and
// runs the server until a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/client"
	"github.com/curatehq/curate/internal/config"
	"github.com/curatehq/curate/internal/form"
	"github.com/curatehq/curate/internal/lookup"
	"github.com/curatehq/curate/internal/observability"
	"github.com/curatehq/curate/internal/session"
	"github.com/curatehq/curate/internal/submit"
	"github.com/curatehq/curate/internal/transport"
	"github.com/curatehq/curate/internal/vocab"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "curate", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.InitMetrics(prometheus.DefaultRegisterer)
	}

	// Backend clients, one per collaborator.
	orcidClient := &client.ORCIDClient{Client: client.New(config.ServiceORCID, cfg.Services[config.ServiceORCID], logger)}
	rorClient := &client.RORClient{Client: client.New(config.ServiceROR, cfg.Services[config.ServiceROR], logger)}
	vocabClient := &client.VocabClient{Client: client.New(config.ServiceVocabulary, cfg.Services[config.ServiceVocabulary], logger)}
	registryClient := &client.RegistryClient{Client: client.New(config.ServiceRegistry, cfg.Services[config.ServiceRegistry], logger)}
	if metrics != nil {
		for _, c := range []*client.Client{orcidClient.Client, rorClient.Client, vocabClient.Client, registryClient.Client} {
			c.SetMetrics(metrics)
		}
	}

	engine := form.NewEngine(cfg.Form)

	// Vocabulary trees load after startup; readiness reports when they land.
	vocabStore := vocab.NewStore(vocabClient, cfg.Form.MSLTriggerKeywords, logger)
	go func() {
		if err := vocabStore.LoadGCMD(ctx); err != nil {
			logger.Error("vocabulary load incomplete", zap.Error(err))
			if metrics != nil {
				metrics.RecordVocabularyLoad("gcmd", "error")
			}
			return
		}
		if metrics != nil {
			metrics.RecordVocabularyLoad("gcmd", "ok")
		}
	}()

	// The funder index loads once; lookups degrade gracefully while empty.
	funderIndex := lookup.LoadFunderIndex(ctx, rorClient, logger)

	store, storeCloser, err := buildSessionStore(ctx, cfg.Session, logger)
	if err != nil {
		logger.Error("session store initialization failed", zap.Error(err))
		return 1
	}

	sessions := session.NewManager(store, cfg.Session, logger)
	scheduler := lookup.NewORCIDScheduler(orcidClient, cfg.Lookup.ORCIDDebounce, logger)
	submitter := submit.NewService(engine, registryClient, logger)

	jwks := transport.NewJWKSClient(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL, logger)

	handlers := transport.NewHandlers(engine, sessions, submitter, vocabStore, vocabClient,
		funderIndex, orcidClient, rorClient, scheduler, metrics, logger)

	readiness := observability.ReadinessChecks{
		VocabulariesLoaded: func() bool { return len(vocabStore.Loaded()) >= 3 },
		FunderIndex:        func() bool { return funderIndex.Len() > 0 },
	}
	if hc, ok := store.(observability.HealthChecker); ok {
		readiness.SessionStore = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Handlers:     handlers,
		Metrics:      metrics,
		Readiness:    readiness,
		Authenticate: transport.JWTAuthenticator(cfg.Identity, jwks),
		Log:          logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Background expiry sweep.
	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()
	sweeper := session.NewSweeper(store, cfg.Session.SweepInterval, logger)
	if metrics != nil {
		sweeper.OnSwept = metrics.RecordSessionsSwept
	}
	go sweeper.Run(bgCtx)

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("session_driver", cfg.Session.Driver),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Cancel the sweeper and pending lookups, then close the store.
	bgCancel()
	scheduler.Stop()
	if storeCloser != nil {
		storeCloser()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildSessionStore creates the session store named by the config. The
// postgres driver falls back to memory when no DSN is configured, so a dev
// setup needs no database.
func buildSessionStore(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (session.Store, func(), error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" && cfg.DSNEnv != "" {
			return nil, nil, fmt.Errorf("session store: %s environment variable not set", cfg.DSNEnv)
		}
		if dsn == "" {
			logger.Warn("session store DSN not configured, using in-memory store")
			return session.NewMemoryStore(), nil, nil
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("session store: ping: %w", err)
		}
		return session.NewPgStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session store driver: %q", cfg.Driver)
	}
}
