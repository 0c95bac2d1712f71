package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/hanoi-scores/internal/config"
	httpapi "github.com/tbourn/hanoi-scores/internal/http"
	"github.com/tbourn/hanoi-scores/internal/observability"
	"github.com/tbourn/hanoi-scores/internal/repo"
	"github.com/tbourn/hanoi-scores/internal/sysutil"
	"github.com/tbourn/hanoi-scores/internal/workerpool"
)

// cleanupTimeout bounds pool stop and trace flush after a signal.
const cleanupTimeout = 5 * time.Second

func main() {
	// A missing .env is fine; real env always wins.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, nil); err != nil {
		log.Fatal().Err(err).Msg("hanoi-scores")
	}
}

// run starts the service and blocks until ctx is done. ready, when set,
// receives the bound API address once the listener is up.
func run(ctx context.Context, ready func(net.Addr)) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	db, err := repo.Open(cfg.DB.URL, repo.PoolOptions{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("database pool: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database pool: %w", err)
	}
	defer sqlDB.Close()

	if cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pool := workerpool.New(
		workerpool.WithSize(cfg.Workers.Size),
		workerpool.WithQueueSize(cfg.Workers.QueueSize),
		workerpool.WithLogger(log.Logger),
	)
	pool.Start()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, pool, cfg)

	srv := &http.Server{
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- serve(srv, ln) }()
	log.Info().Int("workers", pool.Size()).Msgf("Started http server: http://%s", ln.Addr())

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv, err = observability.NewMetricsServer(cfg.MetricsAddr, sqlDB)
		if err != nil {
			_ = srv.Close()
			return err
		}
		go func() { errCh <- serve(metricsSrv, nil) }()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listener started")
	}

	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		err = nil
	case err = <-errCh:
		log.Error().Err(err).Msg("listener failed")
	}

	// No drain: in-flight requests are cut off.
	_ = srv.Close()
	if metricsSrv != nil {
		_ = metricsSrv.Close()
	}

	cctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if perr := pool.Stop(cctx); perr != nil {
		log.Warn().Err(perr).Msg("worker pool stop")
	}
	if terr := shutdownTracing(cctx); terr != nil {
		log.Warn().Err(terr).Msg("trace flush")
	}
	return err
}

// serve runs srv on ln (or srv.Addr when ln is nil) and maps a normal close
// to nil.
func serve(srv *http.Server, ln net.Listener) error {
	var err error
	if ln != nil {
		err = srv.Serve(ln)
	} else {
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
