package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/arllen133/wikisvc/internal/config"
	"github.com/arllen133/wikisvc/internal/health"
	"github.com/arllen133/wikisvc/internal/metrics"
	"github.com/arllen133/wikisvc/internal/server"
	"github.com/arllen133/wikisvc/internal/store"
)

func main() {
	cfg := config.FromEnv()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "backing store connection string")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339Nano
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("svc", "wikisvc").Logger()

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service exited")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	registry := metrics.New()

	st, err := store.Open(cfg.DatabaseURL,
		store.WithRecorder(registry),
		store.WithLogger(logger),
		store.WithDefaultTracer(),
		store.WithDefaultMeter(),
	)
	if err != nil {
		return err
	}
	defer st.Close()

	controller := health.NewController(st)

	// Schema initialization gates startup: the bounded retry inside Init
	// tolerates a late-arriving store, but exhausting it is fatal and the
	// process never reports ready.
	initCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	err = st.Init(initCtx)
	cancel()
	if err != nil {
		return err
	}
	controller.MarkStarted()
	logger.Info().Msg("schema initialized")

	srv := server.New(cfg.Addr, st, controller, registry, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
