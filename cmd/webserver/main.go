package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"studycompanion"
)

const (
	sessionIdle       = time.Hour
	housekeepingEvery = 10 * time.Minute
	shutdownTimeout   = 5 * time.Second
)

func main() {
	configDir := flag.String("config", ".", "Directory containing config.yaml")
	flag.Parse()

	cfg, err := studycompanion.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := studycompanion.NewLogger(cfg.Log, cfg.Server.Mode == "debug")
	studycompanion.SetLogger(logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg.Database.Path)
	defer closeStore()

	gen, err := studycompanion.NewTextGenerator(ctx, cfg.AI)
	if err != nil {
		logger.Fatal("Failed to create text generator", zap.Error(err))
	}

	llmLog := studycompanion.NewLLMLogger(cfg.Log)
	defer llmLog.Close()

	companion := studycompanion.NewStudyCompanion(gen,
		studycompanion.WithLLMLogger(llmLog),
		studycompanion.WithStrictQuiz(cfg.AI.StrictQuiz),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	studycompanion.RegisterMetrics(reg)

	server := newServer(cfg, companion, store, reg)
	go runHousekeeping(ctx, server)

	if err := run(ctx, ":"+cfg.Server.Port, server.routes(), server.closeStreams); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
	logger.Info("Server exiting")
}

// openStore opens the SQLite store behind a FallbackStore. If the database
// cannot be opened the server still starts, keeping state in memory.
func openStore(ctx context.Context, path string) (*studycompanion.FallbackStore, func()) {
	sqlite, err := studycompanion.OpenSQLiteStore(ctx, path)
	if err != nil {
		studycompanion.Logger().Warn("Failed to open database, keeping session state in memory",
			zap.String("path", path),
			zap.Error(errors.Join(studycompanion.ErrPersistenceUnavailable, err)),
		)
		return studycompanion.NewFallbackStore(studycompanion.NewMemoryStore()), func() {}
	}

	return studycompanion.NewFallbackStore(sqlite), func() {
		if err := sqlite.Close(); err != nil {
			studycompanion.Logger().Warn("Failed to close database", zap.Error(err))
		}
	}
}

func runHousekeeping(ctx context.Context, s *Server) {
	ticker := time.NewTicker(housekeepingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.housekeeping(sessionIdle)
		case <-ctx.Done():
			return
		}
	}
}

// run serves handler on addr until ctx is cancelled, then shuts down
// gracefully. onShutdown runs when the drain starts, to end long-lived
// streams that would otherwise hold it open.
func run(ctx context.Context, addr string, handler http.Handler, onShutdown func()) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(onShutdown)

	errCh := make(chan error, 1)
	go func() {
		studycompanion.Logger().Info("Server running", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	studycompanion.Logger().Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
