// Package main initializes and starts the quiz server, setting up
// configuration, logging, the store connection, the quiz cache, services
// and the websocket gateway.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/imorozov/wordquiz/internal/cache"
	"github.com/imorozov/wordquiz/internal/config"
	"github.com/imorozov/wordquiz/internal/db"
	"github.com/imorozov/wordquiz/internal/logger"
	"github.com/imorozov/wordquiz/internal/mailer"
	"github.com/imorozov/wordquiz/internal/models"
	"github.com/imorozov/wordquiz/internal/repository"
	"github.com/imorozov/wordquiz/internal/server/handler/http"
	"github.com/imorozov/wordquiz/internal/server/handler/ws"
	"github.com/imorozov/wordquiz/internal/service"
)

// shutdownGrace bounds orderly teardown; a hung store connection must not
// block process exit.
const shutdownGrace = 25 * time.Second

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", firstNonZero(version, "N/A"))
	fmt.Printf("Build date: %s\n", firstNonZero(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect the store. A failure is not fatal: the server keeps running
	// with an empty cache and store-backed operations report unavailable.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Error("store unavailable, serving with empty quiz cache", zap.Error(err))
		postgresDB = nil
	}
	store, rootCfg, collections := bootstrapStore(ctx, postgresDB, zapLogger)

	if store.Available() {
		db.StartSessionSweeper(ctx, store.DB, time.Hour, zapLogger)
	}

	// Seed the in-memory quiz mirror.
	quizCache := cache.New(store)
	quizCache.Load(rootCfg, collections)
	zapLogger.Info("quiz cache loaded",
		zap.String("version", rootCfg.Version),
		zap.Int("collections", len(collections)),
	)

	// Wire the identity services and the gateway.
	mail := mailer.New(rootCfg.Mail, zapLogger)
	sessions := service.NewSessionService(store, mail, []byte(rootCfg.JWTSecret), zapLogger)
	gateway := ws.NewGateway(sessions, quizCache, options.ImportDir, zapLogger)

	router := http.NewRouter(gateway, zapLogger, store.Available())

	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			zapLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	// Hard deadline: exit even if orderly close hangs.
	forceExit := time.AfterFunc(shutdownGrace, func() {
		zapLogger.Error("shutdown grace period exceeded, forcing exit")
		os.Exit(1)
	})
	defer forceExit.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		zapLogger.Error("store close failed", zap.Error(err))
	}
	zapLogger.Info("shutdown complete")
}

// bootstrapStore wraps the database handle and seeds the boot content from
// it. Any store failure here degrades to an empty cache instead of failing
// the boot: the handle is released and a disconnected store takes its
// place, so store-backed operations report unavailable while the server
// keeps serving.
func bootstrapStore(ctx context.Context, sqlDB *sql.DB, log *zap.Logger) (*repository.Store, *models.RootConfig, map[string]models.QuizCollection) {
	rootCfg := &models.RootConfig{Version: "0.0.0"}
	collections := map[string]models.QuizCollection{}

	store := repository.NewStore(sqlDB)
	if !store.Available() {
		return store, rootCfg, collections
	}

	cfg, cols, err := store.Load(ctx)
	if err != nil {
		log.Error("cannot load store content, serving with empty quiz cache", zap.Error(err))
		_ = store.Close()
		return repository.NewStore(nil), rootCfg, collections
	}
	return store, cfg, cols
}

// firstNonZero returns the first of its arguments that is not the zero
// value; it mirrors cmp.Or, which needs a newer Go toolchain.
func firstNonZero[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
