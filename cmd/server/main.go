package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"aish-backend/internal/config"
	"aish-backend/internal/database"
	"aish-backend/internal/metrics"
	"aish-backend/internal/router"
	"aish-backend/internal/services"
	"aish-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db); err != nil {
		return err
	}

	hasher, err := utils.NewPasswordHasher(cfg.PasswordHash, cfg.PasswordSecret)
	if err != nil {
		return err
	}

	m := metrics.New()
	engine := router.New(router.Options{
		Logger:      logger,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        services.NewAuthService(db, hasher, logger),
		Cases:       services.NewCaseService(db, m, logger),
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.ListenPort),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("AISH backend listening", zap.String("addr", srv.Addr), zap.String("api", "/api"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if lvl == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	gin.SetMode(gin.ReleaseMode)
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
