package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/auto-quote/internal/cache"
	"github.com/iwvelando/auto-quote/internal/logging"
	"github.com/iwvelando/auto-quote/internal/server"
	"github.com/iwvelando/auto-quote/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

// newCache builds the configured quote cache. A nil cache disables caching.
func newCache(logger *zap.Logger, cfg server.CacheConfig) cache.Cache {
	switch cfg.Backend {
	case server.CacheNone:
		return nil
	case server.CacheRedis:
		c := cache.NewRedis(cache.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.TTL,
			Timeout:  cfg.Redis.Timeout,
		})
		if err := c.Ping(context.Background()); err != nil {
			logger.Warn("redis cache is not reachable; quotes will be computed on every request",
				zap.String("op", "main.newCache"),
				zap.String("address", cfg.Redis.Address),
				zap.Error(err),
			)
		}
		return c
	default:
		return cache.NewMemory(cfg.TTL)
	}
}

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to read .env\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	quoteCache := newCache(logger, cfg.Cache)
	if quoteCache != nil {
		defer func() {
			if err := quoteCache.Close(); err != nil {
				logger.Warn("failed to close quote cache",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg, quoteCache, version),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("quote server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("cache", cfg.Cache.Backend),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case sig := <-quit:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
