package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/api"
	"github.com/siragled/shopwatch/internal/config"
	"github.com/siragled/shopwatch/internal/logger"
	"github.com/siragled/shopwatch/internal/product"
	"github.com/siragled/shopwatch/internal/scraper"
	"github.com/siragled/shopwatch/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting shopwatch",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port))

	st, err := store.NewSQLite(cfg.DataDir)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()
	log.Info("store ready", zap.String("data_dir", cfg.DataDir))

	client := scraper.NewClient(cfg.ScraperUserAgent, cfg.FetchTimeout)
	scrapeService := scraper.NewService(log,
		scraper.NewAmazonScraper(client, log),
		scraper.NewGenericScraper(client, log),
	)

	productService := product.NewService(st, scrapeService, log)

	var scheduler *product.Scheduler
	if cfg.RefreshEnabled {
		scheduler = product.NewScheduler(productService, st, log, cfg.RefreshInterval, cfg.RefreshBatchSize)
		scheduler.Start()
		log.Info("background refresh enabled",
			zap.Duration("interval", cfg.RefreshInterval),
			zap.Int("batch_size", cfg.RefreshBatchSize))
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, productService, st, cfg.CORSOrigins, log)

	srv := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	log.Info("server listening", zap.String("addr", srv.Addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	case sig := <-sigChan:
		log.Info("received signal", zap.Stringer("signal", sig))
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("shopwatch stopped")
}
