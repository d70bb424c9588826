package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"modelgallery/internal/acquire"
	"modelgallery/internal/asset"
	"modelgallery/internal/config"
	"modelgallery/internal/db"
	"modelgallery/internal/domain"
	"modelgallery/internal/httpserver"
	categoryrepo "modelgallery/internal/repository/category"
	productrepo "modelgallery/internal/repository/product"
	tokenrepo "modelgallery/internal/repository/token"
	userrepo "modelgallery/internal/repository/user"
	accountsvc "modelgallery/internal/service/account"
	catalogsvc "modelgallery/internal/service/catalog"
	categorysvc "modelgallery/internal/service/category"
	"modelgallery/internal/viewer"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	catalogService := catalogsvc.New(productRepo)
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))
	userRepo := userrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	accountService := accountsvc.New(userRepo, tokenRepo)

	// Per-request deadlines come from contexts; the client itself has none.
	httpClient := &http.Client{}
	validator := asset.New(httpClient, asset.NewGLTFLoader(httpClient, cfg.AssetMaxBytes), cfg.AssetProbeTimeout, cfg.AssetLoadTimeout, logger)
	policy := acquire.Policy{
		MaxRetries:     cfg.FetchMaxRetries,
		AttemptTimeout: cfg.FetchAttemptTimeout,
		RetryDelay:     cfg.FetchRetryDelay,
	}
	fetcher := acquire.New(acquire.NewHTTPSource(cfg.APIBaseURL, httpClient), validator, domain.NewFallback(cfg.AssetBaseURL), policy, logger)

	viewerCtx, stopViewers := context.WithCancel(context.Background())
	defer stopViewers()
	registry := viewer.NewRegistry(viewerCtx, fetcher, viewer.LogRenderer{Logger: logger}, logger)
	go registry.RunSweeper(viewerCtx, time.Minute, cfg.ViewerSessionIdle)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:       catalogService,
		Categories:    categoryService,
		Accounts:      accountService,
		Viewer:        registry,
		Assets:        validator,
		CORSOrigins:   cfg.CORSOrigins,
		StaticDir:     cfg.StaticDir,
		SettleTimeout: policy.Budget() + 2*cfg.AssetProbeTimeout + cfg.AssetLoadTimeout,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	stopViewers()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
