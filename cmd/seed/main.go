package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"modelgallery/internal/config"
	"modelgallery/internal/db"
	productrepo "modelgallery/internal/repository/product"
	tokenrepo "modelgallery/internal/repository/token"
	userrepo "modelgallery/internal/repository/user"
	"modelgallery/internal/seed"
	accountsvc "modelgallery/internal/service/account"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	accounts := accountsvc.New(userrepo.NewPostgres(pool, logger), tokenrepo.NewPostgres(pool))
	if err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger), accounts, cfg.AssetBaseURL, logger); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied; demo login %s / %s", seed.DemoEmail, seed.DemoPassword)
}
