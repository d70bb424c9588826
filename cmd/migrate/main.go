package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"modelgallery/internal/config"
	"modelgallery/internal/db"
	"modelgallery/internal/migrate"
)

func main() {
	var (
		down   int
		status bool
	)
	flag.IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")
	flag.BoolVar(&status, "status", false, "Print the applied schema version and exit")
	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)
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

	switch {
	case status:
		version, dirty, ok, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatalf("read version: %v", err)
		}
		if !ok {
			logger.Println("no migrations applied")
			return
		}
		logger.Printf("schema version=%d dirty=%t", version, dirty)
	case down > 0:
		if err := migrate.Rollback(ctx, pool, down); err != nil {
			logger.Fatalf("rollback migrations: %v", err)
		}
		logger.Printf("rolled back %d migrations", down)
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		logger.Println("migrations applied")
	}
}
