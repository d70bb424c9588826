package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"modelgallery/internal/config"
	"modelgallery/internal/db"
	"modelgallery/internal/importer"
	"modelgallery/internal/repository/product"
)

func main() {
	var (
		filePath string
		format   string
	)
	flag.StringVar(&filePath, "file", "", "Path to a product catalog (.csv, .yaml or .yml)")
	flag.StringVar(&format, "format", "", "Catalog format (csv or yaml); inferred from the extension when empty")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	f := importer.Format(format)
	if f == "" {
		var err error
		if f, err = importer.FormatFromPath(filePath); err != nil {
			log.Fatalf("%v", err)
		}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer file.Close()

	start := time.Now()
	count, err := importer.Run(ctx, f, file, product.NewPostgres(pool, nil))
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
