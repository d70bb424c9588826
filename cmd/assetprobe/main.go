// Command assetprobe runs the model validator against a list of locators,
// one per argument or one per stdin line, and exits non-zero if any fails.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"modelgallery/internal/asset"
	"modelgallery/internal/config"
)

func main() {
	var (
		parallel int
		verbose  bool
	)
	flag.IntVar(&parallel, "parallel", 4, "Number of locators validated concurrently")
	flag.BoolVar(&verbose, "v", false, "Log validator rejections to stderr")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	locators := flag.Args()
	if len(locators) == 0 {
		var err error
		if locators, err = readLines(os.Stdin); err != nil {
			log.Fatalf("read stdin: %v", err)
		}
	}
	if len(locators) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var logger *log.Logger
	if verbose {
		logger = log.New(os.Stderr, "[assetprobe] ", log.LstdFlags|log.LUTC)
	}
	client := &http.Client{}
	validator := asset.New(client, asset.NewGLTFLoader(client, cfg.AssetMaxBytes), cfg.AssetProbeTimeout, cfg.AssetLoadTimeout, logger)

	verdicts := probe(context.Background(), validator, locators, parallel)
	failed := 0
	for i, locator := range locators {
		status := "ok"
		if !verdicts[i] {
			status = "FAIL"
			failed++
		}
		fmt.Printf("%-4s %s\n", status, locator)
	}
	if failed > 0 {
		fmt.Printf("%d of %d models failed validation\n", failed, len(locators))
		os.Exit(1)
	}
}

type certifier interface {
	Validate(ctx context.Context, locator string) bool
}

func probe(ctx context.Context, v certifier, locators []string, parallel int) []bool {
	verdicts := make([]bool, len(locators))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, locator := range locators {
		i, locator := i, locator
		g.Go(func() error {
			verdicts[i] = v.Validate(ctx, locator)
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
