// Package main is a one-shot CLI that fetches a page of course deals and
// writes it to stdout or a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"coursegrab/config"
	"coursegrab/internal/cache"
	"coursegrab/internal/core"
	"coursegrab/internal/export"
	"coursegrab/internal/fetch"
	"coursegrab/internal/orchestrator"
	"coursegrab/internal/ratelimit"
	"coursegrab/internal/version"
)

func main() {
	page := flag.Int("page", 1, "Page to fetch")
	category := flag.String("category", core.CategoryAll, "Category filter")
	sort := flag.String("sort", core.DefaultSort, "Sort order (Date, Duration, Popularity, Rating)")
	search := flag.String("search", "", "Search term")
	refresh := flag.Bool("refresh", false, "Skip the cache and fetch from the network")
	output := flag.String("o", "", "Output file; format inferred from extension (.json, .csv, else text)")
	formatFlag := flag.String("format", "", "Output format override (json, csv, text)")
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelWarn,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	client := fetch.NewClient(fetch.Settings{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RetryAttempts: cfg.API.RetryAttempts,
		RetryDelay:    cfg.API.RetryDelay,
		PageSize:      cfg.API.PageSize,
	}, limiter, logger)

	store, err := cache.NewDiskStore(cfg.Cache.Dir, cfg.Cache.Duration, logger)
	if err != nil {
		fatal("failed to initialize cache", err)
	}

	orch := orchestrator.New(client, store, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	query := core.Query{
		Page:     *page,
		Category: *category,
		Sort:     *sort,
		Search:   *search,
	}
	outcome := <-orch.RequestAsync(ctx, query, orchestrator.Options{ForceRefresh: *refresh})
	if outcome.Err != nil {
		fatal("fetch failed", outcome.Err)
	}
	result := outcome.Result

	fmt.Fprintf(os.Stderr, "page %d/%d, %d courses (%s)\n",
		result.CurrentPage, result.TotalPages, len(result.Items), result.Provenance.Source)

	format := export.Format(*formatFlag)
	if format == "" {
		format = export.FormatForPath(*output)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fatal("failed to create output file", err)
		}
		defer func() {
			_ = f.Close()
		}()
		out = f
	}

	if err := export.Write(out, format, result.Items); err != nil {
		fatal("failed to write output", err)
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "coursefetch: %s: %v\n", msg, err)
	os.Exit(1)
}
