package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"airbnb-review-analyzer/config"
	"airbnb-review-analyzer/llm"
	"airbnb-review-analyzer/models"
	"airbnb-review-analyzer/scraper/airbnb"
	"airbnb-review-analyzer/services"
	"airbnb-review-analyzer/storage"
	"airbnb-review-analyzer/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	var (
		listingsFlag string
		question     string
		fromDB       bool
	)
	flag.StringVar(&listingsFlag, "listings", "", "Comma-separated Airbnb listing URLs (overrides LISTING_URLS)")
	flag.StringVar(&question, "question", "", "Optional question to answer from the collected reviews")
	flag.BoolVar(&fromDB, "from-db", false, "Re-analyze reviews already stored in PostgreSQL instead of scraping")
	flag.Parse()

	listings := cfg.ListingURLs
	if listingsFlag != "" {
		listings = splitList(listingsFlag)
	}
	if args := flag.Args(); len(args) > 0 {
		listings = append(listings, args...)
	}
	if len(listings) == 0 {
		logger.Error("No listing URLs given. Use -listings, LISTING_URLS, or positional arguments.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Airbnb Review Analyzer starting ===")
	logger.Info("Config — listings: %d | target reviews: %d | concurrency: %d | model: %s",
		len(listings), cfg.TargetReviews, cfg.MaxConcurrency, cfg.LLMModel)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer pgWriter.Close()

	collected := make(map[string][]*models.Review, len(listings))

	if fromDB {
		for _, url := range listings {
			reviews, err := pgWriter.FetchReviews(url)
			if err != nil {
				logger.Error("Fetch from PostgreSQL failed for %s: %v", url, err)
				continue
			}
			if len(reviews) == 0 {
				logger.Warn("No stored reviews for %s", url)
				continue
			}
			logger.Info("Loaded %d stored reviews for %s", len(reviews), url)
			collected[url] = reviews
		}
	} else {
		scraper := airbnb.New(cfg, logger)

		// Scrape listings concurrently; the pool bounds parallel browsers and
		// rate-limits navigations.
		pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs)
		visited := utils.NewStringSet()

		var mu sync.Mutex

		for _, listingURL := range listings {
			url := listingURL
			if !visited.Add(url) {
				logger.Debug("Skipping duplicate listing: %s", url)
				continue
			}
			pool.Submit(func() {
				reviews, err := scraper.CollectReviews(ctx, url)
				if err != nil {
					logger.Warn("Collection for %s ended early: %v", url, err)
				}
				if len(reviews) == 0 {
					logger.Error("No reviews collected for %s", url)
					return
				}

				if err := csvWriter.WriteReviews(reviews); err != nil {
					logger.Error("CSV write failed for %s: %v", url, err)
				}
				if err := pgWriter.WriteReviews(reviews); err != nil {
					logger.Error("PostgreSQL write failed for %s: %v", url, err)
				}

				mu.Lock()
				collected[url] = reviews
				mu.Unlock()
			})
		}
		pool.Wait()
	}

	if len(collected) == 0 {
		logger.Error("Nothing was collected. Exiting.")
		os.Exit(1)
	}

	analyzer := &services.Analyzer{
		Client:       llm.NewProvider(cfg.LLMAPIKey, cfg.LLMBaseURL),
		Model:        cfg.LLMModel,
		Cache:        &llm.Cache{Dir: cfg.LLMCacheDir},
		Logger:       logger,
		TokenCeiling: cfg.TokenCeiling,
		Overlap:      cfg.ChunkOverlap,
	}

	// Analyses run one listing at a time: the backend allows a single
	// in-flight session, and each run gets a fresh one.
	for _, url := range listings {
		reviews, ok := collected[url]
		if !ok {
			continue
		}

		agg, err := analyzer.Analyze(ctx, reviews)
		if err != nil {
			logger.Error("Analysis cancelled for %s: %v", url, err)
			break
		}

		services.PrintReport(url, agg)

		runID, err := pgWriter.WriteAggregate(url, agg)
		if err != nil {
			logger.Error("Failed to store analysis for %s: %v", url, err)
		} else {
			logger.Info("Analysis stored — run %s", runID)
		}

		if question != "" {
			answer, err := analyzer.AskQuestion(ctx, reviews, question)
			if err != nil {
				logger.Error("Question failed for %s: %v", url, err)
				continue
			}
			fmt.Printf("\n  \033[1;33mQ:\033[0m %s\n  \033[1;32mA:\033[0m %s\n", question, answer)
		}
	}

	fmt.Printf("\n  Done. Raw CSV → %s | Reviews & analyses → PostgreSQL\n\n", cfg.CSVOutputPath)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
