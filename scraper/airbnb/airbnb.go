package airbnb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"airbnb-review-analyzer/config"
	"airbnb-review-analyzer/models"
	"airbnb-review-analyzer/utils"
)

const platform = "airbnb"

// Scraper collects guest reviews from Airbnb listing pages.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	policy CollectPolicy
	retry  *utils.RetryConfig
}

// New creates a ready-to-use review Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		policy: policyFromConfig(cfg),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

func policyFromConfig(cfg *config.Config) CollectPolicy {
	p := DefaultPolicy()
	if cfg.TargetReviews > 0 {
		p.TargetReviews = cfg.TargetReviews
	}
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.NoProgressBudget > 0 {
		p.NoProgressBudget = cfg.NoProgressBudget
	}
	if cfg.ExtraPassBudget > 0 {
		p.ExtraPassBudget = cfg.ExtraPassBudget
	}
	if cfg.SettleDelay > 0 {
		p.SettleDelay = cfg.SettleDelay
	}
	if cfg.FinalSettleDelay > 0 {
		p.FinalSettleDelay = cfg.FinalSettleDelay
	}
	p.DefaultRating = cfg.DefaultRating
	return p
}

// CollectReviews opens the listing page in a fresh browser tab and runs the
// adaptive collection loop until the policy's budgets are spent.
func (s *Scraper) CollectReviews(ctx context.Context, listingURL string) ([]*models.Review, error) {
	s.logger.Info("[airbnb] Collecting reviews — target %d, attempt budget %d — %s",
		s.policy.TargetReviews, s.policy.MaxAttempts, listingURL)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Debug("[airbnb] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	if err := s.retry.Do(ctx, "open-listing", func() error {
		navCtx, cancel := context.WithTimeout(tab, 90*time.Second)
		defer cancel()
		return chromedp.Run(navCtx,
			chromedp.Navigate(listingURL),
			chromedp.Sleep(5*time.Second),
		)
	}); err != nil {
		return nil, fmt.Errorf("airbnb: open listing %q: %w", listingURL, err)
	}

	extractor := &Extractor{
		DefaultRating: s.policy.DefaultRating,
		Platform:      platform,
		ListingURL:    listingURL,
	}
	driver := newChromeDriver(tab, extractor, s.policy, s.logger)
	collector := NewCollector(driver, s.policy, s.logger)

	reviews, err := collector.Collect(ctx)
	s.logger.Info("[airbnb] Collection done — %d unique reviews from %s", len(reviews), listingURL)
	return reviews, err
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
