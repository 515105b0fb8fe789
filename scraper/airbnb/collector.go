package airbnb

import (
	"context"

	"airbnb-review-analyzer/models"
	"airbnb-review-analyzer/utils"
)

// PageDriver abstracts the live page the collector works against, so the
// loop can be exercised with a fake in tests. Every method that can block
// takes a context and honors cancellation.
type PageDriver interface {
	// Expand attempts to make more reviews visible, walking the expansion
	// strategy cascade, and reports whether the page position measurably
	// changed. A failed strategy is "no effect", not an error.
	Expand(ctx context.Context) (moved bool, err error)

	// Settle waits for newly triggered content to render, waiting longer when
	// in-progress loading indicators are visible.
	Settle(ctx context.Context, final bool) error

	// Extract returns the reviews currently renderable on the page.
	Extract(ctx context.Context) ([]*models.Review, error)

	// Exhausted probes for explicit "no more reviews" signals.
	Exhausted(ctx context.Context) (bool, error)

	// FinalPass runs the nth aggressive finishing scroll, alternating
	// scroll-to-bottom and top-then-bottom strategies.
	FinalPass(ctx context.Context, n int) error

	// DismissOverlay closes any modal the expansion strategies opened.
	// Best effort; a missing dismiss control is not an error.
	DismissOverlay(ctx context.Context) error
}

// Collector drives the adaptive expansion/extraction loop against a
// PageDriver until it reaches the target review count, detects exhaustion,
// or runs out of attempt budget.
type Collector struct {
	driver PageDriver
	policy CollectPolicy
	logger *utils.Logger
}

// NewCollector builds a collector with the given driver and policy.
func NewCollector(driver PageDriver, policy CollectPolicy, logger *utils.Logger) *Collector {
	return &Collector{driver: driver, policy: policy, logger: logger}
}

// Collect runs one collection pass. It always returns the reviews
// accumulated so far, even when the context is cancelled mid-loop. The
// returned slice is insertion-ordered and unique by (author, body).
func (c *Collector) Collect(ctx context.Context) ([]*models.Review, error) {
	p := c.policy
	seen := utils.NewStringSet()
	accumulated := make([]*models.Review, 0, p.TargetReviews)
	stale := 0

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return accumulated, err
		}

		moved, err := c.driver.Expand(ctx)
		if err != nil {
			// Expansion trouble is a no-effect attempt; new content may still
			// arrive asynchronously, so extraction proceeds.
			c.logger.Debug("[collector] attempt %d: expand: %v", attempt, err)
		}
		if !moved {
			c.logger.Debug("[collector] attempt %d: no expansion strategy changed position", attempt)
		}

		if err := c.driver.Settle(ctx, false); err != nil {
			return accumulated, err
		}

		before := len(accumulated)
		reviews, err := c.driver.Extract(ctx)
		if err != nil {
			c.logger.Warn("[collector] attempt %d: extract failed: %v", attempt, err)
		}
		accumulated = mergeUnique(accumulated, reviews, seen)

		if len(accumulated) > before {
			stale = 0
		} else {
			stale++
			if stale >= minStaleBeforeProbe {
				if done, _ := c.driver.Exhausted(ctx); done {
					c.logger.Info("[collector] end-of-reviews signal after attempt %d — %d collected", attempt, len(accumulated))
					return c.finish(ctx, accumulated, seen)
				}
			}
		}

		c.logger.Debug("[collector] attempt %d/%d — %d/%d reviews, %d stale",
			attempt, p.MaxAttempts, len(accumulated), p.TargetReviews, stale)

		if len(accumulated) >= p.TargetReviews || stale >= p.NoProgressBudget {
			break
		}
	}

	return c.finish(ctx, accumulated, seen)
}

// finish runs the aggressive extra passes when the count landed in the
// close-but-not-done band, dismisses any leftover overlay, and truncates to
// the target.
func (c *Collector) finish(ctx context.Context, accumulated []*models.Review, seen *utils.StringSet) ([]*models.Review, error) {
	p := c.policy

	if len(accumulated) >= p.CloseBandLow && len(accumulated) < p.CloseBandHigh {
		c.logger.Info("[collector] %d reviews is close to target — running up to %d extra passes",
			len(accumulated), p.ExtraPassBudget)

		extraStale := 0
		for pass := 1; pass <= p.ExtraPassBudget; pass++ {
			if err := ctx.Err(); err != nil {
				return truncate(accumulated, p.TargetReviews), err
			}

			if err := c.driver.FinalPass(ctx, pass); err != nil {
				c.logger.Debug("[collector] extra pass %d: %v", pass, err)
			}
			if err := c.driver.Settle(ctx, true); err != nil {
				return truncate(accumulated, p.TargetReviews), err
			}

			before := len(accumulated)
			reviews, err := c.driver.Extract(ctx)
			if err != nil {
				c.logger.Warn("[collector] extra pass %d: extract failed: %v", pass, err)
			}
			accumulated = mergeUnique(accumulated, reviews, seen)

			if len(accumulated) > before {
				extraStale = 0
			} else {
				extraStale++
				if extraStale >= extraPassStaleLimit {
					break
				}
			}
			if len(accumulated) >= p.TargetReviews {
				break
			}
		}
	}

	if err := c.driver.DismissOverlay(ctx); err != nil {
		c.logger.Debug("[collector] dismiss overlay: %v", err)
	}

	return truncate(accumulated, p.TargetReviews), nil
}

// mergeUnique appends reviews not already in the set, preserving encounter
// order. The accumulated slice never shrinks.
func mergeUnique(accumulated []*models.Review, incoming []*models.Review, seen *utils.StringSet) []*models.Review {
	for _, r := range incoming {
		if r == nil {
			continue
		}
		if seen.Add(r.Key()) {
			accumulated = append(accumulated, r)
		}
	}
	return accumulated
}

func truncate(reviews []*models.Review, target int) []*models.Review {
	if len(reviews) > target {
		return reviews[:target]
	}
	return reviews
}
