package airbnb

import "time"

// Collection budget defaults. The loop terminates on whichever of target,
// attempt budget, or no-progress budget is hit first.
const (
	DefaultTargetReviews    = 100
	DefaultMaxAttempts      = 30
	DefaultNoProgressBudget = 10
	DefaultExtraPassBudget  = 8

	// "Close but not done" band: above CloseBandLow and below CloseBandHigh
	// the finishing stage runs extra aggressive passes.
	CloseBandLow  = 50
	CloseBandHigh = 95

	// Stalls tolerated before probing for an explicit end-of-reviews signal.
	// Never probes on the very first stall.
	minStaleBeforeProbe = 2

	// Consecutive fruitless extra passes before the finishing stage gives up.
	extraPassStaleLimit = 3

	// Minimum body length for a review to stand without an author, and for
	// the default-rating heuristic to apply.
	minBodyLength = 30
)

// CollectPolicy centralizes every numeric knob of the collection loop so
// tests can inject small values and deterministic timings.
type CollectPolicy struct {
	TargetReviews    int
	MaxAttempts      int
	NoProgressBudget int
	ExtraPassBudget  int
	CloseBandLow     int
	CloseBandHigh    int
	SettleDelay      time.Duration
	FinalSettleDelay time.Duration

	// DefaultRating is assigned when a review has substantial body text but
	// no detectable rating marker. The platform requires a rating to post, so
	// substantial text implies one was given; 5 matches observed behavior.
	// Set to 0 to disable the heuristic and leave the rating unknown.
	DefaultRating int
}

// DefaultPolicy returns the production collection policy.
func DefaultPolicy() CollectPolicy {
	return CollectPolicy{
		TargetReviews:    DefaultTargetReviews,
		MaxAttempts:      DefaultMaxAttempts,
		NoProgressBudget: DefaultNoProgressBudget,
		ExtraPassBudget:  DefaultExtraPassBudget,
		CloseBandLow:     CloseBandLow,
		CloseBandHigh:    CloseBandHigh,
		SettleDelay:      2 * time.Second,
		FinalSettleDelay: 4 * time.Second,
		DefaultRating:    5,
	}
}
