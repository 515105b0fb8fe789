package services

import (
	"strings"
	"testing"

	"airbnb-review-analyzer/models"
)

func fbReview(body string, rating int) *models.Review {
	return &models.Review{Author: "Guest", Body: body, Rating: rating}
}

func TestFallbackAnalyzeTalliesAspects(t *testing.T) {
	reviews := []*models.Review{
		fbReview("The apartment was spotless and clean. Great location near everything.", 5),
		fbReview("Very clean place! The host was responsive and helpful.", 5),
		fbReview("The location was terrible, noisy all night.", 2),
	}

	agg := (&FallbackAnalyzer{}).Analyze(reviews)

	if agg.Source != "heuristic" {
		t.Errorf("source: got %q, want heuristic", agg.Source)
	}
	if agg.ReviewsAnalyzed != 3 {
		t.Errorf("reviews analyzed: got %d, want 3", agg.ReviewsAnalyzed)
	}

	clean := agg.Aspects[models.AspectCleanliness]
	if clean.Positive < 2 {
		t.Errorf("cleanliness positives: got %d, want at least 2", clean.Positive)
	}
	if clean.Negative != 0 {
		t.Errorf("cleanliness negatives: got %d, want 0", clean.Negative)
	}

	loc := agg.Aspects[models.AspectLocation]
	if loc.Positive == 0 || loc.Negative == 0 {
		t.Errorf("location should have both polarities: +%d/-%d", loc.Positive, loc.Negative)
	}
	if len(clean.Snippets) == 0 {
		t.Errorf("polar sentences should be kept as snippets")
	}
}

func TestFallbackAnalyzeAlwaysEnumeratesEveryAspect(t *testing.T) {
	agg := (&FallbackAnalyzer{}).Analyze([]*models.Review{fbReview("Nothing notable to report here.", 4)})
	for _, a := range models.AllAspects() {
		s, ok := agg.Aspects[a]
		if !ok || s == nil {
			t.Errorf("aspect %q missing", a)
		}
	}
}

func TestFallbackInsightsFollowPolarity(t *testing.T) {
	reviews := []*models.Review{
		fbReview("Spotless, clean and tidy everywhere. Clean bathroom too.", 5),
		fbReview("The host was unresponsive. Communication was poor.", 2),
	}

	agg := (&FallbackAnalyzer{}).Analyze(reviews)

	if len(agg.Pros) == 0 || !strings.Contains(agg.Pros[0], "cleanliness") {
		t.Errorf("pros should lead with the strongest positive aspect, got %v", agg.Pros)
	}
	if len(agg.Cons) == 0 || !strings.Contains(agg.Cons[0], "communication") {
		t.Errorf("cons should name communication, got %v", agg.Cons)
	}
	if len(agg.GuestFit.BestFeatures) == 0 {
		t.Errorf("best features should not be empty")
	}
	if len(agg.GuestFit.ImprovementAreas) == 0 {
		t.Errorf("improvement areas should not be empty")
	}
	if agg.Summary == "" {
		t.Errorf("summary should be populated")
	}
}

func TestFallbackTrustScore(t *testing.T) {
	if got := trustScore(0, 0, 0); got != 0 {
		t.Errorf("no reviews: got %v, want 0", got)
	}

	// Average 5.0 over 100 reviews saturates both components.
	if got := trustScore(500, 100, 100); got < 99.9 || got > 100.1 {
		t.Errorf("perfect case: got %v, want 100", got)
	}

	// Average 4.0 over 10 reviews: 0.8*0.7 + 0.1*0.3 = 0.59.
	got := trustScore(40, 10, 10)
	if got < 58.9 || got > 59.1 {
		t.Errorf("blended case: got %v, want ~59", got)
	}

	// Unrated reviews fall back to a neutral rating component.
	got = trustScore(0, 0, 10)
	if got < 37.9 || got > 38.1 {
		t.Errorf("unrated case: got %v, want ~38", got)
	}
}

func TestFallbackEmptyInput(t *testing.T) {
	agg := (&FallbackAnalyzer{}).Analyze(nil)
	if agg.TrustScore != 0 {
		t.Errorf("trust score: got %v, want 0", agg.TrustScore)
	}
	if agg.Summary != "No reviews available to analyze." {
		t.Errorf("summary: got %q", agg.Summary)
	}
}
