package services

import (
	"fmt"
	"strings"

	"airbnb-review-analyzer/models"
)

// aspectKeywords maps each fixed aspect onto the cue words the heuristic
// analyzer scans for.
var aspectKeywords = map[models.Aspect][]string{
	models.AspectCleanliness:   {"clean", "dirty", "spotless", "dust", "stain", "smell", "tidy", "filthy"},
	models.AspectAccuracy:      {"as described", "accurate", "photos", "pictures", "misleading", "expected", "listing said"},
	models.AspectCheckIn:       {"check-in", "check in", "checkin", "key", "lockbox", "arrival", "self check"},
	models.AspectCommunication: {"host", "responsive", "communication", "replied", "responded", "helpful", "unresponsive"},
	models.AspectLocation:      {"location", "neighborhood", "neighbourhood", "close to", "walking distance", "far from", "central", "quiet street"},
	models.AspectValue:         {"value", "price", "worth", "expensive", "cheap", "overpriced", "affordable", "bargain"},
}

var positiveWords = []string{
	"great", "amazing", "excellent", "perfect", "wonderful", "lovely", "beautiful",
	"clean", "spotless", "comfortable", "spacious", "friendly", "helpful",
	"responsive", "convenient", "recommend", "fantastic", "awesome", "cozy",
	"quiet", "stunning", "superb", "loved",
}

var negativeWords = []string{
	"dirty", "bad", "terrible", "awful", "horrible", "poor", "noisy", "loud",
	"broken", "uncomfortable", "rude", "disappointing", "misleading", "smell",
	"stain", "cold", "unresponsive", "overpriced", "cramped", "filthy", "issue",
	"problem",
}

// FallbackAnalyzer computes an AggregateResult locally, without the external
// API. It is used when every batch call fails, and produces the same shape
// with lower-confidence values.
type FallbackAnalyzer struct{}

// Analyze scans review bodies sentence by sentence, tallying aspect mentions
// by polarity. Every aspect key is always present in the result.
func (f *FallbackAnalyzer) Analyze(reviews []*models.Review) *models.AggregateResult {
	agg := models.NewAggregateResult()
	agg.Source = "heuristic"
	agg.ReviewsAnalyzed = len(reviews)

	var ratingSum, ratingCount int
	for _, r := range reviews {
		if r.Rating > 0 {
			ratingSum += r.Rating
			ratingCount++
		}
		for _, sentence := range splitSentences(r.Body) {
			polarity := sentencePolarity(sentence)
			lower := strings.ToLower(sentence)
			for aspect, keywords := range aspectKeywords {
				if !containsAny(lower, keywords) {
					continue
				}
				tally := agg.Aspects[aspect]
				tally.Total++
				switch {
				case polarity > 0:
					tally.Positive++
				case polarity < 0:
					tally.Negative++
				}
				if polarity != 0 && len(tally.Snippets) < maxSnippetsPerAspect {
					tally.Snippets = append(tally.Snippets, strings.TrimSpace(sentence))
				}
			}
		}
	}

	positives, negatives := rankedAspects(agg)
	agg.Pros = capList(describeAspects(positives, "Guests praise the %s"), maxPros)
	agg.Cons = capList(describeAspects(negatives, "Several guests mention problems with %s"), maxCons)
	agg.GuestFit = models.GuestFit{
		RecommendedFor:    capList(recommendationsFor(positives), maxRecommendedFor),
		NotRecommendedFor: capList(warningsFor(negatives), maxNotRecommended),
		BestFeatures:      capList(aspectNames(positives), maxBestFeatures),
		ImprovementAreas:  capList(aspectNames(negatives), maxImprovementAreas),
	}
	agg.TrustScore = trustScore(ratingSum, ratingCount, len(reviews))
	agg.Summary = heuristicSummary(len(reviews), positives, negatives)
	return agg
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

func sentencePolarity(sentence string) int {
	lower := strings.ToLower(sentence)
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score--
		}
	}
	return score
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// rankedAspects partitions aspects into net-positive and net-negative sets,
// strongest signal first, in the canonical enumeration order for ties.
func rankedAspects(agg *models.AggregateResult) (positives, negatives []models.Aspect) {
	for _, a := range models.AllAspects() {
		t := agg.Aspects[a]
		if t.Positive > t.Negative && t.Positive > 0 {
			positives = append(positives, a)
		} else if t.Negative > t.Positive {
			negatives = append(negatives, a)
		}
	}
	net := func(a models.Aspect) int { return agg.Aspects[a].Positive - agg.Aspects[a].Negative }
	sortAspectsBy(positives, func(a, b models.Aspect) bool { return net(a) > net(b) })
	sortAspectsBy(negatives, func(a, b models.Aspect) bool { return net(a) < net(b) })
	return positives, negatives
}

func sortAspectsBy(aspects []models.Aspect, less func(a, b models.Aspect) bool) {
	for i := 1; i < len(aspects); i++ {
		for j := i; j > 0 && less(aspects[j], aspects[j-1]); j-- {
			aspects[j], aspects[j-1] = aspects[j-1], aspects[j]
		}
	}
}

func describeAspects(aspects []models.Aspect, format string) []string {
	out := make([]string, 0, len(aspects))
	for _, a := range aspects {
		out = append(out, fmt.Sprintf(format, a))
	}
	return out
}

func recommendationsFor(positives []models.Aspect) []string {
	phrases := map[models.Aspect]string{
		models.AspectCleanliness:   "guests who value a well-kept space",
		models.AspectAccuracy:      "guests who want the listing to match the photos",
		models.AspectCheckIn:       "travelers arriving at odd hours",
		models.AspectCommunication: "first-time guests who want an attentive host",
		models.AspectLocation:      "visitors who want to be close to everything",
		models.AspectValue:         "budget-conscious travelers",
	}
	var out []string
	for _, a := range positives {
		out = append(out, phrases[a])
	}
	return out
}

func warningsFor(negatives []models.Aspect) []string {
	phrases := map[models.Aspect]string{
		models.AspectCleanliness:   "guests sensitive to cleanliness issues",
		models.AspectAccuracy:      "guests expecting the listing to match exactly",
		models.AspectCheckIn:       "travelers who need a smooth arrival",
		models.AspectCommunication: "guests who expect quick host responses",
		models.AspectLocation:      "light sleepers or guests wanting a central spot",
		models.AspectValue:         "travelers on a tight budget",
	}
	var out []string
	for _, a := range negatives {
		out = append(out, phrases[a])
	}
	return out
}

func aspectNames(aspects []models.Aspect) []string {
	out := make([]string, 0, len(aspects))
	for _, a := range aspects {
		out = append(out, string(a))
	}
	return out
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// trustScore blends the average star rating with sample size into a 0–100
// score.
func trustScore(ratingSum, ratingCount, total int) float64 {
	if total == 0 {
		return 0
	}
	ratingPart := 0.5
	if ratingCount > 0 {
		ratingPart = float64(ratingSum) / float64(ratingCount) / 5.0
	}
	volumePart := float64(total) / 100.0
	if volumePart > 1 {
		volumePart = 1
	}
	return (ratingPart*0.7 + volumePart*0.3) * 100
}

func heuristicSummary(total int, positives, negatives []models.Aspect) string {
	if total == 0 {
		return "No reviews available to analyze."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Keyword-based summary of %d reviews.", total)
	if len(positives) > 0 {
		fmt.Fprintf(&b, " Guests are mostly positive about %s.", joinAspects(positives))
	}
	if len(negatives) > 0 {
		fmt.Fprintf(&b, " Recurring complaints mention %s.", joinAspects(negatives))
	}
	return b.String()
}

func joinAspects(aspects []models.Aspect) string {
	names := aspectNames(aspects)
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
