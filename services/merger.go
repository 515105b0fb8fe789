package services

import (
	"sort"
	"strings"

	"airbnb-review-analyzer/models"
)

// List caps applied after folding all batches.
const (
	maxSnippetsPerAspect = 10
	maxPros              = 7
	maxCons              = 5
	maxRecommendedFor    = 5
	maxNotRecommended    = 3
	maxBestFeatures      = 5
	maxImprovementAreas  = 4
)

// MergeChunks folds per-batch partial results into one AggregateResult.
// Every aspect key is initialized to a zero baseline before folding, so the
// output always contains the full enumeration regardless of which aspects
// the batches mention. Per-aspect folding is commutative; only snippet
// capping and insight ranking are sensitive to batch order (first seen kept
// first).
func MergeChunks(partials []models.ChunkAnalysis) *models.AggregateResult {
	agg := models.NewAggregateResult()
	agg.Source = "llm"

	var summaries []string
	var trustSum float64
	var trustWeight int

	prosFreq := newFreqList()
	consFreq := newFreqList()
	recFreq := newFreqList()
	notRecFreq := newFreqList()
	featFreq := newFreqList()
	imprFreq := newFreqList()

	for _, part := range partials {
		for name, tally := range part.Aspects {
			aspect, ok := canonicalAspect(name)
			if !ok {
				continue
			}
			dst := agg.Aspects[aspect]
			dst.Positive += tally.Positive
			dst.Negative += tally.Negative
			dst.Total += tally.Total
			dst.Snippets = append(dst.Snippets, tally.Snippets...)
		}

		if s := strings.TrimSpace(part.Summary); s != "" {
			summaries = append(summaries, s)
		}
		prosFreq.addBatch(part.Pros)
		consFreq.addBatch(part.Cons)
		recFreq.addBatch(part.RecommendedFor)
		notRecFreq.addBatch(part.NotRecommendedFor)
		featFreq.addBatch(part.BestFeatures)
		imprFreq.addBatch(part.ImprovementAreas)

		agg.ReviewsAnalyzed += part.ReviewCount
		if part.TrustScore > 0 {
			weight := part.ReviewCount
			if weight == 0 {
				weight = 1
			}
			trustSum += part.TrustScore * float64(weight)
			trustWeight += weight
		}
	}

	for _, a := range models.AllAspects() {
		if len(agg.Aspects[a].Snippets) > maxSnippetsPerAspect {
			agg.Aspects[a].Snippets = agg.Aspects[a].Snippets[:maxSnippetsPerAspect]
		}
	}

	agg.Summary = strings.Join(summaries, " ")
	agg.Pros = prosFreq.top(maxPros)
	agg.Cons = consFreq.top(maxCons)
	agg.GuestFit = models.GuestFit{
		RecommendedFor:    recFreq.top(maxRecommendedFor),
		NotRecommendedFor: notRecFreq.top(maxNotRecommended),
		BestFeatures:      featFreq.top(maxBestFeatures),
		ImprovementAreas:  imprFreq.top(maxImprovementAreas),
	}
	if trustWeight > 0 {
		agg.TrustScore = trustSum / float64(trustWeight)
	}
	return agg
}

// canonicalAspect maps a model-reported aspect name onto the fixed
// enumeration; unknown names are dropped.
func canonicalAspect(name string) (models.Aspect, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	key = strings.ReplaceAll(key, " ", "-")
	switch key {
	case "check-in", "checkin":
		key = string(models.AspectCheckIn)
	}
	for _, a := range models.AllAspects() {
		if key == string(a) {
			return a, true
		}
	}
	return "", false
}

// freqList deduplicates free-text items by exact match in batch-encounter
// order and ranks them by how many batches mentioned them.
type freqList struct {
	order []string
	count map[string]int
}

func newFreqList() *freqList {
	return &freqList{count: make(map[string]int)}
}

// addBatch records each distinct item of one batch once.
func (f *freqList) addBatch(items []string) {
	seenHere := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seenHere[item]; dup {
			continue
		}
		seenHere[item] = struct{}{}
		if _, known := f.count[item]; !known {
			f.order = append(f.order, item)
		}
		f.count[item]++
	}
}

// top returns up to n items, most-mentioned first; ties keep encounter order.
func (f *freqList) top(n int) []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	sort.SliceStable(out, func(i, j int) bool {
		return f.count[out[i]] > f.count[out[j]]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
