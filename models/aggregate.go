package models

// Aspect is one of the fixed sentiment categories. Every AggregateResult
// carries a tally for every aspect, even when the count is zero.
type Aspect string

const (
	AspectCleanliness   Aspect = "cleanliness"
	AspectAccuracy      Aspect = "accuracy"
	AspectCheckIn       Aspect = "check-in"
	AspectCommunication Aspect = "communication"
	AspectLocation      Aspect = "location"
	AspectValue         Aspect = "value"
)

// AllAspects lists every aspect in canonical order.
func AllAspects() []Aspect {
	return []Aspect{
		AspectCleanliness,
		AspectAccuracy,
		AspectCheckIn,
		AspectCommunication,
		AspectLocation,
		AspectValue,
	}
}

// AspectSentiment tallies positive and negative mentions of one aspect,
// with up to a fixed number of supporting snippets.
type AspectSentiment struct {
	Positive int      `json:"positive"`
	Negative int      `json:"negative"`
	Total    int      `json:"total"`
	Snippets []string `json:"snippets"`
}

// GuestFit holds the guest-fit insight lists.
type GuestFit struct {
	RecommendedFor    []string `json:"recommended_for"`
	NotRecommendedFor []string `json:"not_recommended_for"`
	BestFeatures      []string `json:"best_features"`
	ImprovementAreas  []string `json:"improvement_areas"`
}

// ChunkAnalysis is the partial result produced for one token-bounded batch
// of review text. Its JSON shape is the contract the model must follow.
type ChunkAnalysis struct {
	Aspects           map[string]AspectSentiment `json:"aspects"`
	Summary           string                     `json:"summary"`
	Pros              []string                   `json:"pros"`
	Cons              []string                   `json:"cons"`
	RecommendedFor    []string                   `json:"recommended_for"`
	NotRecommendedFor []string                   `json:"not_recommended_for"`
	BestFeatures      []string                   `json:"best_features"`
	ImprovementAreas  []string                   `json:"improvement_areas"`
	TrustScore        float64                    `json:"trust_score"`
	ReviewCount       int                        `json:"review_count"`
}

// AggregateResult is the merged analysis across all batches. Immutable once
// returned. Aspects always contains exactly the keys from AllAspects.
type AggregateResult struct {
	Aspects         map[Aspect]*AspectSentiment
	Summary         string
	Pros            []string
	Cons            []string
	GuestFit        GuestFit
	TrustScore      float64
	ReviewsAnalyzed int
	Source          string // "llm", "heuristic", or "none"
}

// NewAggregateResult returns an aggregate with every aspect key present at a
// zero baseline.
func NewAggregateResult() *AggregateResult {
	agg := &AggregateResult{Aspects: make(map[Aspect]*AspectSentiment, len(AllAspects()))}
	for _, a := range AllAspects() {
		agg.Aspects[a] = &AspectSentiment{Snippets: []string{}}
	}
	return agg
}
