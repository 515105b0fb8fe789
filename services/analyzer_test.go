package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"airbnb-review-analyzer/llm"
	"airbnb-review-analyzer/models"
	"airbnb-review-analyzer/utils"
)

// fakeClient routes each request through a handler so tests can script
// per-batch behavior.
type fakeClient struct {
	handle func(system, user string) (string, error)
	calls  int
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	system, user := req.Messages[0].Content, req.Messages[1].Content
	content, err := f.handle(system, user)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func isAnalysisCall(system string) bool { return system == analysisSystemMessage }
func isSummaryCall(system string) bool  { return strings.Contains(system, "summarize") }

func newTestAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{
		Client: client,
		Model:  "test-model",
		Logger: utils.NewLogger(),
		// Low ceiling so each test review rides in its own batch.
		TokenCeiling: 30,
		Overlap:      2,
	}
}

func mkAnalyzerReview(author, marker string, rating int) *models.Review {
	return &models.Review{
		Author: author,
		Rating: rating,
		Body:   marker + " " + strings.Repeat("lorem ipsum ", 20),
	}
}

const alphaBatchJSON = `{"aspects":{"cleanliness":{"positive":2,"negative":0,"total":2,"snippets":["sparkling clean"]}},` +
	`"summary":"Batch one.","pros":["clean"],"review_count":1,"trust_score":80}`

const betaBatchJSON = `{"aspects":{"cleanliness":{"positive":1,"negative":1,"total":2}},` +
	`"summary":"Batch two.","pros":["clean"],"review_count":1,"trust_score":60}`

func TestAnalyzeMergesBatches(t *testing.T) {
	client := &fakeClient{handle: func(system, user string) (string, error) {
		switch {
		case isAnalysisCall(system) && strings.Contains(user, "ALPHA"):
			return alphaBatchJSON, nil
		case isAnalysisCall(system):
			return betaBatchJSON, nil
		case isSummaryCall(system):
			return "Guests love it.", nil
		}
		return "", errors.New("unexpected call")
	}}

	reviews := []*models.Review{
		mkAnalyzerReview("Maria", "ALPHA", 5),
		mkAnalyzerReview("Ben", "BETA", 4),
	}

	agg, err := newTestAnalyzer(client).Analyze(context.Background(), reviews)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.Source != "llm" {
		t.Errorf("source: got %q, want llm", agg.Source)
	}
	clean := agg.Aspects[models.AspectCleanliness]
	if clean.Positive != 3 || clean.Negative != 1 {
		t.Errorf("cleanliness: got +%d/-%d, want +3/-1", clean.Positive, clean.Negative)
	}
	if agg.ReviewsAnalyzed != 2 {
		t.Errorf("reviews analyzed: got %d, want 2", agg.ReviewsAnalyzed)
	}
	if agg.Summary != "Guests love it." {
		t.Errorf("refined summary should win: got %q", agg.Summary)
	}
}

func TestAnalyzeAcceptsFencedJSON(t *testing.T) {
	client := &fakeClient{handle: func(system, user string) (string, error) {
		if isAnalysisCall(system) {
			return "```json\n" + alphaBatchJSON + "\n```", nil
		}
		return "", errors.New("no summary")
	}}

	agg, err := newTestAnalyzer(client).Analyze(context.Background(),
		[]*models.Review{mkAnalyzerReview("Maria", "ALPHA", 5)})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.Aspects[models.AspectCleanliness].Positive != 2 {
		t.Errorf("fenced payload should parse, got %+v", agg.Aspects[models.AspectCleanliness])
	}
}

func TestAnalyzeSkipsFailedBatch(t *testing.T) {
	client := &fakeClient{handle: func(system, user string) (string, error) {
		switch {
		case isAnalysisCall(system) && strings.Contains(user, "ALPHA"):
			return alphaBatchJSON, nil
		case isAnalysisCall(system):
			return "", errors.New("rate limited")
		}
		return "", errors.New("summary down")
	}}

	reviews := []*models.Review{
		mkAnalyzerReview("Maria", "ALPHA", 5),
		mkAnalyzerReview("Ben", "BETA", 4),
	}

	agg, err := newTestAnalyzer(client).Analyze(context.Background(), reviews)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.Source != "llm" {
		t.Errorf("source: got %q, want llm", agg.Source)
	}
	clean := agg.Aspects[models.AspectCleanliness]
	if clean.Positive != 2 || clean.Negative != 0 {
		t.Errorf("only the surviving batch should count: got +%d/-%d", clean.Positive, clean.Negative)
	}
	// Summary refinement failed, so the stitched per-batch summary stays.
	if agg.Summary != "Batch one." {
		t.Errorf("stitched summary should survive refinement failure: got %q", agg.Summary)
	}
}

func TestAnalyzeFallsBackWhenAllBatchesFail(t *testing.T) {
	client := &fakeClient{handle: func(string, string) (string, error) {
		return "", errors.New("api down")
	}}

	reviews := []*models.Review{
		{Author: "Maria", Rating: 5, Body: "The flat was spotless and the host was super responsive. Great location near the metro."},
	}

	agg, err := newTestAnalyzer(client).Analyze(context.Background(), reviews)
	if err != nil {
		t.Fatalf("analyze should not escalate batch failures: %v", err)
	}
	if agg.Source != "heuristic" {
		t.Errorf("source: got %q, want heuristic", agg.Source)
	}
	if agg.ReviewsAnalyzed != 1 {
		t.Errorf("reviews analyzed: got %d, want 1", agg.ReviewsAnalyzed)
	}
	for _, a := range models.AllAspects() {
		if _, ok := agg.Aspects[a]; !ok {
			t.Errorf("fallback result missing aspect %q", a)
		}
	}
}

func TestAnalyzeEmptyReviews(t *testing.T) {
	client := &fakeClient{handle: func(string, string) (string, error) {
		return "", errors.New("must not be called")
	}}

	agg, err := newTestAnalyzer(client).Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.Source != "none" {
		t.Errorf("source: got %q, want none", agg.Source)
	}
	if client.calls != 0 {
		t.Errorf("no API calls expected for empty input, got %d", client.calls)
	}
	for _, a := range models.AllAspects() {
		if _, ok := agg.Aspects[a]; !ok {
			t.Errorf("empty result missing aspect %q", a)
		}
	}
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{handle: func(string, string) (string, error) {
		return alphaBatchJSON, nil
	}}

	_, err := newTestAnalyzer(client).Analyze(ctx, []*models.Review{mkAnalyzerReview("Maria", "ALPHA", 5)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeCachesBatchResults(t *testing.T) {
	var analysisCalls int
	client := &fakeClient{handle: func(system, user string) (string, error) {
		if isAnalysisCall(system) {
			analysisCalls++
			return alphaBatchJSON, nil
		}
		return "Summary.", nil
	}}

	a := newTestAnalyzer(client)
	a.Cache = &llm.Cache{Dir: t.TempDir()}
	reviews := []*models.Review{mkAnalyzerReview("Maria", "ALPHA", 5)}

	for i := 0; i < 2; i++ {
		if _, err := a.Analyze(context.Background(), reviews); err != nil {
			t.Fatalf("analyze run %d: %v", i+1, err)
		}
	}
	if analysisCalls != 1 {
		t.Errorf("second run should hit the cache, analysis calls = %d", analysisCalls)
	}
}

func TestAskQuestionReturnsFirstGroundedAnswer(t *testing.T) {
	client := &fakeClient{handle: func(system, user string) (string, error) {
		if strings.Contains(user, "ALPHA") {
			return notMentionedSentinel, nil
		}
		return "Yes, several guests mention free parking on the street.", nil
	}}

	reviews := []*models.Review{
		mkAnalyzerReview("Maria", "ALPHA", 5),
		mkAnalyzerReview("Ben", "BETA", 4),
	}

	answer, err := newTestAnalyzer(client).AskQuestion(context.Background(), reviews, "Is there parking?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(answer, "free parking") {
		t.Errorf("expected the grounded answer from the second batch, got %q", answer)
	}
}

func TestAskQuestionNotMentioned(t *testing.T) {
	client := &fakeClient{handle: func(string, string) (string, error) {
		return notMentionedSentinel, nil
	}}

	answer, err := newTestAnalyzer(client).AskQuestion(context.Background(),
		[]*models.Review{mkAnalyzerReview("Maria", "ALPHA", 5)}, "Is there a pool?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer != NotMentionedAnswer {
		t.Errorf("answer: got %q, want %q", answer, NotMentionedAnswer)
	}
}

func TestAskQuestionValidation(t *testing.T) {
	client := &fakeClient{handle: func(string, string) (string, error) {
		return "", errors.New("must not be called")
	}}
	a := newTestAnalyzer(client)

	if _, err := a.AskQuestion(context.Background(), []*models.Review{mkAnalyzerReview("M", "A", 5)}, "   "); err == nil {
		t.Errorf("empty question should be rejected")
	}

	answer, err := a.AskQuestion(context.Background(), nil, "Is there parking?")
	if err != nil {
		t.Fatalf("ask with no reviews: %v", err)
	}
	if !strings.Contains(answer, "No reviews") {
		t.Errorf("got %q", answer)
	}
	if client.calls != 0 {
		t.Errorf("no API calls expected, got %d", client.calls)
	}
}

func TestCompleteRetriesOnce(t *testing.T) {
	var attempts int
	client := &fakeClient{handle: func(system, user string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("transient")
		}
		return alphaBatchJSON, nil
	}}

	agg, err := newTestAnalyzer(client).Analyze(context.Background(),
		[]*models.Review{mkAnalyzerReview("Maria", "ALPHA", 5)})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.Source != "llm" {
		t.Errorf("retry should have recovered the batch, source %q", agg.Source)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{}", "{}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
