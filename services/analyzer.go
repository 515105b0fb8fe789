package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"airbnb-review-analyzer/llm"
	"airbnb-review-analyzer/models"
	"airbnb-review-analyzer/utils"
)

// ErrAllBatchesFailed signals that no batch produced a usable result; the
// analyzer converts it into the heuristic fallback rather than letting it
// escalate further.
var ErrAllBatchesFailed = errors.New("analyzer: all batches failed")

// NotMentionedAnswer is returned by AskQuestion when no batch contains
// supporting text. The contract forbids fabricated answers.
const NotMentionedAnswer = "The reviews don't mention anything about that."

// notMentionedSentinel is the exact token the model must emit when the
// reviews hold no answer.
const notMentionedSentinel = "NOT_MENTIONED"

const analysisSystemMessage = "You are a review analyst. Respond with strict JSON only, no narration. " +
	"The JSON schema is {\"aspects\": {\"cleanliness\"|\"accuracy\"|\"check-in\"|\"communication\"|\"location\"|\"value\": " +
	"{\"positive\": int, \"negative\": int, \"total\": int, \"snippets\": string[]}}, " +
	"\"summary\": string, \"pros\": string[], \"cons\": string[], " +
	"\"recommended_for\": string[], \"not_recommended_for\": string[], " +
	"\"best_features\": string[], \"improvement_areas\": string[], " +
	"\"trust_score\": number (0-100), \"review_count\": int}. " +
	"Only report aspects actually mentioned. Snippets must be verbatim quotes from the reviews."

const questionSystemMessage = "You answer questions about a vacation rental using ONLY the supplied guest reviews. " +
	"Never invent information. If the reviews do not contain the answer, reply with exactly " +
	notMentionedSentinel + " and nothing else."

// Analyzer feeds collected reviews through the chat-completion API in
// token-bounded batches and merges the partial results. A fresh session is
// created per run and closed when the run ends.
type Analyzer struct {
	Client       llm.Client
	Model        string
	Cache        *llm.Cache
	Logger       *utils.Logger
	TokenCeiling int
	Overlap      int
}

// Analyze produces the merged AggregateResult for the given reviews. Failed
// batches are skipped; when every batch fails, the local heuristic analysis
// is substituted so the caller always receives a fully shaped result. Only
// context cancellation surfaces as an error.
func (a *Analyzer) Analyze(ctx context.Context, reviews []*models.Review) (*models.AggregateResult, error) {
	if len(reviews) == 0 {
		empty := models.NewAggregateResult()
		empty.Source = "none"
		empty.Summary = "No reviews available to analyze."
		return empty, nil
	}

	session := llm.NewSession(a.Client)
	defer session.Close()

	texts := formatReviews(reviews)
	batches := ChunkTexts(texts, a.TokenCeiling, 0)
	a.Logger.Info("[analyzer] Analyzing %d reviews in %d batches", len(reviews), len(batches))

	var partials []models.ChunkAnalysis
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := a.analyzeBatch(ctx, session, batch)
		if err != nil {
			a.Logger.Warn("[analyzer] Batch %d/%d skipped: %v", i+1, len(batches), err)
			continue
		}
		partials = append(partials, part)
	}

	if len(partials) == 0 {
		a.Logger.Warn("[analyzer] %v — falling back to keyword analysis", ErrAllBatchesFailed)
		fb := &FallbackAnalyzer{}
		return fb.Analyze(reviews), nil
	}

	agg := MergeChunks(partials)
	if agg.ReviewsAnalyzed == 0 {
		agg.ReviewsAnalyzed = len(reviews)
	}

	// A second, overlapped pass refines the stitched per-batch summaries into
	// one piece of prose; its failure keeps the stitched version.
	if summary, err := a.summarize(ctx, session, texts); err == nil && summary != "" {
		agg.Summary = summary
	}
	return agg, nil
}

// analyzeBatch runs the structured-extraction contract for one batch, with a
// cache lookup and a single short-backoff retry on transient errors.
func (a *Analyzer) analyzeBatch(ctx context.Context, session *llm.Session, batch ChunkBatch) (models.ChunkAnalysis, error) {
	user := buildAnalysisPrompt(batch)
	key := llm.KeyFrom(a.Model, analysisSystemMessage+"\n\n"+user)

	if raw, ok := a.Cache.Get(key); ok {
		var part models.ChunkAnalysis
		if err := json.Unmarshal(raw, &part); err == nil {
			return part, nil
		}
	}

	content, err := a.complete(ctx, session, analysisSystemMessage, user)
	if err != nil {
		return models.ChunkAnalysis{}, err
	}

	var part models.ChunkAnalysis
	raw := stripCodeFence(content)
	if err := json.Unmarshal([]byte(raw), &part); err != nil {
		return models.ChunkAnalysis{}, fmt.Errorf("parse batch json: %w", err)
	}
	a.Cache.Save(key, []byte(raw))
	return part, nil
}

// summarize folds overlapped batches into one running prose summary.
func (a *Analyzer) summarize(ctx context.Context, session *llm.Session, texts []string) (string, error) {
	batches := ChunkTexts(texts, a.TokenCeiling, a.Overlap)
	running := ""
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return running, err
		}
		user := buildSummaryPrompt(running, batch)
		content, err := a.complete(ctx, session, "You summarize guest reviews in 3-4 plain sentences. Output only the summary.", user)
		if err != nil {
			return running, err
		}
		running = strings.TrimSpace(content)
	}
	return running, nil
}

// AskQuestion answers a free-form question grounded in the supplied reviews.
// It searches every batch in order and returns the first grounded answer;
// when all batches come back empty the explicit not-mentioned response is
// returned, never a fabricated answer.
func (a *Analyzer) AskQuestion(ctx context.Context, reviews []*models.Review, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("analyzer: empty question")
	}
	if len(reviews) == 0 {
		return "No reviews are available to answer questions about this listing.", nil
	}

	session := llm.NewSession(a.Client)
	defer session.Close()

	batches := ChunkTexts(formatReviews(reviews), a.TokenCeiling, 0)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		user := buildQuestionPrompt(batch, question)
		content, err := a.complete(ctx, session, questionSystemMessage, user)
		if err != nil {
			a.Logger.Warn("[analyzer] Question batch %d/%d skipped: %v", i+1, len(batches), err)
			continue
		}
		answer := strings.TrimSpace(content)
		if answer == "" || strings.Contains(answer, notMentionedSentinel) {
			continue
		}
		return answer, nil
	}
	return NotMentionedAnswer, nil
}

// complete performs one chat call with a single retry after a short backoff.
func (a *Analyzer) complete(ctx context.Context, session *llm.Session, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	}

	resp, err := session.CreateChatCompletion(ctx, req)
	if err != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		resp, err = session.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("llm call (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// formatReviews renders each review as one text item, preserving document
// order so merge tie-breaks stay reproducible.
func formatReviews(reviews []*models.Review) []string {
	texts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		var b strings.Builder
		b.WriteString(r.Author)
		if r.StayDate != "" {
			fmt.Fprintf(&b, " (%s)", r.StayDate)
		}
		if r.Rating > 0 {
			fmt.Fprintf(&b, " [%d stars]", r.Rating)
		}
		b.WriteString(": ")
		b.WriteString(r.Body)
		texts = append(texts, b.String())
	}
	return texts
}

func buildAnalysisPrompt(batch ChunkBatch) string {
	var b strings.Builder
	b.WriteString("Analyze the sentiment of these guest reviews.\n\nReviews:\n")
	writeNumbered(&b, batch.Texts)
	return b.String()
}

func buildSummaryPrompt(running string, batch ChunkBatch) string {
	var b strings.Builder
	if running != "" {
		b.WriteString("Partial summary of earlier reviews:\n")
		b.WriteString(running)
		b.WriteString("\n\nUpdate it to also cover these reviews:\n")
	} else {
		b.WriteString("Summarize these guest reviews:\n")
	}
	writeNumbered(&b, batch.Texts)
	return b.String()
}

func buildQuestionPrompt(batch ChunkBatch, question string) string {
	var b strings.Builder
	b.WriteString("Guest reviews:\n")
	writeNumbered(&b, batch.Texts)
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

func writeNumbered(b *strings.Builder, texts []string) {
	for i, t := range texts {
		fmt.Fprintf(b, "%d. %s\n", i+1, t)
	}
}

// stripCodeFence removes a markdown code fence the model may wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
