package services

import (
	"fmt"
	"strings"

	"airbnb-review-analyzer/models"
)

// PrintReport renders an AggregateResult to the terminal.
func PrintReport(listingURL string, r *models.AggregateResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 REVIEW SENTIMENT REPORT\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Listing\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  %s\n", truncate(listingURL, 52))
	fmt.Printf("  Reviews analyzed : \033[1m%d\033[0m (%s)\n", r.ReviewsAnalyzed, r.Source)
	fmt.Printf("  Trust score      : \033[1;32m%.0f/100\033[0m\n", r.TrustScore)
	fmt.Println()

	fmt.Printf("\033[1;33m  Aspect Sentiment\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, a := range models.AllAspects() {
		t := r.Aspects[a]
		bar := sentimentBar(t.Positive, t.Negative)
		fmt.Printf("  %-14s %s \033[32m+%d\033[0m/\033[31m-%d\033[0m\n", a, bar, t.Positive, t.Negative)
	}
	fmt.Println()

	if r.Summary != "" {
		fmt.Printf("\033[1;33m  Summary\033[0m\n")
		fmt.Printf("  %s\n", thin)
		printWrapped(r.Summary, 52)
		fmt.Println()
	}

	printList("Pros", r.Pros, "\033[32m+\033[0m")
	printList("Cons", r.Cons, "\033[31m-\033[0m")
	printList("Recommended for", r.GuestFit.RecommendedFor, "•")
	printList("Not recommended for", r.GuestFit.NotRecommendedFor, "•")
	printList("Best features", r.GuestFit.BestFeatures, "★")
	printList("Improvement areas", r.GuestFit.ImprovementAreas, "•")

	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)
}

func printList(title string, items []string, bullet string) {
	if len(items) == 0 {
		return
	}
	thin := strings.Repeat("─", 54)
	fmt.Printf("\033[1;33m  %s\033[0m\n", title)
	fmt.Printf("  %s\n", thin)
	for _, item := range items {
		fmt.Printf("  %s %s\n", bullet, truncate(item, 50))
	}
	fmt.Println()
}

func sentimentBar(positive, negative int) string {
	const width = 20
	total := positive + negative
	if total == 0 {
		return strings.Repeat("·", width)
	}
	pos := positive * width / total
	return "\033[32m" + strings.Repeat("█", pos) + "\033[31m" + strings.Repeat("█", width-pos) + "\033[0m"
}

func printWrapped(text string, width int) {
	words := strings.Fields(text)
	line := ""
	for _, w := range words {
		if len(line)+len(w)+1 > width {
			fmt.Printf("  %s\n", line)
			line = w
			continue
		}
		if line == "" {
			line = w
		} else {
			line += " " + w
		}
	}
	if line != "" {
		fmt.Printf("  %s\n", line)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
