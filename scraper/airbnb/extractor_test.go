package airbnb

import (
	"strings"
	"testing"

	"airbnb-review-analyzer/models"
)

const reviewSectionHTML = `
<html><body>
<div data-section-id="REVIEWS_DEFAULT">
	<div data-review-id="r1">
		<h3>Maria</h3>
		<div class="review-location">Lisbon, Portugal</div>
		<span aria-label="Rating, 4 stars"></span>
		<span>Stayed in May 2024 · Group trip</span>
		<span data-testid="review-comment">Great place, sparkling clean and the host was super responsive the whole stay.</span>
	</div>
	<div data-review-id="r2">
		<h3>Ben</h3>
		<span class="star-full"></span><span class="star-full"></span><span class="star-full"></span>
		<span>December 2023</span>
		<span data-testid="review-comment">Location was good but the apartment was noisy at night and colder than expected.</span>
	</div>
	<div data-review-id="r3">
		<span data-testid="review-comment">Wonderful stay, everything was exactly as described in the listing photos.</span>
	</div>
	<div data-review-id="r4">
		<h3>Silent Guest</h3>
	</div>
</div>
</body></html>`

func newTestExtractor() *Extractor {
	return &Extractor{DefaultRating: 5, Platform: "airbnb", ListingURL: "https://www.airbnb.com/rooms/42"}
}

func TestExtractorFieldCascades(t *testing.T) {
	reviews, err := newTestExtractor().Extract(reviewSectionHTML)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	// r4 has no body and must be dropped; r3 survives on body length alone.
	if len(reviews) != 3 {
		t.Fatalf("reviews: got %d, want 3", len(reviews))
	}

	r1 := reviews[0]
	if r1.Author != "Maria" {
		t.Errorf("author: got %q, want Maria", r1.Author)
	}
	if r1.Rating != 4 {
		t.Errorf("rating from textual cue: got %d, want 4", r1.Rating)
	}
	if r1.StayDate != "May 2024" {
		t.Errorf("stay date: got %q, want %q", r1.StayDate, "May 2024")
	}
	if !strings.Contains(r1.StayDetails, "Group trip") {
		t.Errorf("stay details should retain the full string, got %q", r1.StayDetails)
	}
	if r1.Location != "Lisbon, Portugal" {
		t.Errorf("location: got %q", r1.Location)
	}

	r2 := reviews[1]
	if r2.Rating != 3 {
		t.Errorf("rating from star glyph count: got %d, want 3", r2.Rating)
	}
	if r2.StayDate != "December 2023" {
		t.Errorf("stay date: got %q, want %q", r2.StayDate, "December 2023")
	}

	r3 := reviews[2]
	if r3.Author != models.AnonymousAuthor {
		t.Errorf("missing author should default to sentinel, got %q", r3.Author)
	}
	if r3.Rating != 5 {
		t.Errorf("default rating for substantial body: got %d, want 5", r3.Rating)
	}
}

func TestExtractorDefaultRatingOverridable(t *testing.T) {
	e := newTestExtractor()
	e.DefaultRating = 0

	reviews, err := e.Extract(reviewSectionHTML)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	// r3 has no rating marker; with the default disabled it stays unknown.
	if got := reviews[2].Rating; got != 0 {
		t.Errorf("rating with default disabled: got %d, want 0", got)
	}
}

func TestExtractorDropsInvalidCandidates(t *testing.T) {
	html := `
	<div data-section-id="REVIEWS_DEFAULT">
		<div data-review-id="a"><h3>OnlyName</h3></div>
		<div data-review-id="b"><span data-testid="review-comment">ok</span></div>
		<div data-review-id="c"><h3>Ana</h3><span data-testid="review-comment">nice</span></div>
	</div>`

	reviews, err := newTestExtractor().Extract(html)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	// a: no body. b: anonymous with a body under the minimal length.
	// c: short body but named author.
	if len(reviews) != 1 {
		t.Fatalf("reviews: got %d, want 1", len(reviews))
	}
	if reviews[0].Author != "Ana" {
		t.Errorf("survivor: got %q, want Ana", reviews[0].Author)
	}
}

func TestExtractorIsolatesMalformedCandidates(t *testing.T) {
	// An empty, attribute-less block between two good ones must not lose them.
	html := `
	<div data-section-id="REVIEWS_DEFAULT">
		<div data-review-id="r1"><h3>Ada</h3><span data-testid="review-comment">Spotless flat and a very helpful host, would absolutely come back.</span></div>
		<div data-review-id="broken"></div>
		<div data-review-id="r2"><h3>Lin</h3><span data-testid="review-comment">Quiet street, comfortable bed, spotless bathroom. Great value overall.</span></div>
	</div>`

	reviews, err := newTestExtractor().Extract(html)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews: got %d, want 2", len(reviews))
	}
	if reviews[0].Author != "Ada" || reviews[1].Author != "Lin" {
		t.Errorf("got authors %q, %q", reviews[0].Author, reviews[1].Author)
	}
}

func TestExtractorLooseFallback(t *testing.T) {
	// No primary review markers at all: generic content blocks with a name or
	// body are accepted.
	html := `
	<html><body>
	<div class="content-block">
		<h3>Olga</h3>
		<span>Lovely spot near the beach, host left great tips for restaurants.</span>
	</div>
	<div class="content-block">
		<h3>Pete</h3>
	</div>
	</body></html>`

	reviews, err := newTestExtractor().Extract(html)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("loose mode reviews: got %d, want 2", len(reviews))
	}
	if reviews[1].Author != "Pete" || reviews[1].Body != "" {
		t.Errorf("name-only block should be kept in loose mode: %+v", reviews[1])
	}
}

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello   world ", "hello world"},
		{"\n\ttabs\nand\nnewlines\t", "tabs and newlines"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normaliseText(tt.in); got != tt.want {
			t.Errorf("normaliseText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
