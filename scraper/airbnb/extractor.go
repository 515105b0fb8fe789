package airbnb

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"

	"airbnb-review-analyzer/models"
)

var (
	// ratingTextRegexp matches the "Rating, N stars" accessibility cue.
	ratingTextRegexp = regexp.MustCompile(`(?i)rating,?\s*(\d)\s*star`)
	// monthYearRegexp captures a "Month Year" token out of a stay-details string.
	monthYearRegexp = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})`)
)

// Extractor converts the current page HTML into review records. It never
// mutates its input and a malformed candidate never aborts the pass; the
// caller owns deduplication and bounds.
type Extractor struct {
	// DefaultRating is used when body text is substantial but no rating
	// marker was found. 0 disables the default.
	DefaultRating int
	Platform      string
	ListingURL    string
}

// Extract parses htmlSrc and returns every currently renderable review, in
// document order. Zero records and a nil error is a normal outcome.
func (e *Extractor) Extract(htmlSrc string) ([]*models.Review, error) {
	root, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, err
	}

	candidates := findReviewBlocks(root)
	if len(candidates) == 0 {
		return e.extractLoose(root), nil
	}

	reviews := make([]*models.Review, 0, len(candidates))
	for _, node := range candidates {
		r := e.extractOne(node)
		if r == nil {
			continue
		}
		if !validReview(r) {
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

// findReviewBlocks locates review containers using an ordered selector
// cascade; the first selector that matches anything wins.
func findReviewBlocks(root *html.Node) []*html.Node {
	selectors := []func(*html.Node) bool{
		func(n *html.Node) bool { return attrVal(n, "data-review-id") != "" },
		func(n *html.Node) bool {
			return attrVal(n, "role") == "listitem" && insideReviewSection(n)
		},
		func(n *html.Node) bool {
			return strings.Contains(attrVal(n, "data-testid"), "review-card")
		},
	}

	for _, match := range selectors {
		if nodes := findAll(root, match); len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

func insideReviewSection(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		section := attrVal(p, "data-section-id")
		if strings.Contains(strings.ToUpper(section), "REVIEW") {
			return true
		}
	}
	return false
}

// extractOne resolves the fields of a single review block. Returns nil when
// nothing usable was found; errors are contained to this candidate.
func (e *Extractor) extractOne(node *html.Node) *models.Review {
	r := &models.Review{
		Platform:   e.Platform,
		ListingURL: e.ListingURL,
		ScrapedAt:  time.Now(),
	}

	r.Author = e.resolveAuthor(node)
	r.Body = e.resolveBody(node)
	r.Rating = e.resolveRating(node, r.Body)
	r.StayDetails, r.StayDate = resolveStayDate(node)
	r.Location = resolveLocation(node)

	if r.Author == "" {
		r.Author = models.AnonymousAuthor
	}
	return r
}

// resolveAuthor tries an ordered list of locations; first non-empty wins.
func (e *Extractor) resolveAuthor(node *html.Node) string {
	strategies := []func(*html.Node) string{
		func(n *html.Node) string {
			return textOf(findFirst(n, func(c *html.Node) bool {
				tid := attrVal(c, "data-testid")
				return strings.Contains(tid, "review-author") || strings.Contains(tid, "reviewer-name")
			}))
		},
		func(n *html.Node) string { return textOf(findFirstTag(n, "h3")) },
		func(n *html.Node) string { return textOf(findFirstTag(n, "h2")) },
		func(n *html.Node) string { return textOf(findFirstTag(n, "strong")) },
	}
	for _, s := range strategies {
		if name := normaliseText(s(node)); name != "" {
			return name
		}
	}
	return ""
}

// resolveBody prefers explicit review-text markers, then the longest span.
func (e *Extractor) resolveBody(node *html.Node) string {
	marked := findFirst(node, func(c *html.Node) bool {
		return strings.Contains(attrVal(c, "data-testid"), "review-comment") ||
			attrVal(c, "itemprop") == "reviewBody"
	})
	if body := normaliseText(textOf(marked)); body != "" {
		return trimShowMore(body)
	}

	var longest string
	for _, span := range findAllTag(node, "span") {
		if t := normaliseText(textOf(span)); len(t) > len(longest) {
			longest = t
		}
	}
	return trimShowMore(longest)
}

// resolveRating applies the three-stage fallback: textual "Rating, N stars"
// cue, star-glyph count, then the configured default when the body text is
// substantial enough that a rating must have been posted.
func (e *Extractor) resolveRating(node *html.Node, body string) int {
	if n := ratingFromText(node); n >= 1 && n <= 5 {
		return n
	}
	if n := countStarGlyphs(node); n >= 1 && n <= 5 {
		return n
	}
	if e.DefaultRating > 0 && len(body) >= minBodyLength {
		return e.DefaultRating
	}
	return 0
}

func ratingFromText(node *html.Node) int {
	var found int
	walk(node, func(n *html.Node) {
		if found != 0 {
			return
		}
		for _, source := range []string{attrVal(n, "aria-label"), directText(n)} {
			if m := ratingTextRegexp.FindStringSubmatch(source); m != nil {
				if v, err := strconv.Atoi(m[1]); err == nil {
					found = v
					return
				}
			}
		}
	})
	return found
}

func countStarGlyphs(node *html.Node) int {
	glyphs := findAll(node, func(n *html.Node) bool {
		if strings.Contains(attrVal(n, "class"), "star") {
			return true
		}
		return n.Data == "svg" && n.Parent != nil &&
			strings.Contains(strings.ToLower(attrVal(n.Parent, "aria-label")), "star")
	})
	return len(glyphs)
}

// resolveStayDate scans text for a "Month Year" token, keeping the whole
// matched string as auxiliary context.
func resolveStayDate(node *html.Node) (details, stayDate string) {
	walk(node, func(n *html.Node) {
		if stayDate != "" || n.Type != html.TextNode {
			return
		}
		t := normaliseText(n.Data)
		if m := monthYearRegexp.FindString(t); m != "" {
			details = t
			stayDate = m
		}
	})
	return details, stayDate
}

func resolveLocation(node *html.Node) string {
	loc := findFirst(node, func(c *html.Node) bool {
		return strings.Contains(attrVal(c, "data-testid"), "review-location") ||
			strings.Contains(attrVal(c, "class"), "location")
	})
	return normaliseText(textOf(loc))
}

// extractLoose is the fallback mode for when primary review markers are
// absent: it accepts generic content blocks with just a name or just body
// text.
func (e *Extractor) extractLoose(root *html.Node) []*models.Review {
	blocks := findAll(root, func(n *html.Node) bool {
		if n.Data != "div" && n.Data != "li" && n.Data != "article" {
			return false
		}
		if findFirstTag(n, "h3") == nil && findFirstTag(n, "h2") == nil {
			return false
		}
		// Leaf-most such block only, so one review is not reported per ancestor.
		return findFirst(n, func(c *html.Node) bool {
			return c != n && (c.Data == "div" || c.Data == "li" || c.Data == "article") &&
				findFirstTag(c, "h3") != nil
		}) == nil
	})

	var reviews []*models.Review
	for _, block := range blocks {
		r := e.extractOne(block)
		if r == nil {
			continue
		}
		hasName := r.Author != "" && r.Author != models.AnonymousAuthor
		if !hasName && r.Body == "" {
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews
}

func validReview(r *models.Review) bool {
	if r.Body == "" {
		return false
	}
	if r.Author != "" && r.Author != models.AnonymousAuthor {
		return true
	}
	return len(r.Body) >= minBodyLength
}

func trimShowMore(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(s, "Show more"))
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// --- HTML traversal helpers ---

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var res *html.Node
	walk(n, func(c *html.Node) {
		if res == nil && c.Type == html.ElementNode && match(c) {
			res = c
		}
	})
	return res
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var res []*html.Node
	walk(n, func(c *html.Node) {
		if c.Type == html.ElementNode && match(c) {
			res = append(res, c)
		}
	})
	return res
}

func findFirstTag(n *html.Node, tag string) *html.Node {
	return findFirst(n, func(c *html.Node) bool { return strings.EqualFold(c.Data, tag) })
}

func findAllTag(n *html.Node, tag string) []*html.Node {
	return findAll(n, func(c *html.Node) bool { return strings.EqualFold(c.Data, tag) })
}

func attrVal(n *html.Node, key string) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// textOf collects all descendant text of n.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteString(" ")
		}
	})
	return b.String()
}

// directText returns only the immediate text children of n.
func directText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
