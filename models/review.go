package models

import "time"

// AnonymousAuthor is the sentinel used when no author name could be resolved.
const AnonymousAuthor = "Anonymous"

// Review is one normalized guest review extracted from a listing page.
// Records are immutable once created; a fresh set is built on every
// extraction pass.
type Review struct {
	Author      string
	Location    string
	StayDate    string // best-effort "Month Year", may be empty
	StayDetails string // full raw stay/date string the date was parsed from
	Body        string
	Rating      int // 1–5, 0 when unknown
	ListingURL  string
	ScrapedAt   time.Time
	Platform    string
}

// Key is the dedup identity: two reviews are duplicates when author and body
// are both exactly equal.
func (r *Review) Key() string {
	return r.Author + "\x00" + r.Body
}
