package storage

import (
	"github.com/google/uuid"

	"airbnb-review-analyzer/models"
)

// ReviewWriter is the interface any review storage backend must satisfy.
type ReviewWriter interface {
	WriteReviews(reviews []*models.Review) error
	Close() error
}

// AggregateWriter persists analysis results.
type AggregateWriter interface {
	WriteAggregate(listingURL string, agg *models.AggregateResult) (uuid.UUID, error)
	Close() error
}
