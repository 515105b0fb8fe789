package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"airbnb-review-analyzer/models"
)

// PostgresWriter persists collected reviews and analysis runs.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id           SERIAL PRIMARY KEY,
			platform     VARCHAR(50) NOT NULL,
			listing_url  TEXT        NOT NULL,
			author       TEXT        NOT NULL,
			location     TEXT        NOT NULL DEFAULT '',
			stay_date    TEXT        NOT NULL DEFAULT '',
			rating       SMALLINT    NOT NULL DEFAULT 0,
			body         TEXT        NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (listing_url, author, body)
		);

		CREATE TABLE IF NOT EXISTS analysis_runs (
			id               UUID PRIMARY KEY,
			listing_url      TEXT        NOT NULL,
			summary          TEXT        NOT NULL DEFAULT '',
			trust_score      NUMERIC(5,2) NOT NULL DEFAULT 0,
			reviews_analyzed INT         NOT NULL DEFAULT 0,
			source           VARCHAR(20) NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS aspect_sentiments (
			run_id   UUID REFERENCES analysis_runs(id) ON DELETE CASCADE,
			aspect   VARCHAR(30) NOT NULL,
			positive INT NOT NULL DEFAULT 0,
			negative INT NOT NULL DEFAULT 0,
			total    INT NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, aspect)
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_listing ON reviews(listing_url);
		CREATE INDEX IF NOT EXISTS idx_runs_listing    ON analysis_runs(listing_url);
	`)
	return err
}

// WriteReviews batch-inserts reviews; duplicates of already-stored reviews
// are skipped via the (listing_url, author, body) uniqueness rule.
func (pw *PostgresWriter) WriteReviews(reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(reviews); i += batchSize {
		end := i + batchSize
		if end > len(reviews) {
			end = len(reviews)
		}
		if err := pw.insertBatch(reviews[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Review) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*7)

	for idx, r := range batch {
		base := idx * 7
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			r.Platform, r.ListingURL, r.Author, r.Location, r.StayDate, r.Rating, r.Body)
	}

	query := fmt.Sprintf(`
		INSERT INTO reviews (platform, listing_url, author, location, stay_date, rating, body)
		VALUES %s
		ON CONFLICT (listing_url, author, body) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert reviews: %w", err)
	}
	return nil
}

// WriteAggregate stores one analysis run with its per-aspect tallies and
// returns the run ID.
func (pw *PostgresWriter) WriteAggregate(listingURL string, agg *models.AggregateResult) (uuid.UUID, error) {
	runID := uuid.New()

	tx, err := pw.db.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO analysis_runs (id, listing_url, summary, trust_score, reviews_analyzed, source)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, runID, listingURL, agg.Summary, agg.TrustScore, agg.ReviewsAnalyzed, agg.Source)
	if err != nil {
		return uuid.Nil, fmt.Errorf("postgres: insert run: %w", err)
	}

	for _, aspect := range models.AllAspects() {
		t := agg.Aspects[aspect]
		_, err = tx.Exec(`
			INSERT INTO aspect_sentiments (run_id, aspect, positive, negative, total)
			VALUES ($1, $2, $3, $4, $5)
		`, runID, string(aspect), t.Positive, t.Negative, t.Total)
		if err != nil {
			return uuid.Nil, fmt.Errorf("postgres: insert aspect %s: %w", aspect, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: commit: %w", err)
	}
	return runID, nil
}

// FetchReviews retrieves stored reviews for a listing, in insertion order —
// used to re-run analysis without scraping again.
func (pw *PostgresWriter) FetchReviews(listingURL string) ([]*models.Review, error) {
	rows, err := pw.db.Query(`
		SELECT platform, listing_url, author, location, stay_date, rating, body, created_at
		FROM reviews
		WHERE listing_url = $1
		ORDER BY id
	`, listingURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		r := &models.Review{}
		if err := rows.Scan(
			&r.Platform, &r.ListingURL, &r.Author, &r.Location,
			&r.StayDate, &r.Rating, &r.Body, &r.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
