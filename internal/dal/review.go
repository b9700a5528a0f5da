package dal

import (
	"context"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Review is one persisted customer evaluation. The JSON field names are the
// wire format shared with the website, so they double as the stored layout.
type Review struct {
	ID            string  `json:"id,omitempty"`
	OverallRating float64 `json:"overallRating"`
	ServiceRating float64 `json:"serviceRating"`
	PricingRating float64 `json:"pricingRating"`
	SpeedRating   float64 `json:"speedRating"`
	Feedback      string  `json:"feedback"`
	Recommend     string  `json:"recommend"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	Zipcode       string  `json:"zipcode"`
	Email         string  `json:"email"`
	CreatedAt     string  `json:"createdAt"`
}

// Summary is the derived aggregate over one review collection
type Summary struct {
	TotalReviews         int              `json:"totalReviews"`
	AverageOverallRating float64          `json:"averageOverallRating"`
	RatingsBreakdown     RatingsBreakdown `json:"ratingsBreakdown"`
}

// RatingsBreakdown holds the mean of each rating dimension
type RatingsBreakdown struct {
	Overall float64 `json:"overall"`
	Service float64 `json:"service"`
	Pricing float64 `json:"pricing"`
	Speed   float64 `json:"speed"`
}

// ReviewModel handles review persistence and queries
type ReviewModel struct {
	conn *Connection
}

// NewReviewModel creates a new review model
func NewReviewModel(conn *Connection) *ReviewModel {
	return &ReviewModel{conn: conn}
}

// CreateReview persists a review into the given collection and returns the
// new document ID. CreatedAt must already be stamped by the caller.
func (rm *ReviewModel) CreateReview(ctx context.Context, collectionName string, review Review) (string, error) {
	docID := "review/" + uuid.NewString()
	collection := rm.conn.GetCollection(collectionName)

	// The document ID lives in META, not in the stored body
	review.ID = ""

	start := time.Now()
	_, err := collection.Insert(docID, review, &gocb.InsertOptions{Context: ctx})
	duration := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("doc_id", docID).
			Str("collection", collectionName).
			Msg("Failed to insert review")
		return "", fmt.Errorf("insert review: %w", err)
	}

	log.Debug().
		Str("doc_id", docID).
		Str("collection", collectionName).
		Dur("duration", duration).
		Msg("Review inserted")
	return docID, nil
}

// ListReviews retrieves one page of reviews ordered newest first. The
// META id tiebreak keeps the order stable when timestamps collide, which
// the client pagination contract relies on.
func (rm *ReviewModel) ListReviews(ctx context.Context, collectionName string, limit, offset int) ([]Review, error) {
	query := fmt.Sprintf(
		"SELECT META(r).id AS id, r.* FROM `%s`.`_default`.`%s` AS r ORDER BY r.createdAt DESC, META(r).id DESC LIMIT $limit OFFSET $offset",
		rm.conn.GetBucketName(), collectionName)

	rows, err := rm.conn.GetCluster().Query(query, &gocb.QueryOptions{
		Context: ctx,
		NamedParameters: map[string]interface{}{
			"limit":  limit,
			"offset": offset,
		},
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("collection", collectionName).
			Msg("Review listing query failed")
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		if err := rows.Row(&review); err != nil {
			log.Warn().
				Err(err).
				Str("collection", collectionName).
				Msg("Failed to decode review row")
			continue
		}
		reviews = append(reviews, review)
	}

	log.Debug().
		Str("collection", collectionName).
		Int("limit", limit).
		Int("offset", offset).
		Int("resultCount", len(reviews)).
		Msg("Reviews listed")

	return reviews, nil
}

// CountReviews returns the total number of documents in the collection,
// independent of any page window.
func (rm *ReviewModel) CountReviews(ctx context.Context, collectionName string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) AS total FROM `%s`.`_default`.`%s`",
		rm.conn.GetBucketName(), collectionName)

	rows, err := rm.conn.GetCluster().Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		log.Error().
			Err(err).
			Str("collection", collectionName).
			Msg("Review count query failed")
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	defer rows.Close()

	var row struct {
		Total int64 `json:"total"`
	}
	if rows.Next() {
		if err := rows.Row(&row); err != nil {
			return 0, fmt.Errorf("decode count row: %w", err)
		}
	}
	return row.Total, nil
}

// ratingRow is the field projection used by Summarize
type ratingRow struct {
	OverallRating float64 `json:"overallRating"`
	ServiceRating float64 `json:"serviceRating"`
	PricingRating float64 `json:"pricingRating"`
	SpeedRating   float64 `json:"speedRating"`
}

func validRating(r float64) bool {
	return r >= 1 && r <= 5
}

// Summarize scans the collection and computes the per-dimension rating
// means. Rows whose ratings fall outside [1,5] are skipped rather than
// poisoning the averages; legacy documents predate server-side validation.
// An empty collection yields an all-zero summary, never an error.
func (rm *ReviewModel) Summarize(ctx context.Context, collectionName string) (*Summary, error) {
	query := fmt.Sprintf(
		"SELECT r.overallRating, r.serviceRating, r.pricingRating, r.speedRating FROM `%s`.`_default`.`%s` AS r",
		rm.conn.GetBucketName(), collectionName)

	rows, err := rm.conn.GetCluster().Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		log.Error().
			Err(err).
			Str("collection", collectionName).
			Msg("Summary scan query failed")
		return nil, fmt.Errorf("summarize reviews: %w", err)
	}
	defer rows.Close()

	var scanned []ratingRow
	for rows.Next() {
		var row ratingRow
		if err := rows.Row(&row); err != nil {
			log.Warn().
				Err(err).
				Str("collection", collectionName).
				Msg("Failed to decode summary row")
			continue
		}
		scanned = append(scanned, row)
	}

	summary, skipped := buildSummary(scanned)
	if skipped > 0 {
		log.Warn().
			Str("collection", collectionName).
			Int("skipped", skipped).
			Msg("Skipped malformed rows during summary scan")
	}

	log.Debug().
		Str("collection", collectionName).
		Int("totalReviews", summary.TotalReviews).
		Msg("Summary computed")

	return summary, nil
}

// buildSummary accumulates rating means over the scanned rows, skipping
// any row whose ratings fall outside [1,5]. Returns the summary and the
// number of skipped rows. An empty or all-invalid input yields zeros.
func buildSummary(rows []ratingRow) (*Summary, int) {
	var (
		count      int
		sumOverall float64
		sumService float64
		sumPricing float64
		sumSpeed   float64
		skipped    int
	)

	for _, row := range rows {
		if !validRating(row.OverallRating) || !validRating(row.ServiceRating) ||
			!validRating(row.PricingRating) || !validRating(row.SpeedRating) {
			skipped++
			continue
		}
		count++
		sumOverall += row.OverallRating
		sumService += row.ServiceRating
		sumPricing += row.PricingRating
		sumSpeed += row.SpeedRating
	}

	summary := &Summary{TotalReviews: count}
	if count > 0 {
		n := float64(count)
		summary.AverageOverallRating = sumOverall / n
		summary.RatingsBreakdown = RatingsBreakdown{
			Overall: sumOverall / n,
			Service: sumService / n,
			Pricing: sumPricing / n,
			Speed:   sumSpeed / n,
		}
	}
	return summary, skipped
}
