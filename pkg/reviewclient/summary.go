package reviewclient

import (
	"context"
	"fmt"
)

// RatingsBreakdown holds the mean of each rating dimension
type RatingsBreakdown struct {
	Overall float64 `json:"overall"`
	Service float64 `json:"service"`
	Pricing float64 `json:"pricing"`
	Speed   float64 `json:"speed"`
}

// Summary is the aggregate view over a review collection
type Summary struct {
	TotalReviews         int              `json:"totalReviews"`
	AverageOverallRating float64          `json:"averageOverallRating"`
	RatingsBreakdown     RatingsBreakdown `json:"ratingsBreakdown"`
}

type getSummaryRequest struct {
	Collection string `json:"collection"`
}

// GetSummary fetches the server-computed aggregate, the source of truth
// when available.
func (c *Client) GetSummary(ctx context.Context, collection string) (*Summary, error) {
	var out Summary

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(getSummaryRequest{Collection: collection}).
		SetResult(&out).
		Post("/getReviewSummary")
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch summary: status %d", resp.StatusCode())
	}

	return &out, nil
}

// LocalSummary recomputes the aggregate from the reviews fetched so far.
// Fallback for when the summary endpoint is unavailable; holds no
// authority over the server-computed result.
func (p *Paginator) LocalSummary() *Summary {
	s := &Summary{}
	if len(p.reviews) == 0 {
		return s
	}

	for _, r := range p.reviews {
		s.RatingsBreakdown.Overall += r.OverallRating
		s.RatingsBreakdown.Service += r.ServiceRating
		s.RatingsBreakdown.Pricing += r.PricingRating
		s.RatingsBreakdown.Speed += r.SpeedRating
	}

	n := float64(len(p.reviews))
	s.TotalReviews = len(p.reviews)
	s.RatingsBreakdown.Overall /= n
	s.RatingsBreakdown.Service /= n
	s.RatingsBreakdown.Pricing /= n
	s.RatingsBreakdown.Speed /= n
	s.AverageOverallRating = s.RatingsBreakdown.Overall
	return s
}

// StructuredRating exposes the aggregate as schema.org AggregateRating
// fields for structured-data markup.
type StructuredRating struct {
	RatingValue float64 `json:"ratingValue"`
	ReviewCount int     `json:"reviewCount"`
	BestRating  float64 `json:"bestRating"`
	WorstRating float64 `json:"worstRating"`
}

// StructuredRating converts the summary for schema.org markup
func (s *Summary) StructuredRating() StructuredRating {
	return StructuredRating{
		RatingValue: s.AverageOverallRating,
		ReviewCount: s.TotalReviews,
		BestRating:  5,
		WorstRating: 1,
	}
}
