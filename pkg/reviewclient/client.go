package reviewclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Errors a submission can come back with. The caller surfaces these
// inline on the form; anything else is generic failure text.
var (
	ErrRateLimited = errors.New("daily review limit reached, try again tomorrow")
	ErrRejected    = errors.New("review rejected")
)

// Review is one fetched review after defensive defaulting
type Review struct {
	ID            string  `json:"id"`
	OverallRating float64 `json:"overallRating"`
	ServiceRating float64 `json:"serviceRating"`
	PricingRating float64 `json:"pricingRating"`
	SpeedRating   float64 `json:"speedRating"`
	Feedback      string  `json:"feedback"`
	Recommend     string  `json:"recommend"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	CreatedAt     string  `json:"createdAt"`
}

// Submission is the payload for SubmitReview
type Submission struct {
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
	ReviewType    string  `json:"reviewType"`
	CaptchaToken  string  `json:"captchaToken"`
}

type getReviewsRequest struct {
	Collection string `json:"collection"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

type getReviewsResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int64    `json:"total"`
}

type submitResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Client talks to the review endpoints
type Client struct {
	http *resty.Client
}

// New creates a client for the given API base URL
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// GetReviews fetches one page plus the collection total. Each row is
// defaulted field by field so a malformed upstream row degrades instead
// of breaking rendering.
func (c *Client) GetReviews(ctx context.Context, collection string, limit, offset int) ([]Review, int64, error) {
	var out getReviewsResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(getReviewsRequest{Collection: collection, Limit: limit, Offset: offset}).
		SetResult(&out).
		Post("/getReviews")
	if err != nil {
		return nil, 0, fmt.Errorf("fetch reviews: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("fetch reviews: status %d", resp.StatusCode())
	}

	reviews := make([]Review, 0, len(out.Reviews))
	for _, r := range out.Reviews {
		reviews = append(reviews, sanitizeReview(r))
	}
	return reviews, out.Total, nil
}

// SubmitReview posts a review and returns the new record's ID
func (c *Client) SubmitReview(ctx context.Context, sub Submission) (string, error) {
	var out submitResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sub).
		SetResult(&out).
		Post("/submitReview")
	if err != nil {
		return "", fmt.Errorf("submit review: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.IsError():
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
	}

	return out.ID, nil
}

// sanitizeReview applies the rendering defaults for missing fields
func sanitizeReview(r Review) Review {
	if r.Name == "" {
		r.Name = "Anonymous"
	}
	if r.City == "" {
		r.City = "Unknown"
	}
	// Missing ratings decode to 0, which renders as "no stars"
	return r
}

// logFetchError keeps consumer behavior consistent: any fetch failure is
// "no data yet", logged, never fatal to the page.
func logFetchError(op string, err error) {
	log.Warn().Err(err).Str("op", op).Msg("Review fetch failed")
}
