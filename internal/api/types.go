package api

import "worldmobile.com/reviews-api/internal/dal"

// Request Types

// SubmitReviewRequest is the review submission payload. The validate tags
// mirror the schema enforced by the website form.
type SubmitReviewRequest struct {
	OverallRating float64 `json:"overallRating" validate:"gte=1,lte=5"`
	ServiceRating float64 `json:"serviceRating" validate:"gte=1,lte=5"`
	PricingRating float64 `json:"pricingRating" validate:"gte=1,lte=5"`
	SpeedRating   float64 `json:"speedRating" validate:"gte=1,lte=5"`
	Feedback      string  `json:"feedback" validate:"max=3500"`
	Recommend     string  `json:"recommend" validate:"oneof=Yes No"`
	Name          string  `json:"name" validate:"max=50"`
	City          string  `json:"city" validate:"max=60"`
	Zipcode       string  `json:"zipcode" validate:"max=20"`
	Email         string  `json:"email" validate:"omitempty,email"`
	ReviewType    string  `json:"reviewType" validate:"oneof=mobileplan broadband"`
	CaptchaToken  string  `json:"captchaToken" validate:"required"`
}

// GetReviewsRequest selects one page of a review collection
type GetReviewsRequest struct {
	Collection string `json:"collection"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// GetReviewSummaryRequest selects the collection to aggregate
type GetReviewSummaryRequest struct {
	Collection string `json:"collection"`
}

// Response Types

type SubmitReviewResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type GetReviewsResponse struct {
	Reviews []dal.Review `json:"reviews"`
	Total   int64        `json:"total"`
}

// Constants
const (
	// Review collections, one per review type
	CollectionMobilePlan = "mobileplan_review"
	CollectionBroadband  = "broadband_review"

	// DailySubmissionLimit caps reviews per source address per calendar day
	DailySubmissionLimit = 5

	// UnknownAddress is the throttle key when no client address is derivable
	UnknownAddress = "Unknown"
)

// reviewTypeCollections maps the reviewType tag to its target collection
var reviewTypeCollections = map[string]string{
	"mobileplan": CollectionMobilePlan,
	"broadband":  CollectionBroadband,
}

// allowedCollections is the set of collections the read endpoints accept
var allowedCollections = map[string]bool{
	CollectionMobilePlan: true,
	CollectionBroadband:  true,
}
