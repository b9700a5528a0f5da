package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"worldmobile.com/reviews-api/internal/captcha"
	"worldmobile.com/reviews-api/internal/dal"
	"worldmobile.com/reviews-api/internal/metrics"
)

// storeOpTimeout bounds every document-store round trip
const storeOpTimeout = 15 * time.Second

// ReviewStore is the collection-scoped store surface the handlers need
type ReviewStore interface {
	CreateReview(ctx context.Context, collectionName string, review dal.Review) (string, error)
	ListReviews(ctx context.Context, collectionName string, limit, offset int) ([]dal.Review, error)
	CountReviews(ctx context.Context, collectionName string) (int64, error)
	Summarize(ctx context.Context, collectionName string) (*dal.Summary, error)
}

// ThrottleLedger reserves one submission slot per call and reports the
// running count for the address's current day.
type ThrottleLedger interface {
	ReserveSubmission(ctx context.Context, address string, now time.Time) (uint64, error)
}

// Handlers holds the collaborators for the review endpoints. Each request
// is handled statelessly; all shared state lives behind the interfaces.
type Handlers struct {
	reviews  ReviewStore
	throttle ThrottleLedger
	verifier captcha.Verifier

	// failOpen admits submissions when the throttle ledger itself errors.
	// Availability-over-strictness; set THROTTLE_FAIL_OPEN=false to invert.
	failOpen bool

	now func() time.Time
}

// NewHandlers wires the endpoint handlers to the store and captcha verifier
func NewHandlers(conn *dal.Connection, verifier captcha.Verifier) *Handlers {
	failOpen := os.Getenv("THROTTLE_FAIL_OPEN") != "false"

	return &Handlers{
		reviews:  dal.NewReviewModel(conn),
		throttle: dal.NewThrottleModel(conn),
		verifier: verifier,
		failOpen: failOpen,
		now:      time.Now,
	}
}

// HealthHandler reports liveness
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// SubmitReview handles POST /submitReview: validate, reserve a throttle
// slot, verify the captcha token, then persist. No store write happens on
// any rejection path.
func (h *Handlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to decode review submission JSON")

		metrics.RecordSubmission("malformed")

		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid JSON format"})
		return
	}

	if issues := ValidateReview(&req); len(issues) > 0 {
		log.Warn().
			Int("issues", len(issues)).
			Str("remote_addr", r.RemoteAddr).
			Msg("Review submission failed validation")

		metrics.RecordSubmission("malformed")

		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": issues})
		return
	}

	address := SourceAddress(r)
	ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
	defer cancel()

	count, err := h.throttle.ReserveSubmission(ctx, address, h.now())
	if err != nil {
		if !h.failOpen {
			log.Error().
				Err(err).
				Str("address", address).
				Msg("Throttle ledger unavailable, rejecting submission (fail-closed)")

			metrics.RecordThrottleDecision("fail_closed")
			metrics.RecordSubmission("storage_error")

			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
			return
		}

		// Deliberate availability tradeoff: an unreachable ledger must not
		// take review intake down with it.
		log.Warn().
			Err(err).
			Str("address", address).
			Msg("Throttle ledger unavailable, admitting submission (fail-open)")
		metrics.RecordThrottleDecision("fail_open")
	} else if count > DailySubmissionLimit {
		log.Warn().
			Str("address", address).
			Uint64("count", count).
			Msg("Daily submission limit reached")

		metrics.RecordThrottleDecision("rejected")
		metrics.RecordSubmission("rate_limited")

		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "Too many requests",
			"message": "You have reached the daily review limit. Please try again tomorrow.",
		})
		return
	} else {
		metrics.RecordThrottleDecision("admitted")
	}

	valid, err := h.verifier.Verify(ctx, req.CaptchaToken)
	if err != nil || !valid {
		log.Warn().
			Err(err).
			Str("address", address).
			Msg("Captcha verification rejected submission")

		metrics.RecordSubmission("captcha_rejected")

		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "CAPTCHA validation failed"})
		return
	}

	collectionName := reviewTypeCollections[req.ReviewType]

	// The captcha token is dropped here; createdAt is server-assigned
	review := dal.Review{
		OverallRating: req.OverallRating,
		ServiceRating: req.ServiceRating,
		PricingRating: req.PricingRating,
		SpeedRating:   req.SpeedRating,
		Feedback:      req.Feedback,
		Recommend:     req.Recommend,
		Name:          req.Name,
		City:          req.City,
		Zipcode:       req.Zipcode,
		Email:         req.Email,
		CreatedAt:     h.now().UTC().Format(time.RFC3339),
	}

	id, err := h.reviews.CreateReview(ctx, collectionName, review)
	if err != nil {
		log.Error().
			Err(err).
			Str("collection", collectionName).
			Msg("Failed to persist review")

		metrics.RecordSubmission("storage_error")

		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
		return
	}

	log.Info().
		Str("id", id).
		Str("collection", collectionName).
		Str("address", address).
		Msg("Review saved")

	metrics.RecordSubmission("accepted")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SubmitReviewResponse{
		Message: "Review saved successfully",
		ID:      id,
	})
}

// GetReviews handles POST /getReviews: one createdAt-descending page plus
// the collection's total count.
func (h *Handlers) GetReviews(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req GetReviewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordQuery("list", "invalid_query")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid JSON format"})
		return
	}

	if err := ValidateListQuery(req.Collection, req.Limit, req.Offset); err != nil {
		log.Warn().
			Str("collection", req.Collection).
			Int("limit", req.Limit).
			Int("offset", req.Offset).
			Msg("Rejected review listing query")

		metrics.RecordQuery("list", "invalid_query")

		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
	defer cancel()

	reviews, err := h.reviews.ListReviews(ctx, req.Collection, req.Limit, req.Offset)
	if err != nil {
		metrics.RecordQuery("list", "storage_error")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
		return
	}

	// Total is counted over the whole collection, independent of the page
	total, err := h.reviews.CountReviews(ctx, req.Collection)
	if err != nil {
		metrics.RecordQuery("list", "storage_error")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
		return
	}

	if reviews == nil {
		reviews = []dal.Review{}
	}

	metrics.RecordQuery("list", "success")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(GetReviewsResponse{
		Reviews: reviews,
		Total:   total,
	})
}

// GetReviewSummary handles POST /getReviewSummary: aggregate rating means
// over a whole collection. An empty collection is a zeroed 200, never an
// error.
func (h *Handlers) GetReviewSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req GetReviewSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordQuery("summary", "invalid_query")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid JSON format"})
		return
	}

	if err := ValidateCollection(req.Collection); err != nil {
		metrics.RecordQuery("summary", "invalid_query")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
	defer cancel()

	summary, err := h.reviews.Summarize(ctx, req.Collection)
	if err != nil {
		metrics.RecordQuery("summary", "storage_error")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
		return
	}

	metrics.RecordQuery("summary", "success")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summary)
}
