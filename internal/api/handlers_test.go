package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"worldmobile.com/reviews-api/internal/dal"
)

// stubStore records writes and serves canned reads
type stubStore struct {
	createdCollections []string
	createdReviews     []dal.Review
	createErr          error

	listResult []dal.Review
	listErr    error
	total      int64
	countErr   error

	summary    *dal.Summary
	summaryErr error
}

func (s *stubStore) CreateReview(ctx context.Context, collectionName string, review dal.Review) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.createdCollections = append(s.createdCollections, collectionName)
	s.createdReviews = append(s.createdReviews, review)
	return "review/test-id", nil
}

func (s *stubStore) ListReviews(ctx context.Context, collectionName string, limit, offset int) ([]dal.Review, error) {
	return s.listResult, s.listErr
}

func (s *stubStore) CountReviews(ctx context.Context, collectionName string) (int64, error) {
	return s.total, s.countErr
}

func (s *stubStore) Summarize(ctx context.Context, collectionName string) (*dal.Summary, error) {
	return s.summary, s.summaryErr
}

// stubLedger returns a fixed post-increment count
type stubLedger struct {
	count       uint64
	err         error
	lastAddress string
	calls       int
}

func (l *stubLedger) ReserveSubmission(ctx context.Context, address string, now time.Time) (uint64, error) {
	l.calls++
	l.lastAddress = address
	return l.count, l.err
}

// stubVerifier returns a fixed captcha verdict
type stubVerifier struct {
	valid bool
	err   error
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (bool, error) {
	return v.valid, v.err
}

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestHandlers(store *stubStore, ledger *stubLedger, verifier *stubVerifier, failOpen bool) *Handlers {
	return &Handlers{
		reviews:  store,
		throttle: ledger,
		verifier: verifier,
		failOpen: failOpen,
		now:      func() time.Time { return fixedNow },
	}
}

func validSubmission() map[string]interface{} {
	return map[string]interface{}{
		"overallRating": 4,
		"serviceRating": 5,
		"pricingRating": 3,
		"speedRating":   4,
		"feedback":      "Good coverage where I live, activation was quick.",
		"recommend":     "Yes",
		"name":          "Sam",
		"city":          "Austin",
		"zipcode":       "78701",
		"email":         "sam@example.com",
		"reviewType":    "mobileplan",
		"captchaToken":  "tok-123",
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.RemoteAddr = "203.0.113.7:52100"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSubmitReviewSuccess(t *testing.T) {
	store := &stubStore{}
	ledger := &stubLedger{count: 1}
	h := newTestHandlers(store, ledger, &stubVerifier{valid: true}, true)

	rr := postJSON(t, h.SubmitReview, "/submitReview", validSubmission())

	require.Equal(t, http.StatusOK, rr.Code)

	var resp SubmitReviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Review saved successfully", resp.Message)
	require.Equal(t, "review/test-id", resp.ID)

	require.Len(t, store.createdReviews, 1)
	require.Equal(t, CollectionMobilePlan, store.createdCollections[0])

	saved := store.createdReviews[0]
	require.Equal(t, fixedNow.Format(time.RFC3339), saved.CreatedAt)
	require.Equal(t, "sam@example.com", saved.Email)
	require.Equal(t, "203.0.113.7", ledger.lastAddress)
}

func TestSubmitReviewBroadbandCollection(t *testing.T) {
	store := &stubStore{}
	h := newTestHandlers(store, &stubLedger{count: 1}, &stubVerifier{valid: true}, true)

	body := validSubmission()
	body["reviewType"] = "broadband"
	rr := postJSON(t, h.SubmitReview, "/submitReview", body)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, CollectionBroadband, store.createdCollections[0])
}

func TestSubmitReviewValidationRejects(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value interface{}
	}{
		{"Rating below range", "overallRating", 0},
		{"Rating above range", "serviceRating", 6},
		{"Bad recommend value", "recommend", "Maybe"},
		{"Feedback too long", "feedback", string(bytes.Repeat([]byte("a"), 3501))},
		{"Name too long", "name", string(bytes.Repeat([]byte("n"), 51))},
		{"Invalid email", "email", "not-an-email"},
		{"Unknown review type", "reviewType", "satellite"},
		{"Missing captcha token", "captchaToken", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{}
			ledger := &stubLedger{count: 1}
			h := newTestHandlers(store, ledger, &stubVerifier{valid: true}, true)

			body := validSubmission()
			body[tt.field] = tt.value
			rr := postJSON(t, h.SubmitReview, "/submitReview", body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Empty(t, store.createdReviews, "rejected submission must not write to the store")
			require.Zero(t, ledger.calls, "rejected submission must not touch the ledger")
		})
	}
}

func TestSubmitReviewValidationItemizesAllIssues(t *testing.T) {
	store := &stubStore{}
	h := newTestHandlers(store, &stubLedger{count: 1}, &stubVerifier{valid: true}, true)

	body := validSubmission()
	body["overallRating"] = 0
	body["speedRating"] = 9
	body["recommend"] = "Perhaps"
	rr := postJSON(t, h.SubmitReview, "/submitReview", body)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Error []FieldError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Error, 3, "every violated field should be reported")

	fields := map[string]bool{}
	for _, issue := range resp.Error {
		fields[issue.Field] = true
	}
	require.True(t, fields["overallRating"])
	require.True(t, fields["speedRating"])
	require.True(t, fields["recommend"])
}

func TestSubmitReviewRateLimited(t *testing.T) {
	store := &stubStore{}
	// Sixth submission of the day: post-increment count is 6
	ledger := &stubLedger{count: DailySubmissionLimit + 1}
	h := newTestHandlers(store, ledger, &stubVerifier{valid: true}, true)

	rr := postJSON(t, h.SubmitReview, "/submitReview", validSubmission())

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Empty(t, store.createdReviews)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Too many requests", resp["error"])
	require.Contains(t, resp["message"], "tomorrow")
}

func TestSubmitReviewFifthOfDayAdmitted(t *testing.T) {
	store := &stubStore{}
	ledger := &stubLedger{count: DailySubmissionLimit}
	h := newTestHandlers(store, ledger, &stubVerifier{valid: true}, true)

	rr := postJSON(t, h.SubmitReview, "/submitReview", validSubmission())

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, store.createdReviews, 1)
}

func TestSubmitReviewCaptchaRejected(t *testing.T) {
	tests := []struct {
		name     string
		verifier *stubVerifier
	}{
		{"Negative verdict", &stubVerifier{valid: false}},
		{"Verifier unreachable", &stubVerifier{valid: false, err: errors.New("timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{}
			h := newTestHandlers(store, &stubLedger{count: 1}, tt.verifier, true)

			rr := postJSON(t, h.SubmitReview, "/submitReview", validSubmission())

			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Empty(t, store.createdReviews, "captcha rejection must not write to the store")

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, "CAPTCHA validation failed", resp["error"])
		})
	}
}

func TestSubmitReviewThrottleFailOpen(t *testing.T) {
	store := &stubStore{}
	ledger := &stubLedger{err: errors.New("store unavailable")}
	h := newTestHandlers(store, ledger, &stubVerifier{valid: true}, true)

	rr := postJSON(t, h.SubmitReview, "/submitReview", validSubmission())

	require.Equal(t, http.StatusOK, rr.Code, "fail-open admits when the ledger errors")
	require.Len(t, store.createdReviews, 1)
}

func TestSubmitReviewThrottleFailClosed(t *testing.T) {
	store := &stubStore{}
	ledger := &stubLedger{err: errors.New("store unavailable")}
	h := newTestHandlers(store, ledger, &stubVerifier{valid: true}, false)

	rr := postJSON(t, h.SubmitReview, "/submitReview", validSubmission())

	require.Equal(t, http.StatusInternalServerError, rr.Code, "fail-closed rejects when the ledger errors")
	require.Empty(t, store.createdReviews)
}

func TestSubmitReviewStorageError(t *testing.T) {
	store := &stubStore{createErr: errors.New("insert failed")}
	h := newTestHandlers(store, &stubLedger{count: 1}, &stubVerifier{valid: true}, true)

	rr := postJSON(t, h.SubmitReview, "/submitReview", validSubmission())

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Internal Server Error", resp["error"])
}

func TestGetReviewsSuccess(t *testing.T) {
	store := &stubStore{
		listResult: []dal.Review{
			{ID: "review/b", Name: "Ana", OverallRating: 5, CreatedAt: "2025-03-14T10:00:00Z"},
			{ID: "review/a", Name: "Bo", OverallRating: 3, CreatedAt: "2025-03-13T10:00:00Z"},
		},
		total: 42,
	}
	h := newTestHandlers(store, &stubLedger{}, &stubVerifier{}, true)

	rr := postJSON(t, h.GetReviews, "/getReviews", GetReviewsRequest{
		Collection: CollectionMobilePlan,
		Limit:      10,
		Offset:     0,
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp GetReviewsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Reviews, 2)
	require.Equal(t, int64(42), resp.Total, "total reflects the whole collection, not the page")
	require.Equal(t, "review/b", resp.Reviews[0].ID)
}

func TestGetReviewsEmptyCollection(t *testing.T) {
	store := &stubStore{listResult: nil, total: 0}
	h := newTestHandlers(store, &stubLedger{}, &stubVerifier{}, true)

	rr := postJSON(t, h.GetReviews, "/getReviews", GetReviewsRequest{
		Collection: CollectionMobilePlan,
		Limit:      10,
	})

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"reviews":[]`, "empty page must encode as an array, not null")
}

func TestGetReviewsInvalidQuery(t *testing.T) {
	tests := []struct {
		name string
		req  GetReviewsRequest
	}{
		{"Limit zero", GetReviewsRequest{Collection: CollectionMobilePlan, Limit: 0, Offset: 0}},
		{"Limit above cap", GetReviewsRequest{Collection: CollectionMobilePlan, Limit: 101, Offset: 0}},
		{"Negative offset", GetReviewsRequest{Collection: CollectionMobilePlan, Limit: 10, Offset: -1}},
		{"Collection charset", GetReviewsRequest{Collection: "mobileplan review;drop", Limit: 10}},
		{"Unknown collection", GetReviewsRequest{Collection: "users", Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{}
			h := newTestHandlers(store, &stubLedger{}, &stubVerifier{}, true)

			rr := postJSON(t, h.GetReviews, "/getReviews", tt.req)
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGetReviewsStorageError(t *testing.T) {
	store := &stubStore{listErr: errors.New("query failed")}
	h := newTestHandlers(store, &stubLedger{}, &stubVerifier{}, true)

	rr := postJSON(t, h.GetReviews, "/getReviews", GetReviewsRequest{
		Collection: CollectionMobilePlan,
		Limit:      10,
	})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetReviewSummarySuccess(t *testing.T) {
	store := &stubStore{
		summary: &dal.Summary{
			TotalReviews:         3,
			AverageOverallRating: 4.0,
			RatingsBreakdown:     dal.RatingsBreakdown{Overall: 4.0, Service: 4.5, Pricing: 3.5, Speed: 4.0},
		},
	}
	h := newTestHandlers(store, &stubLedger{}, &stubVerifier{}, true)

	rr := postJSON(t, h.GetReviewSummary, "/getReviewSummary", GetReviewSummaryRequest{
		Collection: CollectionMobilePlan,
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp dal.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.TotalReviews)
	require.Equal(t, 4.0, resp.AverageOverallRating)
}

func TestGetReviewSummaryEmptyCollection(t *testing.T) {
	store := &stubStore{summary: &dal.Summary{}}
	h := newTestHandlers(store, &stubLedger{}, &stubVerifier{}, true)

	rr := postJSON(t, h.GetReviewSummary, "/getReviewSummary", GetReviewSummaryRequest{
		Collection: CollectionBroadband,
	})

	require.Equal(t, http.StatusOK, rr.Code, "empty collection is a zeroed 200, never an error")

	var resp dal.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Zero(t, resp.TotalReviews)
	require.Zero(t, resp.AverageOverallRating)
	require.Zero(t, resp.RatingsBreakdown.Speed)
}

func TestGetReviewSummaryInvalidCollection(t *testing.T) {
	h := newTestHandlers(&stubStore{}, &stubLedger{}, &stubVerifier{}, true)

	rr := postJSON(t, h.GetReviewSummary, "/getReviewSummary", GetReviewSummaryRequest{
		Collection: "../secrets",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetReviewSummaryStorageError(t *testing.T) {
	store := &stubStore{summaryErr: errors.New("scan failed")}
	h := newTestHandlers(store, &stubLedger{}, &stubVerifier{}, true)

	rr := postJSON(t, h.GetReviewSummary, "/getReviewSummary", GetReviewSummaryRequest{
		Collection: CollectionMobilePlan,
	})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
