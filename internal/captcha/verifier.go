package captcha

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DefaultSiteVerifyURL is the Google reCAPTCHA verification endpoint
const DefaultSiteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// verifyTimeout bounds the external call so a slow verifier cannot hang a
// submission. A timeout counts as a rejection, not a validation failure.
const verifyTimeout = 10 * time.Second

// Verifier checks a challenge-response token against an external service
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// siteVerifyResponse is the reCAPTCHA siteverify response body
type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// RecaptchaVerifier verifies tokens against the reCAPTCHA siteverify API
type RecaptchaVerifier struct {
	client    *resty.Client
	secretKey string
}

// NewRecaptchaVerifier creates a verifier for the given secret key.
// An optional verifyURL overrides the Google endpoint (used by tests).
func NewRecaptchaVerifier(secretKey string, verifyURL string) *RecaptchaVerifier {
	if verifyURL == "" {
		verifyURL = DefaultSiteVerifyURL
	}

	client := resty.New().
		SetBaseURL(verifyURL).
		SetTimeout(verifyTimeout)

	return &RecaptchaVerifier{
		client:    client,
		secretKey: secretKey,
	}
}

// Verify calls the siteverify endpoint and returns the verdict. Network
// failures are returned as errors; the caller treats both a negative
// verdict and an error as rejection.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) (bool, error) {
	var result siteVerifyResponse

	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   v.secretKey,
			"response": token,
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		log.Error().Err(err).Msg("Captcha verification request failed")
		return false, fmt.Errorf("captcha verify request: %w", err)
	}

	if resp.IsError() {
		log.Error().
			Int("status", resp.StatusCode()).
			Msg("Captcha verification returned non-2xx status")
		return false, fmt.Errorf("captcha verify status %d", resp.StatusCode())
	}

	if !result.Success {
		log.Warn().
			Strs("error_codes", result.ErrorCodes).
			Msg("Captcha token rejected by verifier")
	}

	return result.Success, nil
}
