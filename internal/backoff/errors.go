package backoff

import (
	"errors"
	"fmt"
	"strings"
)

// RateLimitDocsURL is linked from quota error messages.
const RateLimitDocsURL = "https://ai.google.dev/gemini-api/docs/rate-limits"

var (
	// ErrQuotaExceeded matches final errors caused by quota exhaustion or rate limiting.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrGenerationFailed matches every other final error.
	ErrGenerationFailed = errors.New("generation failed")
)

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// errorCoder is implemented by errors that carry a nested API error code.
type errorCoder interface {
	ErrorCode() int
}

var retryableMarkers = []string{
	"429",
	"resource_exhausted",
	"rate limit",
	" 500",
	" 502",
	" 503",
	" 504",
	"server error",
	"backend error",
}

var quotaMarkers = []string{
	"resource_exhausted",
	"quota",
	"rate limit",
}

// IsRetryable reports whether err signals rate limiting or a server-side
// failure, by status code, nested error code or message text.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	for _, code := range codes(err) {
		if code == 429 || (code >= 500 && code < 600) {
			return true
		}
	}
	return containsAny(strings.ToLower(err.Error()), retryableMarkers)
}

// IsQuota reports whether err signals quota exhaustion or rate limiting.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	for _, code := range codes(err) {
		if code == 429 {
			return true
		}
	}
	return containsAny(strings.ToLower(err.Error()), quotaMarkers)
}

func codes(err error) []int {
	var out []int
	var sc statusCoder
	if errors.As(err, &sc) {
		out = append(out, sc.HTTPStatus())
	}
	var ec errorCoder
	if errors.As(err, &ec) {
		out = append(out, ec.ErrorCode())
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Error is the normalized terminal failure of a generation call.
type Error struct {
	Service string
	Quota   bool
	Err     error
}

func (e *Error) Error() string {
	if e.Quota {
		return fmt.Sprintf("%v This is likely due to exceeding your usage quota or rate limits for %s generation. "+
			"Please check your provider's billing and quotas. For more information, visit: %s",
			e.Err, e.Service, RateLimitDocsURL)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Service, e.Err)
}

// Unwrap exposes both the category sentinel and the original error.
func (e *Error) Unwrap() []error {
	if e.Quota {
		return []error{ErrQuotaExceeded, e.Err}
	}
	return []error{ErrGenerationFailed, e.Err}
}

// Finalize wraps err as a *Error. An error that already is one is returned unchanged.
func Finalize(service string, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return &Error{Service: service, Quota: IsQuota(err), Err: err}
}
