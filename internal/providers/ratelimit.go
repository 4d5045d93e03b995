package providers

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	RequestsPerMinute float64 `json:"requests_per_minute"`
	TokensAvailable   float64 `json:"tokens_available"`
}

// newLimiter converts requests per minute into a token bucket with a burst of one.
func newLimiter(rpm float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(rpm/60.0), 1)
}

// RateLimitedText wraps a TextGenerator with a token bucket limiter.
type RateLimitedText struct {
	TextGenerator
	rpm     float64
	limiter *rate.Limiter
}

// WithTextRateLimit limits gen to rpm requests per minute. A non-positive
// rpm returns gen unchanged.
func WithTextRateLimit(gen TextGenerator, rpm float64) TextGenerator {
	if rpm <= 0 {
		return gen
	}
	return &RateLimitedText{TextGenerator: gen, rpm: rpm, limiter: newLimiter(rpm)}
}

// Generate waits for a token, then delegates.
func (r *RateLimitedText) Generate(ctx context.Context, req *TextRequest) (*TextResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.TextGenerator.Generate(ctx, req)
}

// Status returns current limiter status.
func (r *RateLimitedText) Status() RateLimiterStatus {
	return RateLimiterStatus{RequestsPerMinute: r.rpm, TokensAvailable: r.limiter.Tokens()}
}

// Unwrap returns the wrapped generator.
func (r *RateLimitedText) Unwrap() TextGenerator {
	return r.TextGenerator
}

// RateLimitedImage wraps an ImageGenerator with a token bucket limiter.
type RateLimitedImage struct {
	ImageGenerator
	rpm     float64
	limiter *rate.Limiter
}

// WithImageRateLimit limits gen to rpm requests per minute. A non-positive
// rpm returns gen unchanged.
func WithImageRateLimit(gen ImageGenerator, rpm float64) ImageGenerator {
	if rpm <= 0 {
		return gen
	}
	return &RateLimitedImage{ImageGenerator: gen, rpm: rpm, limiter: newLimiter(rpm)}
}

// GenerateImage waits for a token, then delegates.
func (r *RateLimitedImage) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.ImageGenerator.GenerateImage(ctx, prompt)
}

// Status returns current limiter status.
func (r *RateLimitedImage) Status() RateLimiterStatus {
	return RateLimiterStatus{RequestsPerMinute: r.rpm, TokensAvailable: r.limiter.Tokens()}
}
