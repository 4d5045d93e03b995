package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	MockTextName  = "mock"
	MockImageName = "mock-image"

	// MockImageURL is a 1x1 transparent PNG.
	MockImageURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="
)

// MockTextGenerator is a TextGenerator for testing.
type MockTextGenerator struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int   // Fail after N requests (0 = never)
	Err          error // Returned instead of a generic failure when set
	ResponseText string

	// Responses, when set, are returned in order; the last one repeats.
	Responses []string

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []TextRequest
}

// NewMockTextGenerator creates a mock text generator with sensible defaults.
func NewMockTextGenerator() *MockTextGenerator {
	return &MockTextGenerator{
		ResponseText: "mock response",
	}
}

// Name returns the provider identifier.
func (m *MockTextGenerator) Name() string {
	return MockTextName
}

// Generate returns the configured response or failure.
func (m *MockTextGenerator) Generate(ctx context.Context, req *TextRequest) (*TextResult, error) {
	start := time.Now()
	count := m.requestCount.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()

	if m.ShouldFail {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, fmt.Errorf("mock generator configured to fail")
	}
	if m.FailAfter > 0 && int(count) > m.FailAfter {
		return nil, fmt.Errorf("mock generator failed after %d requests", m.FailAfter)
	}

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	text := m.ResponseText
	if len(m.Responses) > 0 {
		i := int(count) - 1
		if i >= len(m.Responses) {
			i = len(m.Responses) - 1
		}
		text = m.Responses[i]
	}

	promptTokens := (len(req.Prompt) + len(req.SystemInstruction)) / 4
	completionTokens := len(text) / 4
	return &TextResult{
		Text:             text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		ExecutionTime:    time.Since(start),
		Provider:         MockTextName,
		ModelUsed:        req.Model,
		RequestID:        fmt.Sprintf("mock-%d", count),
	}, nil
}

// RequestCount returns the number of requests made.
func (m *MockTextGenerator) RequestCount() int64 {
	return m.requestCount.Load()
}

// Requests returns a copy of every request received.
func (m *MockTextGenerator) Requests() []TextRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TextRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset resets the request counter and history.
func (m *MockTextGenerator) Reset() {
	m.requestCount.Store(0)
	m.mu.Lock()
	m.requests = nil
	m.mu.Unlock()
}

var _ TextGenerator = (*MockTextGenerator)(nil)

// MockImageGenerator is an ImageGenerator for testing.
type MockImageGenerator struct {
	ShouldFail bool
	Err        error
	URL        string

	requestCount atomic.Int64
	mu           sync.Mutex
	prompts      []string
}

// NewMockImageGenerator creates a mock image generator returning MockImageURL.
func NewMockImageGenerator() *MockImageGenerator {
	return &MockImageGenerator{URL: MockImageURL}
}

// Name returns the provider identifier.
func (m *MockImageGenerator) Name() string {
	return MockImageName
}

// GenerateImage returns the configured URL or failure.
func (m *MockImageGenerator) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	m.requestCount.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.ShouldFail {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, fmt.Errorf("mock image generator configured to fail")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ImageResult{URL: m.URL, MediaType: "image/png", Provider: MockImageName}, nil
}

// RequestCount returns the number of requests made.
func (m *MockImageGenerator) RequestCount() int64 {
	return m.requestCount.Load()
}

// Prompts returns every prompt received.
func (m *MockImageGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

var _ ImageGenerator = (*MockImageGenerator)(nil)
