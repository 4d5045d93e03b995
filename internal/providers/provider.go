package providers

import (
	"context"
	"time"
)

// TextGenerator produces text from a prompt and an optional system instruction.
type TextGenerator interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// Generate sends a single prompt and returns the generated text.
	Generate(ctx context.Context, req *TextRequest) (*TextResult, error)
}

// ImageGenerator renders a descriptive prompt into an image reference.
// Separate from TextGenerator because it sits behind a different network
// boundary and returns an opaque URI instead of text.
type ImageGenerator interface {
	// Name returns the provider identifier (e.g., "local-backend").
	Name() string

	// GenerateImage returns an image for prompt, normally as a data URI.
	GenerateImage(ctx context.Context, prompt string) (*ImageResult, error)
}

// TextRequest is a request to a text generator.
type TextRequest struct {
	// Required
	Prompt string `json:"prompt"`

	SystemInstruction string `json:"system_instruction,omitempty"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	Temperature float64 `json:"temperature,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// TextResult is the complete response from a text generator.
type TextResult struct {
	Text string `json:"text"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider     string `json:"provider"`
	ModelUsed    string `json:"model_used"`
	FinishReason string `json:"finish_reason,omitempty"`

	RequestID string `json:"request_id"`
}

// ImageResult is the response from an image generator.
type ImageResult struct {
	// URL is the image reference, a data URI for the local backend.
	URL       string `json:"url"`
	MediaType string `json:"media_type"`

	ExecutionTime time.Duration `json:"execution_time"`
	Provider      string        `json:"provider"`
}
