// Package llmcall provides text-generation call recording and querying for traceability.
// Every generation call is recorded with its asset, prompt hash, response, and metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/ebookstudio/internal/providers"
)

// Call represents a recorded text-generation call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	AssetID   string `json:"asset_id,omitempty"`
	ChapterID string `json:"chapter_id,omitempty"`
	AssetType string `json:"asset_type,omitempty"`

	// Prompt traceability
	PromptKey  string `json:"prompt_key"`
	PromptHash string `json:"prompt_hash,omitempty"` // SHA256 of system + user prompt

	// Model info
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Token usage
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Response
	Response string `json:"response"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording a call.
type RecordOptions struct {
	// Context references (all optional)
	AssetID   string
	ChapterID string
	AssetType string

	// Prompt identification
	PromptKey  string
	PromptHash string

	// Provider is used when the call failed before a result existed.
	Provider string
}

// FromTextResult creates a Call from a TextResult and the error, if any,
// of the call that produced it. Either may be nil.
func FromTextResult(result *providers.TextResult, callErr error, started time.Time, opts RecordOptions) *Call {
	call := &Call{
		ID:         uuid.New().String(),
		Timestamp:  started,
		LatencyMs:  int(time.Since(started).Milliseconds()),
		AssetID:    opts.AssetID,
		ChapterID:  opts.ChapterID,
		AssetType:  opts.AssetType,
		PromptKey:  opts.PromptKey,
		PromptHash: opts.PromptHash,
		Provider:   opts.Provider,
		Success:    callErr == nil,
	}

	if result != nil {
		call.Provider = result.Provider
		call.Model = result.ModelUsed
		call.InputTokens = result.PromptTokens
		call.OutputTokens = result.CompletionTokens
		call.Response = result.Text
		if result.ExecutionTime > 0 {
			call.LatencyMs = int(result.ExecutionTime.Milliseconds())
		}
	}
	if callErr != nil {
		call.Error = callErr.Error()
	}

	return call
}
