package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	GeminiDefaultModel = "gemini-2.5-flash-preview-04-17"
)

// GeminiConfig holds configuration for the Gemini text client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	BaseURL     string       // Optional (tests)
	HTTPClient  *http.Client // Optional (tests)
}

// GeminiClient implements TextGenerator using the Google GenAI SDK.
type GeminiClient struct {
	apiKey      string
	model       string
	temperature float64
	client      *genai.Client
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", GeminiName, ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = GeminiDefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      client,
	}, nil
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Model returns the configured default model.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends a single-turn prompt to Gemini.
func (c *GeminiClient) Generate(ctx context.Context, req *TextRequest) (*TextResult, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = c.temperature
	}

	config := &genai.GenerateContentConfig{}
	if temp > 0 {
		config.Temperature = genai.Ptr(float32(temp))
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s: %w", GeminiName, ErrEmptyResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%s: %w: prompt blocked (%s)", GeminiName, ErrBlocked, resp.PromptFeedback.BlockReason)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		if len(resp.Candidates) == 0 {
			return nil, fmt.Errorf("%s: %w: no candidates were returned", GeminiName, ErrEmptyResponse)
		}
		if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return nil, fmt.Errorf("%s: %w: content was blocked due to safety settings", GeminiName, ErrBlocked)
		}
		return nil, fmt.Errorf("%s: %w: response had no text content", GeminiName, ErrEmptyResponse)
	}

	result := &TextResult{
		Text:          text,
		ExecutionTime: time.Since(start),
		Provider:      GeminiName,
		ModelUsed:     model,
		RequestID:     req.RequestID,
	}
	if resp.ModelVersion != "" {
		result.ModelUsed = resp.ModelVersion
	}
	if len(resp.Candidates) > 0 {
		result.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		result.PromptTokens = int(u.PromptTokenCount)
		result.CompletionTokens = int(u.CandidatesTokenCount)
		result.TotalTokens = int(u.TotalTokenCount)
	}
	return result, nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   GeminiName,
			StatusCode: apiErr.Code,
			Code:       apiErr.Code,
			Status:     apiErr.Status,
			Message:    apiErr.Message,
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{
			Provider:   GeminiName,
			StatusCode: apiErrPtr.Code,
			Code:       apiErrPtr.Code,
			Status:     apiErrPtr.Status,
			Message:    apiErrPtr.Message,
		}
	}
	return fmt.Errorf("%s request failed: %w", GeminiName, err)
}

var _ TextGenerator = (*GeminiClient)(nil)
