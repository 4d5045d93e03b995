package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	OpenAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for the OpenAI chat client.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration // HTTP timeout
	BaseURL     string        // Optional (tests, compatible gateways)
	HTTPClient  *http.Client  // Optional (tests)
}

// OpenAIClient implements TextGenerator using the official OpenAI SDK.
// SDK-level retries are disabled; retries belong to the backoff wrapper.
type OpenAIClient struct {
	model       string
	temperature float64
	client      openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", OpenAIName, ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = OpenAIDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      openai.NewClient(opts...),
	}, nil
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Generate sends a chat completion with an optional system message.
func (c *OpenAIClient) Generate(ctx context.Context, req *TextRequest) (*TextResult, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstruction))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = c.temperature
	}
	if temp > 0 {
		params.Temperature = openai.Float(temp)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w: no choices were returned", OpenAIName, ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, fmt.Errorf("%s: %w: content filtered", OpenAIName, ErrBlocked)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, fmt.Errorf("%s: %w: response had no text content", OpenAIName, ErrEmptyResponse)
	}

	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = model
	}
	return &TextResult{
		Text:             choice.Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		ExecutionTime:    time.Since(start),
		Provider:         OpenAIName,
		ModelUsed:        modelUsed,
		FinishReason:     string(choice.FinishReason),
		RequestID:        req.RequestID,
	}, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &APIError{
			Provider:   OpenAIName,
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.StatusCode,
			Status:     apiErr.Type,
			Message:    msg,
		}
	}
	return fmt.Errorf("%s request failed: %w", OpenAIName, err)
}

var _ TextGenerator = (*OpenAIClient)(nil)
