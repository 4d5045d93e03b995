package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"
)

const (
	ImageBackendName           = "local-backend"
	DefaultImageBackendURL     = "http://localhost:8000/generate-image/"
	imageBackendDefaultTimeout = 180 * time.Second
)

// ImageBackendConfig holds configuration for the local image backend client.
type ImageBackendConfig struct {
	URL        string        // Generation endpoint; DefaultImageBackendURL if empty
	Timeout    time.Duration // HTTP timeout
	HTTPClient *http.Client  // Optional (tests)
}

// ImageBackendClient implements ImageGenerator against the local backend.
// The backend accepts {"prompt": ...} and answers {"image": <base64>}; failed
// requests carry {"detail": ...}.
type ImageBackendClient struct {
	url    string
	client *http.Client
}

type imageBackendRequest struct {
	Prompt string `json:"prompt"`
}

type imageBackendResponse struct {
	Image string `json:"image"`
}

type imageBackendError struct {
	Detail json.RawMessage `json:"detail"`
}

// NewImageBackendClient creates a client for the local image backend.
func NewImageBackendClient(cfg ImageBackendConfig) *ImageBackendClient {
	if cfg.URL == "" {
		cfg.URL = DefaultImageBackendURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = imageBackendDefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &ImageBackendClient{url: cfg.URL, client: client}
}

// Name returns the provider identifier.
func (c *ImageBackendClient) Name() string {
	return ImageBackendName
}

// URL returns the generation endpoint.
func (c *ImageBackendClient) URL() string {
	return c.url
}

// GenerateImage asks the backend to render prompt and returns a data URI.
func (c *ImageBackendClient) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	start := time.Now()

	body, err := json.Marshal(imageBackendRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image backend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Provider:   ImageBackendName,
			StatusCode: resp.StatusCode,
			Message:    "Backend image generation failed: " + errorDetail(resp, respBody),
		}
	}

	var out imageBackendResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Image == "" {
		return nil, fmt.Errorf("%s: %w: no image in response", ImageBackendName, ErrEmptyResponse)
	}

	uri, mediaType, err := ToDataURI(out.Image)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ImageBackendName, err)
	}

	return &ImageResult{
		URL:           uri,
		MediaType:     mediaType,
		ExecutionTime: time.Since(start),
		Provider:      ImageBackendName,
	}, nil
}

// Ping checks that the backend root answers.
func (c *ImageBackendClient) Ping(ctx context.Context) error {
	u, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("invalid image backend url: %w", err)
	}
	u.Path = "/"
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image backend returned status %d", resp.StatusCode)
	}
	return nil
}

// errorDetail extracts the "detail" field, which is a string for handled
// errors and a list for request validation errors.
func errorDetail(resp *http.Response, body []byte) string {
	var e imageBackendError
	if err := json.Unmarshal(body, &e); err == nil && len(e.Detail) > 0 {
		var s string
		if err := json.Unmarshal(e.Detail, &s); err == nil {
			return s
		}
		return string(e.Detail)
	}
	if len(body) > 0 {
		return strings.TrimSpace(string(body))
	}
	return resp.Status
}

// ToDataURI normalizes an image reference to a data URI. Existing data URIs
// are validated and returned unchanged; raw base64 is decoded and its media
// type detected from content.
func ToDataURI(image string) (string, string, error) {
	if strings.HasPrefix(image, "data:") {
		du, err := dataurl.DecodeString(image)
		if err != nil {
			return "", "", fmt.Errorf("invalid data uri: %w", err)
		}
		return image, du.ContentType(), nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(image))
	if err != nil {
		return "", "", fmt.Errorf("invalid base64 image: %w", err)
	}
	mediaType := mimetype.Detect(data).String()
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/png"
	}
	return dataurl.New(data, mediaType).String(), mediaType, nil
}

var _ ImageGenerator = (*ImageBackendClient)(nil)
