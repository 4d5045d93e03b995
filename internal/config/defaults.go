package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry represents a single configuration entry.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns the default configuration entries in file order.
// Every key here is registered as a viper default, so each one can also be
// set through the environment (STUDIO_RETRY_MAX_RETRIES and so on).
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// Text Providers
		// ===================

		// Text Providers - Gemini
		{
			Key:         "text_providers.gemini.type",
			Value:       "gemini",
			Description: "Text provider type for Gemini",
		},
		{
			Key:         "text_providers.gemini.model",
			Value:       "gemini-2.5-flash-preview-04-17",
			Description: "Gemini model used for prompts, quotes and summaries",
		},
		{
			Key:         "text_providers.gemini.api_key",
			Value:       "${GEMINI_API_KEY}",
			Description: "Gemini API key (uses environment variable)",
		},
		{
			Key:         "text_providers.gemini.rate_limit",
			Value:       60.0,
			Description: "Rate limit in requests per minute for Gemini",
		},
		{
			Key:         "text_providers.gemini.enabled",
			Value:       true,
			Description: "Whether the Gemini text provider is enabled",
		},

		// Text Providers - OpenAI
		{
			Key:         "text_providers.openai.type",
			Value:       "openai",
			Description: "Text provider type for OpenAI",
		},
		{
			Key:         "text_providers.openai.model",
			Value:       "gpt-4o-mini",
			Description: "OpenAI chat model",
		},
		{
			Key:         "text_providers.openai.api_key",
			Value:       "${OPENAI_API_KEY}",
			Description: "OpenAI API key (uses environment variable)",
		},
		{
			Key:         "text_providers.openai.rate_limit",
			Value:       60.0,
			Description: "Rate limit in requests per minute for OpenAI",
		},
		{
			Key:         "text_providers.openai.enabled",
			Value:       false,
			Description: "Whether the OpenAI text provider is enabled",
		},

		// ===================
		// Image Backend
		// ===================
		{
			Key:         "image_backend.url",
			Value:       "http://localhost:8000/generate-image/",
			Description: "Image generation endpoint",
		},
		{
			Key:         "image_backend.timeout",
			Value:       "3m",
			Description: "HTTP timeout for one image generation",
		},
		{
			Key:         "image_backend.rate_limit",
			Value:       0.0,
			Description: "Rate limit in requests per minute for the image backend (0 = unlimited)",
		},
		{
			Key:         "image_backend.enabled",
			Value:       true,
			Description: "Whether image generation is enabled",
		},
		{
			Key:         "image_backend.managed",
			Value:       false,
			Description: "Start the image backend in Docker when serving",
		},
		{
			Key:         "image_backend.image",
			Value:       "ebookstudio/image-backend:latest",
			Description: "Docker image of the managed image backend",
		},
		{
			Key:         "image_backend.container_name",
			Value:       "ebookstudio-image-backend",
			Description: "Container name of the managed image backend",
		},
		{
			Key:         "image_backend.port",
			Value:       "8000",
			Description: "Host port of the managed image backend",
		},
		{
			Key:         "image_backend.gpu",
			Value:       false,
			Description: "Request all GPUs for the managed image backend",
		},
		{
			Key:         "image_backend.cache_path",
			Value:       "",
			Description: "Host directory for downloaded model weights",
		},

		// ===================
		// Studio Defaults
		// ===================
		{
			Key:         "defaults.text_provider",
			Value:       "gemini",
			Description: "Text provider used for generation and summaries",
		},
		{
			Key:         "retry.max_retries",
			Value:       3,
			Description: "Retries after the first attempt of a generation call",
		},
		{
			Key:         "retry.initial_delay",
			Value:       "1s",
			Description: "Wait before the first retry; doubles each retry",
		},
		{
			Key:         "summary.cache_ttl",
			Value:       "30m",
			Description: "How long AI summaries are cached",
		},
		{
			Key:         "notifications.error_ttl",
			Value:       "7s",
			Description: "How long the error banner stays visible",
		},
		{
			Key:         "notifications.success_ttl",
			Value:       "5s",
			Description: "How long the success banner stays visible",
		},
		{
			Key:         "upload.max_bytes",
			Value:       10 << 20,
			Description: "Largest accepted upload in bytes",
		},
		{
			Key:         "llmcalls.capacity",
			Value:       500,
			Description: "Number of text generation calls kept in memory",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// DefaultYAML renders the default entries as a nested YAML document that
// keeps the order of DefaultEntries.
func DefaultYAML() ([]byte, error) {
	root := yaml.MapSlice{}
	for _, e := range DefaultEntries() {
		root = insert(root, strings.Split(e.Key, "."), e.Value)
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func insert(m yaml.MapSlice, path []string, value any) yaml.MapSlice {
	if len(path) == 1 {
		return append(m, yaml.MapItem{Key: path[0], Value: value})
	}
	for i, item := range m {
		if item.Key != path[0] {
			continue
		}
		child, _ := item.Value.(yaml.MapSlice)
		m[i].Value = insert(child, path[1:], value)
		return m
	}
	return append(m, yaml.MapItem{Key: path[0], Value: insert(yaml.MapSlice{}, path[1:], value)})
}
