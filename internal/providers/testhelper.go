package providers

import (
	"os"
)

// TestConfig holds provider configurations loaded from environment variables.
// This allows tests to use the same configuration pattern as production.
type TestConfig struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	ImageBackendURL string
}

// LoadTestConfig loads provider API keys from environment variables.
// Returns a TestConfig with whatever keys are available.
func LoadTestConfig() TestConfig {
	gemini := os.Getenv("GEMINI_API_KEY")
	if gemini == "" {
		gemini = os.Getenv("API_KEY")
	}
	return TestConfig{
		GeminiAPIKey:    gemini,
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		ImageBackendURL: os.Getenv("IMAGE_BACKEND_URL"),
	}
}

// HasGemini returns true if a Gemini API key is configured.
func (c TestConfig) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

// HasOpenAI returns true if an OpenAI API key is configured.
func (c TestConfig) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasImageBackend returns true if an image backend URL is configured.
func (c TestConfig) HasImageBackend() bool {
	return c.ImageBackendURL != ""
}

// ToRegistryConfig converts test config to a RegistryConfig for the provider registry.
// Only includes providers that have API keys configured.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	cfg := RegistryConfig{
		TextProviders: make(map[string]TextProviderConfig),
		DefaultText:   GeminiName,
	}
	if c.HasGemini() {
		cfg.TextProviders[GeminiName] = TextProviderConfig{
			Type:    GeminiName,
			APIKey:  c.GeminiAPIKey,
			Enabled: true,
		}
	}
	if c.HasOpenAI() {
		cfg.TextProviders[OpenAIName] = TextProviderConfig{
			Type:    OpenAIName,
			APIKey:  c.OpenAIAPIKey,
			Enabled: true,
		}
	}
	if c.HasImageBackend() {
		cfg.Image = ImageProviderConfig{URL: c.ImageBackendURL, Enabled: true}
	}
	return cfg
}
