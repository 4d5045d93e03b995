package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds the configured text generators and the image generator.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu          sync.RWMutex
	text        map[string]textEntry
	defaultText string
	image       ImageGenerator
	imageCfg    ImageProviderConfig
	logger      *slog.Logger
}

type textEntry struct {
	gen TextGenerator
	cfg TextProviderConfig
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		text:   make(map[string]textEntry),
		logger: slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterText registers a text generator by name.
func (r *Registry) RegisterText(name string, gen TextGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text[name] = textEntry{gen: gen}
	if r.logger != nil {
		r.logger.Info("registered text provider", "name", name)
	}
}

// UnregisterText removes a text generator by name.
func (r *Registry) UnregisterText(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.text, name)
	if r.logger != nil {
		r.logger.Info("unregistered text provider", "name", name)
	}
}

// SetDefaultText selects the text generator returned by Text.
func (r *Registry) SetDefaultText(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultText = name
}

// GetText returns a text generator by name.
func (r *Registry) GetText(name string) (TextGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.text[name]
	if !ok {
		return nil, fmt.Errorf("text provider not found: %s", name)
	}
	return e.gen, nil
}

// HasText checks if a text generator is registered.
func (r *Registry) HasText(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.text[name]
	return ok
}

// ListText returns all registered text generator names, sorted.
func (r *Registry) ListText() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.text))
	for name := range r.text {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Text returns the default text generator, or the first registered one by
// name when no default is set. It returns nil when none is configured.
func (r *Registry) Text() TextGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.text[r.defaultText]; ok {
		return e.gen
	}
	if len(r.text) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.text))
	for name := range r.text {
		names = append(names, name)
	}
	sort.Strings(names)
	return r.text[names[0]].gen
}

// SetImage registers the image generator. A nil gen removes it.
func (r *Registry) SetImage(gen ImageGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.image = gen
	if r.logger != nil && gen != nil {
		r.logger.Info("registered image provider", "name", gen.Name())
	}
}

// Image returns the image generator, or nil when none is configured.
func (r *Registry) Image() ImageGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.image
}

// RegistryConfig defines the providers to instantiate from config.
// This mirrors the config.Config structure for provider setup.
type RegistryConfig struct {
	TextProviders map[string]TextProviderConfig
	DefaultText   string
	Image         ImageProviderConfig
}

// TextProviderConfig matches config.TextProviderCfg with resolved API key.
type TextProviderConfig struct {
	Type        string  // "gemini", "openai"
	Model       string  // Model name
	APIKey      string  // Resolved API key
	BaseURL     string  // Optional endpoint override
	Temperature float64 // 0 uses the provider default
	RateLimit   float64 // Requests per minute, 0 = unlimited
	Enabled     bool
}

// ImageProviderConfig matches config.ImageBackendCfg.
type ImageProviderConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64 // Requests per minute, 0 = unlimited
	Enabled   bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with valid API keys will be registered.
func NewRegistryFromConfig(ctx context.Context, cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(ctx, cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(ctx context.Context, cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.TextProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		want[name] = true

		existing, hasExisting := r.text[name]
		if hasExisting && existing.cfg == provCfg {
			continue
		}
		gen, err := createTextGenerator(ctx, provCfg)
		if err != nil {
			r.logger.Warn("failed to create text provider", "name", name, "type", provCfg.Type, "error", err)
			continue
		}
		r.text[name] = textEntry{gen: gen, cfg: provCfg}
		if hasExisting {
			r.logger.Info("updated text provider", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Info("registered text provider", "name", name, "type", provCfg.Type)
		}
	}

	for name := range r.text {
		if !want[name] {
			delete(r.text, name)
			r.logger.Info("unregistered text provider", "name", name)
		}
	}
	r.defaultText = cfg.DefaultText

	if !cfg.Image.Enabled {
		if r.image != nil {
			r.logger.Info("unregistered image provider")
		}
		r.image = nil
		r.imageCfg = cfg.Image
		return
	}
	if r.image == nil || r.imageCfg != cfg.Image {
		r.image = WithImageRateLimit(NewImageBackendClient(ImageBackendConfig{
			URL:     cfg.Image.URL,
			Timeout: cfg.Image.Timeout,
		}), cfg.Image.RateLimit)
		r.imageCfg = cfg.Image
		r.logger.Info("registered image provider", "name", ImageBackendName, "url", cfg.Image.URL)
	}
}

// createTextGenerator creates a text generator based on provider type.
func createTextGenerator(ctx context.Context, cfg TextProviderConfig) (TextGenerator, error) {
	var gen TextGenerator
	switch cfg.Type {
	case GeminiName:
		c, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		gen = c
	case OpenAIName:
		c, err := NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		gen = c
	default:
		return nil, fmt.Errorf("unknown text provider type: %q", cfg.Type)
	}
	return WithTextRateLimit(gen, cfg.RateLimit), nil
}
