package providers

import (
	"context"
	"strings"
	"testing"
	"time"
)

// These tests call real services and only run when the matching
// environment variables are set.

func TestLive_TextProviders(t *testing.T) {
	cfg := LoadTestConfig()
	if !cfg.HasGemini() && !cfg.HasOpenAI() {
		t.Skip("GEMINI_API_KEY and OPENAI_API_KEY not set")
	}
	if testing.Short() {
		t.Skip("skipping live provider test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	r := NewRegistryFromConfig(ctx, cfg.ToRegistryConfig())
	for _, name := range r.ListText() {
		t.Run(name, func(t *testing.T) {
			gen, err := r.GetText(name)
			if err != nil {
				t.Fatalf("GetText() error = %v", err)
			}
			result, err := gen.Generate(ctx, &TextRequest{
				Prompt:            "Reply with the single word: ready",
				SystemInstruction: "You answer with one lowercase word.",
			})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if !strings.Contains(strings.ToLower(result.Text), "ready") {
				t.Errorf("Text = %q, want it to contain ready", result.Text)
			}
			if result.Provider != name {
				t.Errorf("Provider = %s, want %s", result.Provider, name)
			}
		})
	}
}

func TestLive_ImageBackend(t *testing.T) {
	cfg := LoadTestConfig()
	if !cfg.HasImageBackend() {
		t.Skip("IMAGE_BACKEND_URL not set")
	}
	if testing.Short() {
		t.Skip("skipping live image backend test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	r := NewRegistryFromConfig(ctx, cfg.ToRegistryConfig())
	gen := r.Image()
	if gen == nil {
		t.Fatal("image generator not registered")
	}
	result, err := gen.GenerateImage(ctx, "a single red apple on a white table")
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if !strings.HasPrefix(result.URL, "data:image/") {
		t.Errorf("URL prefix = %.30q, want data:image/", result.URL)
	}
}
