// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/ebookstudio/internal/config"
	"github.com/jackzampolin/ebookstudio/internal/home"
	"github.com/jackzampolin/ebookstudio/internal/imagebackend"
	"github.com/jackzampolin/ebookstudio/internal/llmcall"
	"github.com/jackzampolin/ebookstudio/internal/providers"
	"github.com/jackzampolin/ebookstudio/internal/studio"
	"github.com/jackzampolin/ebookstudio/internal/summary"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Studio       *studio.Studio
	Registry     *providers.Registry
	Summarizer   *summary.Summarizer
	Recorder     *llmcall.Recorder
	ConfigStore  config.Store
	Logger       *slog.Logger
	Home         *home.Dir
	ImageBackend *imagebackend.Manager
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// StudioFrom extracts the authoring session from context.
func StudioFrom(ctx context.Context) *studio.Studio {
	if s := ServicesFrom(ctx); s != nil {
		return s.Studio
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// SummarizerFrom extracts the summary service from context.
func SummarizerFrom(ctx context.Context) *summary.Summarizer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Summarizer
	}
	return nil
}

// RecorderFrom extracts the LLM call recorder from context.
func RecorderFrom(ctx context.Context) *llmcall.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Recorder
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigStoreFrom extracts the settings store from context.
func ConfigStoreFrom(ctx context.Context) config.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigStore
	}
	return nil
}

// ImageBackendFrom extracts the managed image backend, if any.
func ImageBackendFrom(ctx context.Context) *imagebackend.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ImageBackend
	}
	return nil
}
