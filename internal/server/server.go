package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/config"
	"github.com/jackzampolin/ebookstudio/internal/generate"
	"github.com/jackzampolin/ebookstudio/internal/home"
	"github.com/jackzampolin/ebookstudio/internal/imagebackend"
	"github.com/jackzampolin/ebookstudio/internal/llmcall"
	"github.com/jackzampolin/ebookstudio/internal/notify"
	"github.com/jackzampolin/ebookstudio/internal/prompts"
	"github.com/jackzampolin/ebookstudio/internal/providers"
	"github.com/jackzampolin/ebookstudio/internal/server/endpoints"
	"github.com/jackzampolin/ebookstudio/internal/store"
	"github.com/jackzampolin/ebookstudio/internal/studio"
	"github.com/jackzampolin/ebookstudio/internal/summary"
	"github.com/jackzampolin/ebookstudio/internal/svcctx"
	"github.com/jackzampolin/ebookstudio/internal/upload"
)

// Server is the eBook Studio HTTP server.
// When the image backend is managed it starts the container on Start and
// stops it on shutdown.
type Server struct {
	httpServer   *http.Server
	imageBackend *imagebackend.Manager
	registry     *providers.Registry
	studio       *studio.Studio
	configMgr    *config.Manager
	logger       *slog.Logger

	// prepared is attached to requests once Start has brought up dependencies.
	prepared *svcctx.Services

	endpointRegistry *api.Registry

	mu       sync.RWMutex
	services *svcctx.Services
	running  bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// Nil uses zero-value settings with no providers.
	ConfigManager *config.Manager
	// Home is the data directory; exports are written below it.
	Home *home.Dir
	// ManageImageBackend forces the image backend container on regardless
	// of image_backend.managed.
	ManageImageBackend bool
	// SwaggerSpecPath overrides where swagger.json is read from.
	SwaggerSpecPath string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := &config.Config{}
	var settings config.Store
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
		settings = cfg.ConfigManager.Store()
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	if cfg.ManageImageBackend || appCfg.ImageBackend.Managed {
		mgr, err := imagebackend.NewManager(imagebackend.Config{
			ContainerName: appCfg.ImageBackend.ContainerName,
			Image:         appCfg.ImageBackend.Image,
			HostPort:      appCfg.ImageBackend.Port,
			CachePath:     appCfg.ImageBackend.CachePath,
			GPU:           appCfg.ImageBackend.GPU,
			Logger:        cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create image backend manager: %w", err)
		}
		s.imageBackend = mgr
	}

	// Provider registry follows the config file
	s.registry = providers.NewRegistry()
	s.registry.SetLogger(cfg.Logger)
	s.registry.Reload(context.Background(), s.registryConfig(appCfg))
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			s.registry.Reload(context.Background(), s.registryConfig(c))
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	recorder := llmcall.NewRecorder(appCfg.LLMCalls.Capacity, cfg.Logger)
	notifier := notify.New(notify.Config{
		ErrorTTL:   appCfg.Notifications.ErrorTTL,
		MessageTTL: appCfg.Notifications.SuccessTTL,
		Logger:     cfg.Logger,
	})
	assets := store.New(cfg.Logger)
	policy := appCfg.RetryPolicy()
	summarizer := summary.New(summary.Config{
		Source:   s.registry,
		Policy:   policy,
		CacheTTL: appCfg.Summary.CacheTTL,
		Logger:   cfg.Logger,
	})
	orchestrator := generate.New(generate.Config{
		Store:      assets,
		Generators: s.registry,
		Summarizer: summarizer,
		Notifier:   notifier,
		Recorder:   recorder,
		Policy:     policy,
		Logger:     cfg.Logger,
	})
	s.studio = studio.New(studio.Config{
		Store:        assets,
		Orchestrator: orchestrator,
		Notifier:     notifier,
		Prompts:      prompts.NewResolver(cfg.Logger),
		Decoder:      upload.NewDecoder(appCfg.Upload.MaxBytes),
		Logger:       cfg.Logger,
	})

	s.prepared = &svcctx.Services{
		Studio:       s.studio,
		Registry:     s.registry,
		Summarizer:   summarizer,
		Recorder:     recorder,
		ConfigStore:  settings,
		Logger:       cfg.Logger,
		Home:         cfg.Home,
		ImageBackend: s.imageBackend,
	}

	s.endpointRegistry = api.NewRegistry()
	s.endpointRegistry.RegisterAll(endpoints.All(endpoints.Config{SwaggerSpecPath: cfg.SwaggerSpecPath}))

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// generation with retries and image rendering can run for minutes
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registryConfig points the image provider at the managed container when there is one.
func (s *Server) registryConfig(c *config.Config) providers.RegistryConfig {
	rc := c.ToProviderRegistryConfig()
	if s.imageBackend != nil {
		rc.Image.URL = s.imageBackend.GenerateURL()
		rc.Image.Enabled = true
	}
	return rc
}

// Start starts the server and, when managed, the image backend container.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.imageBackend != nil {
		s.logger.Info("starting image backend container")
		if err := s.imageBackend.Start(ctx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("failed to start image backend: %w", err)
		}
		if err := s.imageBackend.WaitReady(ctx); err != nil {
			_ = s.shutdown()
			return fmt.Errorf("image backend did not become ready: %w", err)
		}
		s.logger.Info("image backend is ready", "url", s.imageBackend.BaseURL())
	}

	s.mu.Lock()
	s.services = s.prepared
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown stops the HTTP server and the managed container.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.imageBackend != nil {
		s.logger.Info("stopping image backend container")
		if err := s.imageBackend.Stop(shutdownCtx); err != nil {
			s.logger.Error("image backend stop error", "error", err)
		}
		if err := s.imageBackend.Close(); err != nil {
			s.logger.Error("image backend manager close error", "error", err)
		}
	}

	s.mu.Lock()
	s.services = nil
	s.mu.Unlock()
	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Studio returns the authoring session.
func (s *Server) Studio() *studio.Studio {
	return s.studio
}

// Handler returns the root HTTP handler, for tests that serve it themselves.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
