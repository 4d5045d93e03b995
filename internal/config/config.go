// Package config loads studio configuration with viper and hot-reloads it
// when the config file changes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/jackzampolin/ebookstudio/internal/backoff"
	"github.com/jackzampolin/ebookstudio/internal/providers"
)

// EnvPrefix prefixes environment overrides, e.g. STUDIO_RETRY_MAX_RETRIES.
const EnvPrefix = "STUDIO"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config.
// An empty cfgFile searches ./config.yaml and ~/.ebookstudio/config.yaml;
// a missing file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    slog.Default(),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// SetLogger sets the logger used for reload messages.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		cm.logger = logger
	}
}

func (cm *Manager) initViper(cfgFile string) error {
	for _, e := range DefaultEntries() {
		cm.v.SetDefault(e.Key, e.Value)
	}

	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.ebookstudio")
	}

	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the config was read from, or "".
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cm.logger.Info("config file changed", "file", e.Name, "op", e.Op.String())
		cm.reload()
	})
	cm.v.WatchConfig()
}

// reload re-reads viper state and notifies callbacks.
func (cm *Manager) reload() {
	cfg, err := cm.load()
	if err != nil {
		cm.logger.Warn("config reload failed", "error", err)
		return
	}

	cm.mu.Lock()
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ResolveAPIKey returns the resolved key of a text provider. A Gemini key
// falls back to ${API_KEY}.
func (c *Config) ResolveAPIKey(name string) string {
	p, ok := c.TextProviders[name]
	if !ok {
		return ""
	}
	key := ResolveEnvVars(p.APIKey)
	if key == "" && p.Type == providers.GeminiName {
		key = os.Getenv("API_KEY")
	}
	return key
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		TextProviders: make(map[string]providers.TextProviderConfig),
		DefaultText:   c.Defaults.TextProvider,
		Image: providers.ImageProviderConfig{
			URL:       c.ImageBackend.URL,
			Timeout:   c.ImageBackend.Timeout,
			RateLimit: c.ImageBackend.RateLimit,
			Enabled:   c.ImageBackend.Enabled,
		},
	}

	for name, p := range c.TextProviders {
		cfg.TextProviders[name] = providers.TextProviderConfig{
			Type:        p.Type,
			Model:       p.Model,
			APIKey:      c.ResolveAPIKey(name),
			BaseURL:     p.BaseURL,
			Temperature: p.Temperature,
			RateLimit:   p.RateLimit,
			Enabled:     p.Enabled,
		}
	}

	return cfg
}

// RetryPolicy returns the backoff policy for generation calls.
func (c *Config) RetryPolicy() backoff.Policy {
	p := backoff.DefaultPolicy()
	p.MaxRetries = c.Retry.MaxRetries
	if c.Retry.InitialDelay > 0 {
		p.InitialDelay = c.Retry.InitialDelay
	}
	return p
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	data, err := DefaultYAML()
	if err != nil {
		return err
	}

	header := []byte(`# eBook Studio configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export GEMINI_API_KEY=xxx OPENAI_API_KEY=xxx
# Any key can be overridden with STUDIO_<SECTION>_<KEY>, e.g. STUDIO_RETRY_MAX_RETRIES=5

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
