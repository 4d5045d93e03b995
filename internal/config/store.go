package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// Store reads and writes individual settings.
type Store interface {
	// Get returns a single entry, or nil when the key is unset.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set updates an entry and applies it.
	Set(ctx context.Context, key string, value any) error

	// GetAll returns every known entry.
	GetAll(ctx context.Context) (map[string]Entry, error)

	// GetByPrefix returns entries whose key starts with prefix.
	GetByPrefix(ctx context.Context, prefix string) (map[string]Entry, error)
}

// Store returns a settings store over the manager's viper state.
// Writes are persisted to the config file when one is in use and trigger the
// OnChange callbacks.
func (cm *Manager) Store() Store {
	return &viperStore{cm: cm}
}

type viperStore struct {
	cm *Manager
}

func (s *viperStore) Get(_ context.Context, key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	key = strings.ToLower(key)

	s.cm.mu.RLock()
	defer s.cm.mu.RUnlock()
	if !s.cm.v.IsSet(key) {
		return nil, nil
	}
	e := Entry{Key: key, Value: s.cm.v.Get(key)}
	if def := GetDefault(key); def != nil {
		e.Description = def.Description
	}
	return &e, nil
}

func (s *viperStore) Set(_ context.Context, key string, value any) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	key = strings.ToLower(key)

	s.cm.mu.Lock()
	s.cm.v.Set(key, value)
	s.cm.mu.Unlock()

	if s.cm.v.ConfigFileUsed() != "" {
		if err := s.cm.v.WriteConfig(); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	s.cm.reload()
	return nil
}

func (s *viperStore) GetAll(ctx context.Context) (map[string]Entry, error) {
	return s.GetByPrefix(ctx, "")
}

func (s *viperStore) GetByPrefix(ctx context.Context, prefix string) (map[string]Entry, error) {
	prefix = strings.ToLower(prefix)
	s.cm.mu.RLock()
	keys := s.cm.v.AllKeys()
	s.cm.mu.RUnlock()
	sort.Strings(keys)

	out := make(map[string]Entry)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		e, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out[key] = *e
		}
	}
	return out, nil
}

// ResetToDefault resets a config key to its default value.
// Returns ErrNoDefault if no default exists for the key.
func ResetToDefault(ctx context.Context, store Store, key string) error {
	def := GetDefault(key)
	if def == nil {
		return fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return store.Set(ctx, key, def.Value)
}
