package prompts

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

// ErrNotFound is returned for keys no prompt is registered under.
var ErrNotFound = errors.New("prompt not found")

//go:embed templates/*.tmpl
var templateFS embed.FS

// Resolver resolves prompts with session overrides.
// Resolution order: Override > Embedded default
type Resolver struct {
	embedded  map[string]EmbeddedPrompt
	overrides map[string]Override
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewResolver creates a resolver with every embedded asset prompt registered.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		embedded:  make(map[string]EmbeddedPrompt),
		overrides: make(map[string]Override),
		logger:    logger,
	}
	for _, t := range ebook.AllAssetTypes() {
		r.Register(EmbeddedPrompt{
			Key:         SystemKey(t),
			Text:        mustTemplate(string(t) + ".system.tmpl"),
			Description: t.Label() + " system prompt",
		})
		r.Register(EmbeddedPrompt{
			Key:         UserKey(t),
			Text:        mustTemplate(string(t) + ".user.tmpl"),
			Description: t.Label() + " user prompt",
		})
	}
	return r
}

func mustTemplate(name string) string {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded prompt %s: %v", name, err))
	}
	return string(data)
}

// Register registers an embedded prompt.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Resolve returns the override for key if one exists, otherwise the embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if o, ok := r.overrides[key]; ok {
		return &ResolvedPrompt{
			Key:        key,
			Text:       o.Text,
			Variables:  ExtractVariables(o.Text),
			IsOverride: true,
			Hash:       HashText(o.Text),
		}, nil
	}

	embedded, ok := r.embedded[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// SetOverride replaces the text for key. The text must parse as a template
// and key must name a registered prompt.
func (r *Resolver) SetOverride(key, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("override text for %s is empty", key)
	}
	if _, err := Parse(key, text); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.embedded[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	r.overrides[key] = Override{Key: key, Text: text, UpdatedAt: time.Now()}
	r.logger.Info("prompt override set", "key", key)
	return nil
}

// ClearOverride restores the embedded default for key.
func (r *Resolver) ClearOverride(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overrides[key]; ok {
		delete(r.overrides, key)
		r.logger.Info("prompt override cleared", "key", key)
	}
}

// Overrides returns all active overrides sorted by key.
func (r *Resolver) Overrides() []Override {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Override, 0, len(r.overrides))
	for _, o := range r.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Defaults renders the system and user prompts for t. A blank summary renders
// as the awaiting-summary sentinel so generation can inject a fresh one.
func (r *Resolver) Defaults(t ebook.AssetType, vars Vars) (Pair, error) {
	if !t.Valid() {
		return Pair{}, fmt.Errorf("unknown asset type: %q", t)
	}
	if strings.TrimSpace(vars.Summary) == "" {
		vars.Summary = ebook.AwaitingSummary
	}
	if strings.TrimSpace(vars.Title) == "" {
		vars.Title = ebook.UntitledTitle
	}

	sys, err := r.Resolve(SystemKey(t))
	if err != nil {
		return Pair{}, err
	}
	user, err := r.Resolve(UserKey(t))
	if err != nil {
		return Pair{}, err
	}

	system, err := Render(sys.Key, sys.Text, vars)
	if err != nil {
		return Pair{}, err
	}
	userText, err := Render(user.Key, user.Text, vars)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		Type:   t,
		System: system,
		User:   userText,
		Hash:   HashText(sys.Hash + user.Hash),
	}, nil
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	return NewResolver(nil)
})

// Defaults renders the embedded prompts for t without overrides.
func Defaults(t ebook.AssetType, vars Vars) (Pair, error) {
	return defaultResolver().Defaults(t, vars)
}
