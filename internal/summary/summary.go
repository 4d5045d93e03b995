// Package summary shortens chapter text with the text generator and falls
// back to word truncation when the generator is missing or fails.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/jackzampolin/ebookstudio/internal/backoff"
	"github.com/jackzampolin/ebookstudio/internal/ebook"
	"github.com/jackzampolin/ebookstudio/internal/prompts"
	"github.com/jackzampolin/ebookstudio/internal/providers"
)

const (
	// DefaultWords is the summary length used when callers pass zero.
	DefaultWords = 50
	// DefaultCacheTTL is how long an AI summary is reused for identical input.
	DefaultCacheTTL = 30 * time.Minute

	// maxInputRunes caps the text sent to the generator.
	maxInputRunes = 2000
	// shortSlack is how many words over the target still count as short.
	shortSlack = 10
	// fallbackSlack is how many words over the target the fallback keeps.
	fallbackSlack = 20
)

// TextSource returns the current text generator, or nil when none is configured.
// *providers.Registry satisfies it.
type TextSource interface {
	Text() providers.TextGenerator
}

// Config configures a Summarizer.
type Config struct {
	Source   TextSource
	Policy   backoff.Policy
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Summarizer implements SummarizeIfNeeded.
type Summarizer struct {
	source TextSource
	policy backoff.Policy
	cache  *cache.Cache
	group  singleflight.Group
	logger *slog.Logger
}

// New creates a Summarizer.
func New(cfg Config) *Summarizer {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Policy.Logger == nil {
		cfg.Policy.Logger = cfg.Logger
	}
	return &Summarizer{
		source: cfg.Source,
		policy: cfg.Policy,
		cache:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger: cfg.Logger,
	}
}

// SummarizeIfNeeded returns text unchanged when it is already close to
// desiredWords, otherwise an AI summary of about desiredWords words. It never
// fails: a missing or failing generator yields a truncated word list.
func (s *Summarizer) SummarizeIfNeeded(ctx context.Context, text string, desiredWords int) string {
	if strings.TrimSpace(text) == "" {
		return ebook.NoContent
	}
	if desiredWords <= 0 {
		desiredWords = DefaultWords
	}
	if len(strings.Fields(text)) <= desiredWords+shortSlack {
		return text
	}

	key := fmt.Sprintf("%s:%d", prompts.HashText(text), desiredWords)
	if v, ok := s.cache.Get(key); ok {
		return v.(string)
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		out, err := s.summarize(ctx, text, desiredWords)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(key, out)
		return out, nil
	})
	if err != nil {
		s.logger.Warn("AI summarization failed, using truncation", "words", desiredWords, "error", err)
		return Truncate(text, desiredWords+fallbackSlack)
	}
	if shared {
		s.logger.Debug("summary shared with concurrent caller", "words", desiredWords)
	}
	return v.(string)
}

func (s *Summarizer) summarize(ctx context.Context, text string, desiredWords int) (string, error) {
	var gen providers.TextGenerator
	if s.source != nil {
		gen = s.source.Text()
	}
	if gen == nil {
		return "", providers.ErrNotConfigured
	}

	req := &providers.TextRequest{
		Prompt: fmt.Sprintf("Summarize the following text in about %d words: \"%s\"", desiredWords, clip(text, maxInputRunes)),
	}
	result, err := backoff.Do(ctx, s.policy, "text", func(ctx context.Context) (*providers.TextResult, error) {
		return gen.Generate(ctx, req)
	})
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(result.Text)
	if out == "" {
		return "", providers.ErrEmptyResponse
	}
	return out, nil
}

// Truncate keeps the first n words joined by single spaces, adding "..."
// when words were dropped.
func Truncate(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
