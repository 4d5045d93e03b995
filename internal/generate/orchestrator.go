// Package generate runs one asset generation: a text call, an optional image
// call derived from the text, and the status updates around them.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/backoff"
	"github.com/jackzampolin/ebookstudio/internal/ebook"
	"github.com/jackzampolin/ebookstudio/internal/llmcall"
	"github.com/jackzampolin/ebookstudio/internal/prompts"
	"github.com/jackzampolin/ebookstudio/internal/providers"
	"github.com/jackzampolin/ebookstudio/internal/store"
)

const (
	// NotConfiguredMessage is shown when no text generator is available.
	NotConfiguredMessage = "Text generation provider is not configured. AI generation cannot proceed."
	// ImageNotConfiguredMessage is shown when an image is needed and no image backend is available.
	ImageNotConfiguredMessage = "Image generation backend is not configured."
	// PromptMissingMessage is stored on the asset when the user prompt is empty.
	PromptMissingMessage = "User prompt missing."
	// PromptMissingBanner is the banner shown when the user prompt is empty.
	PromptMissingBanner = "User prompt is missing for generation."

	// SummaryPlaceholder is replaced with a fresh chapter summary.
	SummaryPlaceholder = "${summary}"
	// ChapterSummaryWords is the target length of an injected chapter summary.
	ChapterSummaryWords = 200
)

var (
	// ErrNotConfigured is returned when no text generator is registered.
	ErrNotConfigured = providers.ErrNotConfigured
	// ErrPromptMissing is returned when the user prompt is empty.
	ErrPromptMissing = errors.New(PromptMissingMessage)
)

// Generators supplies the current providers. *providers.Registry satisfies it.
type Generators interface {
	Text() providers.TextGenerator
	Image() providers.ImageGenerator
}

// Summarizer shortens chapter text for prompt injection.
type Summarizer interface {
	SummarizeIfNeeded(ctx context.Context, text string, desiredWords int) string
}

// Notifier receives the global error banner.
type Notifier interface {
	Error(text string)
	ClearError()
}

// Context is the document or chapter context a generation draws on.
type Context struct {
	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary,omitempty"`
	RawContent string `json:"raw_content,omitempty"`
	Concept    string `json:"concept,omitempty"`
}

// Prompts are the system and user prompts sent to the text generator.
type Prompts struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Request asks for one asset to be generated.
type Request struct {
	Ref     store.Ref `json:"ref"`
	Context Context   `json:"context"`
	Prompts Prompts   `json:"prompts"`
}

// Config configures an Orchestrator.
type Config struct {
	Store      *store.Store
	Generators Generators
	Summarizer Summarizer
	Notifier   Notifier
	Recorder   *llmcall.Recorder
	Policy     backoff.Policy
	Logger     *slog.Logger
}

// Orchestrator generates assets.
type Orchestrator struct {
	store      *store.Store
	generators Generators
	summarizer Summarizer
	notifier   Notifier
	recorder   *llmcall.Recorder
	policy     backoff.Policy
	logger     *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Policy.Logger == nil {
		cfg.Policy.Logger = cfg.Logger
	}
	return &Orchestrator{
		store:      cfg.Store,
		generators: cfg.Generators,
		summarizer: cfg.Summarizer,
		notifier:   cfg.Notifier,
		recorder:   cfg.Recorder,
		policy:     cfg.Policy,
		logger:     cfg.Logger,
	}
}

// Generate runs one generation for req.Ref and stores the outcome on the
// asset. The returned error mirrors what was stored: a rejected request, a
// store fault, or the generation failure.
func (o *Orchestrator) Generate(ctx context.Context, req Request) error {
	ref := req.Ref
	logger := o.logger.With("asset_id", ref.ID, "chapter_id", ref.ChapterID, "type", ref.Type)

	text := o.textGenerator()
	if text == nil {
		o.reject(ref, NotConfiguredMessage, NotConfiguredMessage)
		return fmt.Errorf("%w: %s", ErrNotConfigured, NotConfiguredMessage)
	}
	if strings.TrimSpace(req.Prompts.User) == "" {
		o.reject(ref, PromptMissingMessage, PromptMissingBanner)
		return ErrPromptMissing
	}
	handler, err := HandlerFor(ref.Type)
	if err != nil {
		o.reject(ref, err.Error(), err.Error())
		return err
	}

	if _, err := o.store.StartGeneration(ref, req.Prompts.User); err != nil {
		return err
	}
	o.clearError()
	logger.Info("generation started")

	content, url, err := o.run(ctx, req, text, handler, logger)
	if err != nil {
		msg := err.Error()
		if _, ferr := o.store.FailGeneration(ref, msg); ferr != nil {
			logger.Warn("could not record generation failure", "error", ferr)
		}
		o.notifyError(fmt.Sprintf("Failed to generate %s: %s", ref.Type, msg))
		logger.Error("generation failed", "error", err)
		return fmt.Errorf("failed to generate %s: %w", ref.Type, err)
	}

	if _, err := o.store.CompleteGeneration(ref, content, url); err != nil {
		logger.Warn("generation result discarded", "error", err)
		return err
	}
	logger.Info("generation completed", "has_image", url != "")
	return nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, text providers.TextGenerator, h Handler, logger *slog.Logger) (string, string, error) {
	ref := req.Ref
	user := o.injectSummary(ctx, req)

	textReq := &providers.TextRequest{
		Prompt:            user,
		SystemInstruction: req.Prompts.System,
	}
	started := time.Now()
	result, err := backoff.Do(ctx, o.policy, "text", func(ctx context.Context) (*providers.TextResult, error) {
		return text.Generate(ctx, textReq)
	})
	o.recorder.Record(result, err, started, llmcall.RecordOptions{
		AssetID:    ref.ID,
		ChapterID:  ref.ChapterID,
		AssetType:  string(ref.Type),
		PromptKey:  prompts.UserKey(ref.Type),
		PromptHash: prompts.HashText(req.Prompts.System + "\n" + user),
		Provider:   text.Name(),
	})
	if err != nil {
		return "", "", err
	}

	content := strings.TrimSpace(result.Text)
	if err := h.Validate(content); err != nil {
		return "", "", err
	}

	imagePrompt := strings.TrimSpace(h.ImagePrompt(content))
	if imagePrompt == "" {
		if h.RequiresImage() {
			return "", "", ErrNoImagePrompt
		}
		if !ref.Type.IsText() {
			logger.Warn("no text-to-image prompt derived, skipping image generation")
		}
		return content, "", nil
	}

	image := o.imageGenerator()
	if image == nil {
		return "", "", errors.New(ImageNotConfiguredMessage)
	}
	img, err := backoff.Do(ctx, o.policy, "image", func(ctx context.Context) (*providers.ImageResult, error) {
		return image.GenerateImage(ctx, imagePrompt)
	})
	if err != nil {
		return "", "", err
	}
	return content, img.URL, nil
}

// injectSummary fills the summary placeholder of a chapter prompt when the
// caller has raw content but no summary.
func (o *Orchestrator) injectSummary(ctx context.Context, req Request) string {
	user := req.Prompts.User
	c := req.Context
	if req.Ref.ChapterID == "" || c.RawContent == "" || c.Summary != "" || o.summarizer == nil {
		return user
	}
	if !strings.Contains(user, SummaryPlaceholder) && !strings.Contains(user, ebook.AwaitingSummary) {
		return user
	}
	summary := o.summarizer.SummarizeIfNeeded(ctx, c.RawContent, ChapterSummaryWords)
	user = strings.Replace(user, SummaryPlaceholder, summary, 1)
	return strings.Replace(user, ebook.AwaitingSummary, summary, 1)
}

// reject marks the asset as failed before any call was made.
func (o *Orchestrator) reject(ref store.Ref, assetMsg, banner string) {
	o.notifyError(banner)
	if _, err := o.store.MarkError(ref, assetMsg); err != nil {
		o.logger.Warn("could not mark asset error", "asset_id", ref.ID, "error", err)
	}
}

func (o *Orchestrator) textGenerator() providers.TextGenerator {
	if o.generators == nil {
		return nil
	}
	return o.generators.Text()
}

func (o *Orchestrator) imageGenerator() providers.ImageGenerator {
	if o.generators == nil {
		return nil
	}
	return o.generators.Image()
}

func (o *Orchestrator) notifyError(text string) {
	if o.notifier != nil {
		o.notifier.Error(text)
	}
}

func (o *Orchestrator) clearError() {
	if o.notifier != nil {
		o.notifier.ClearError()
	}
}
