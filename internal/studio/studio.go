// Package studio is the authoring session: it owns the current document, the
// wizard phase and the banners, and routes every user action to the store
// and the generation orchestrator.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
	"github.com/jackzampolin/ebookstudio/internal/export"
	"github.com/jackzampolin/ebookstudio/internal/generate"
	"github.com/jackzampolin/ebookstudio/internal/notify"
	"github.com/jackzampolin/ebookstudio/internal/prompts"
	"github.com/jackzampolin/ebookstudio/internal/segment"
	"github.com/jackzampolin/ebookstudio/internal/store"
	"github.com/jackzampolin/ebookstudio/internal/upload"
	"github.com/jackzampolin/ebookstudio/internal/wizard"
)

const (
	SubmittedMessage = "eBook content processed successfully!"
	ResetMessage     = "eBook project has been reset."
	EmptyContentText = "eBook content cannot be empty."
)

// ErrEmptyContent is returned by Submit for blank manuscript text.
var ErrEmptyContent = errors.New(EmptyContentText)

// Config configures a Studio.
type Config struct {
	Store        *store.Store
	Orchestrator *generate.Orchestrator
	Notifier     *notify.Notifier
	Prompts      *prompts.Resolver
	Decoder      *upload.Decoder
	Logger       *slog.Logger
}

// Studio is one authoring session.
type Studio struct {
	store        *store.Store
	orchestrator *generate.Orchestrator
	notifier     *notify.Notifier
	prompts      *prompts.Resolver
	decoder      *upload.Decoder
	logger       *slog.Logger

	mu    sync.RWMutex
	phase wizard.Phase
}

// New creates a Studio. Missing collaborators get defaults, except the
// orchestrator, without which Generate fails.
func New(cfg Config) *Studio {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Store == nil {
		cfg.Store = store.New(cfg.Logger)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.New(notify.Config{})
	}
	if cfg.Prompts == nil {
		cfg.Prompts = prompts.NewResolver(cfg.Logger)
	}
	if cfg.Decoder == nil {
		cfg.Decoder = upload.NewDecoder(upload.DefaultMaxBytes)
	}
	return &Studio{
		store:        cfg.Store,
		orchestrator: cfg.Orchestrator,
		notifier:     cfg.Notifier,
		prompts:      cfg.Prompts,
		decoder:      cfg.Decoder,
		logger:       cfg.Logger,
		phase:        wizard.DocumentInput,
	}
}

// Store returns the underlying asset store.
func (s *Studio) Store() *store.Store { return s.store }

// Notifier returns the banner notifier.
func (s *Studio) Notifier() *notify.Notifier { return s.notifier }

// Prompts returns the prompt resolver.
func (s *Studio) Prompts() *prompts.Resolver { return s.prompts }

// Submit segments the manuscript, loads it as the current document and
// moves to the cover phase.
func (s *Studio) Submit(rawText, rawToc string) (*ebook.Ebook, error) {
	if strings.TrimSpace(rawText) == "" {
		s.notifier.Error(EmptyContentText)
		return nil, ErrEmptyContent
	}
	s.notifier.ClearError()

	doc := segment.Segment(rawText, rawToc).Ebook(rawText, rawToc)
	s.store.Load(doc)
	s.setPhase(wizard.CoverDesign)
	s.notifier.Message(SubmittedMessage)
	s.logger.Info("document loaded", "title", doc.Title, "chapters", len(doc.Chapters))
	return s.store.Snapshot(), nil
}

// Reset drops the document and returns to the first phase.
func (s *Studio) Reset() {
	s.store.Reset()
	s.setPhase(wizard.DocumentInput)
	s.notifier.ClearError()
	s.notifier.Message(ResetMessage)
	s.logger.Info("document reset")
}

// Snapshot returns a copy of the current document, or nil.
func (s *Studio) Snapshot() *ebook.Ebook {
	return s.store.Snapshot()
}

// Ref builds the asset key for a chapter asset, or the cover when chapterID
// is empty.
func (s *Studio) Ref(chapterID string, t ebook.AssetType) (store.Ref, error) {
	if !t.Valid() {
		return store.Ref{}, fmt.Errorf("%w: %q", generate.ErrUnsupportedType, t)
	}
	doc := s.store.Snapshot()
	if doc == nil {
		return store.Ref{}, store.ErrNoDocument
	}
	if t == ebook.CoverImage {
		return store.Ref{ID: doc.CoverImage.ID, Type: t}, nil
	}
	ch, ok := doc.Chapter(chapterID)
	if !ok {
		return store.Ref{}, fmt.Errorf("%w: %q", store.ErrChapterNotFound, chapterID)
	}
	a, _ := ch.Asset(t)
	return store.Ref{ID: a.ID, ChapterID: ch.ID, Type: t}, nil
}

// DefaultContext returns the generation context the document provides for ref.
func (s *Studio) DefaultContext(ref store.Ref) (generate.Context, error) {
	doc := s.store.Snapshot()
	if doc == nil {
		return generate.Context{}, store.ErrNoDocument
	}
	if ref.ChapterID == "" {
		return generate.Context{Title: doc.Title, Summary: doc.Summary}, nil
	}
	ch, ok := doc.Chapter(ref.ChapterID)
	if !ok {
		return generate.Context{}, fmt.Errorf("%w: %q", store.ErrChapterNotFound, ref.ChapterID)
	}
	return generate.Context{Title: ch.Title, Summary: ch.ContentSummary, RawContent: ch.RawContent}, nil
}

// DefaultPrompts renders the default prompts for ref with its document context.
func (s *Studio) DefaultPrompts(ref store.Ref) (prompts.Pair, error) {
	c, err := s.DefaultContext(ref)
	if err != nil {
		return prompts.Pair{}, err
	}
	return s.prompts.Defaults(ref.Type, prompts.Vars{Title: c.Title, Summary: c.Summary})
}

// Generate runs one generation. An empty context is filled from the document.
// Once dispatched the generation runs to completion even if ctx is canceled;
// only ctx values (request id, logger) carry over.
func (s *Studio) Generate(ctx context.Context, req generate.Request) error {
	ctx = context.WithoutCancel(ctx)
	if s.orchestrator == nil {
		return generate.ErrNotConfigured
	}
	if req.Context == (generate.Context{}) {
		if c, err := s.DefaultContext(req.Ref); err == nil {
			req.Context = c
		}
	}
	return s.orchestrator.Generate(ctx, req)
}

// Approve accepts the asset and announces which slot became final.
func (s *Studio) Approve(ref store.Ref) (ebook.Asset, error) {
	before, err := s.store.Asset(ref)
	if err != nil {
		return ebook.Asset{}, err
	}
	a, err := s.store.Approve(ref)
	if err != nil {
		return a, err
	}
	if before.Status == ebook.StatusUserUploaded {
		s.notifier.Message(fmt.Sprintf("%s (user uploaded) confirmed as final.", ref.Type.Label()))
	} else {
		s.notifier.Message(fmt.Sprintf("%s approved successfully!", ref.Type.Label()))
	}
	return a, nil
}

// Upload decodes a user file and stores it on the asset. An unsupported
// file shows an error banner and leaves the asset untouched.
func (s *Studio) Upload(ref store.Ref, name, contentType string, data []byte) (ebook.Asset, error) {
	f, err := s.decoder.Decode(name, contentType, data)
	if err != nil {
		s.notifier.Error(err.Error())
		return ebook.Asset{}, err
	}
	a, err := s.store.Upload(ref, store.UploadedFile{Name: f.Name, URL: f.URL, Content: f.Content})
	if err != nil {
		return a, err
	}
	s.notifier.Message(fmt.Sprintf("%s uploaded successfully!", ref.Type.Label()))
	return a, nil
}

// Clear resets the asset to idle.
func (s *Studio) Clear(ref store.Ref) (ebook.Asset, error) {
	a, err := s.store.Clear(ref)
	if err != nil {
		return a, err
	}
	msg := fmt.Sprintf("%s has been cleared.", ref.Type.Label())
	if ref.ChapterID != "" {
		if doc := s.store.Snapshot(); doc != nil {
			if ch, ok := doc.Chapter(ref.ChapterID); ok {
				msg = fmt.Sprintf("%s for chapter \"%s\" has been cleared.", ref.Type.Label(), ch.Title)
			}
		}
	}
	s.notifier.Message(msg)
	return a, nil
}

// Phase returns the current wizard phase.
func (s *Studio) Phase() wizard.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// PhaseStatus describes the current phase.
func (s *Studio) PhaseStatus() wizard.Status {
	return wizard.Describe(s.store.Snapshot(), s.Phase())
}

// CanProceed reports whether the current phase is complete.
func (s *Studio) CanProceed() bool {
	return wizard.CanProceed(s.store.Snapshot(), s.Phase())
}

// Next advances when the current phase is complete.
func (s *Studio) Next() (wizard.Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := wizard.Next(s.store.Snapshot(), s.phase)
	if err != nil {
		return s.phase, err
	}
	s.phase = next
	return next, nil
}

// Prev goes back one phase.
func (s *Studio) Prev() wizard.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = wizard.Prev(s.phase)
	return s.phase
}

func (s *Studio) setPhase(p wizard.Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// Export returns the validated JSON export of the current document.
func (s *Studio) Export() ([]byte, error) {
	doc := s.store.Snapshot()
	if doc == nil {
		return nil, export.ErrNoDocument
	}
	return export.Export(doc)
}

// ExportFile writes the export into dir and returns its path.
func (s *Studio) ExportFile(dir string) (string, error) {
	doc := s.store.Snapshot()
	if doc == nil {
		return "", export.ErrNoDocument
	}
	path, err := export.WriteFile(dir, doc, time.Now())
	if err != nil {
		return "", err
	}
	s.logger.Info("document exported", "path", path)
	return path, nil
}

// Banners returns the live notifications.
func (s *Studio) Banners() notify.Banners {
	return s.notifier.Current()
}
