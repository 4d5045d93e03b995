// Package store holds the single ebook aggregate and applies asset updates
// one at a time.
//
// Every write goes through Apply, which locates the asset by its composite
// key, runs a mutation on a copy and returns a new snapshot. The Store
// serializes calls to Apply behind one mutex, so concurrent completions on
// distinct assets never lose updates.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

var (
	// ErrFault matches every store-consistency fault.
	ErrFault = errors.New("store fault")

	ErrNoDocument      = fmt.Errorf("%w: no document loaded", ErrFault)
	ErrChapterNotFound = fmt.Errorf("%w: chapter not found", ErrFault)
	ErrOwnerMismatch   = fmt.Errorf("%w: asset owner does not match asset type", ErrFault)
	ErrAssetMismatch   = fmt.Errorf("%w: asset not found", ErrFault)

	// ErrInvalidTransition is returned when the current status does not allow the change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Ref is the composite key of an asset. ChapterID is empty for the cover.
type Ref struct {
	ID        string          `json:"asset_id"`
	ChapterID string          `json:"chapter_id,omitempty"`
	Type      ebook.AssetType `json:"type" validate:"required"`
}

func (r Ref) String() string {
	if r.ChapterID == "" {
		return fmt.Sprintf("%s(%s)", r.ID, r.Type)
	}
	return fmt.Sprintf("%s/%s(%s)", r.ChapterID, r.ID, r.Type)
}

// Mutation edits an asset copy. Returning an error aborts the write.
type Mutation func(a *ebook.Asset) error

// Apply locates ref in doc, runs mutate on a copy of the asset and returns a
// new document containing the result. doc is never modified.
func Apply(doc *ebook.Ebook, ref Ref, mutate Mutation) (*ebook.Ebook, ebook.Asset, error) {
	if doc == nil {
		return nil, ebook.Asset{}, ErrNoDocument
	}

	if ref.Type == ebook.CoverImage {
		if ref.ChapterID != "" {
			return nil, ebook.Asset{}, fmt.Errorf("%w: %s has chapter %q", ErrOwnerMismatch, ref.Type, ref.ChapterID)
		}
		a := doc.CoverImage
		if a.ID != ref.ID {
			return nil, ebook.Asset{}, fmt.Errorf("%w: cover id is %q, got %q", ErrAssetMismatch, a.ID, ref.ID)
		}
		if err := mutate(&a); err != nil {
			return nil, ebook.Asset{}, err
		}
		a.ID, a.Type = ref.ID, ref.Type
		out := doc.Clone()
		out.CoverImage = a
		return out, a, nil
	}

	if ref.ChapterID == "" {
		return nil, ebook.Asset{}, fmt.Errorf("%w: %s requires a chapter", ErrOwnerMismatch, ref.Type)
	}
	i := doc.ChapterIndex(ref.ChapterID)
	if i < 0 {
		return nil, ebook.Asset{}, fmt.Errorf("%w: %s", ErrChapterNotFound, ref.ChapterID)
	}
	ch := doc.Chapters[i]
	a, ok := ch.Asset(ref.Type)
	if !ok {
		return nil, ebook.Asset{}, fmt.Errorf("%w: unknown asset type %q", ErrOwnerMismatch, ref.Type)
	}
	if a.ID != ref.ID {
		return nil, ebook.Asset{}, fmt.Errorf("%w: %s %s is %q, got %q", ErrAssetMismatch, ref.ChapterID, ref.Type, a.ID, ref.ID)
	}
	if err := mutate(&a); err != nil {
		return nil, ebook.Asset{}, err
	}
	a.ID, a.Type = ref.ID, ref.Type

	ch, _ = ch.WithAsset(a)
	out := doc.Clone()
	out.Chapters[i] = ch
	return out, a, nil
}

// Store is the single writer of the ebook aggregate.
type Store struct {
	mu      sync.RWMutex
	doc     *ebook.Ebook
	version uint64
	logger  *slog.Logger
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Load replaces the aggregate wholesale.
func (s *Store) Load(doc *ebook.Ebook) {
	if doc == nil {
		s.Reset()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.version++
	s.logger.Info("document loaded", "title", doc.Title, "chapters", len(doc.Chapters))
}

// Reset drops the aggregate.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
	s.version++
	s.logger.Info("document reset")
}

// Snapshot returns a copy of the current aggregate, or nil.
func (s *Store) Snapshot() *ebook.Ebook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Loaded reports whether a document is present.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

// Version increments on every committed write.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Asset returns the current value of the asset at ref.
func (s *Store) Asset(ref Ref) (ebook.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, a, err := Apply(s.doc, ref, func(*ebook.Asset) error { return nil })
	return a, err
}

// Update applies mutate to the asset at ref and commits the result. Faults
// are logged and the document is left unchanged.
func (s *Store) Update(ref Ref, mutate Mutation) (ebook.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, a, err := Apply(s.doc, ref, mutate)
	if err != nil {
		if errors.Is(err, ErrFault) {
			s.logger.Error("asset update dropped", "ref", ref.String(), "error", err)
		}
		return ebook.Asset{}, err
	}
	s.doc = next
	s.version++
	return a, nil
}

// Fields is a partial asset update. Nil fields are left unchanged.
type Fields struct {
	Status              *ebook.AssetStatus `json:"status,omitempty"`
	AIPrompt            *string            `json:"aiPrompt,omitempty"`
	AIGeneratedURL      *string            `json:"aiGeneratedUrl,omitempty"`
	AIGeneratedContent  *string            `json:"aiGeneratedContent,omitempty"`
	UserUploadedFile    *string            `json:"userUploadedFile,omitempty"`
	UserUploadedURL     *string            `json:"userUploadedUrl,omitempty"`
	UserUploadedContent *string            `json:"userUploadedContent,omitempty"`
	FinalURL            *string            `json:"finalUrl,omitempty"`
	FinalContent        *string            `json:"finalContent,omitempty"`
	Error               *string            `json:"error,omitempty"`
}

// Merge copies the set fields onto a.
func (f Fields) Merge(a *ebook.Asset) {
	if f.Status != nil {
		a.Status = *f.Status
	}
	set(&a.AIPrompt, f.AIPrompt)
	set(&a.AIGeneratedURL, f.AIGeneratedURL)
	set(&a.AIGeneratedContent, f.AIGeneratedContent)
	set(&a.UserUploadedFile, f.UserUploadedFile)
	set(&a.UserUploadedURL, f.UserUploadedURL)
	set(&a.UserUploadedContent, f.UserUploadedContent)
	set(&a.FinalURL, f.FinalURL)
	set(&a.FinalContent, f.FinalContent)
	set(&a.Error, f.Error)
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// UpdateAsset merges fields into the asset at ref without status checks.
func (s *Store) UpdateAsset(ref Ref, fields Fields) (ebook.Asset, error) {
	return s.Update(ref, func(a *ebook.Asset) error {
		fields.Merge(a)
		return nil
	})
}
