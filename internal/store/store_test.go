package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

func testDoc(chapters int) *ebook.Ebook {
	chs := make([]ebook.Chapter, chapters)
	for i := range chs {
		chs[i] = ebook.NewChapter(i+1, fmt.Sprintf("Chapter %d", i+1), "content", "summary")
	}
	return ebook.New("raw", "", "Test Book", "summary", chs)
}

func loaded(chapters int) *Store {
	s := New(nil)
	s.Load(testDoc(chapters))
	return s
}

var coverRef = Ref{ID: ebook.CoverAssetID, Type: ebook.CoverImage}

func ptr[T any](v T) *T { return &v }

func TestApply(t *testing.T) {
	t.Run("does not modify input", func(t *testing.T) {
		doc := testDoc(1)
		ref := Ref{ID: "chapter-1-bg", ChapterID: "chapter-1", Type: ebook.BackgroundImage}

		next, a, err := Apply(doc, ref, func(a *ebook.Asset) error {
			a.Status = ebook.StatusApproved
			return nil
		})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if a.Status != ebook.StatusApproved || next.Chapters[0].BackgroundImage.Status != ebook.StatusApproved {
			t.Error("mutation not applied to result")
		}
		if doc.Chapters[0].BackgroundImage.Status != ebook.StatusIdle {
			t.Error("input document was modified")
		}
	})

	t.Run("forces id and type", func(t *testing.T) {
		next, _, err := Apply(testDoc(0), coverRef, func(a *ebook.Asset) error {
			a.ID = "other"
			a.Type = ebook.Diagram
			return nil
		})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if next.CoverImage.ID != ebook.CoverAssetID || next.CoverImage.Type != ebook.CoverImage {
			t.Errorf("cover identity changed: %+v", next.CoverImage)
		}
	})

	t.Run("faults", func(t *testing.T) {
		tests := []struct {
			name string
			doc  *ebook.Ebook
			ref  Ref
			want error
		}{
			{"no document", nil, coverRef, ErrNoDocument},
			{"cover with chapter", testDoc(1), Ref{ID: "cover", ChapterID: "chapter-1", Type: ebook.CoverImage}, ErrOwnerMismatch},
			{"chapter type without chapter", testDoc(1), Ref{ID: "chapter-1-bg", Type: ebook.BackgroundImage}, ErrOwnerMismatch},
			{"unknown chapter", testDoc(1), Ref{ID: "chapter-9-bg", ChapterID: "chapter-9", Type: ebook.BackgroundImage}, ErrChapterNotFound},
			{"id mismatch", testDoc(1), Ref{ID: "chapter-1-dg", ChapterID: "chapter-1", Type: ebook.BackgroundImage}, ErrAssetMismatch},
			{"cover id mismatch", testDoc(1), Ref{ID: "cov", Type: ebook.CoverImage}, ErrAssetMismatch},
			{"unknown type", testDoc(1), Ref{ID: "chapter-1-bg", ChapterID: "chapter-1", Type: "poster"}, ErrOwnerMismatch},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := Apply(tt.doc, tt.ref, func(*ebook.Asset) error { return nil })
				if !errors.Is(err, tt.want) {
					t.Errorf("Apply() error = %v, want %v", err, tt.want)
				}
				if !errors.Is(err, ErrFault) {
					t.Error("fault should match ErrFault")
				}
			})
		}
	})
}

func TestUpdateAsset(t *testing.T) {
	t.Run("cover update touches only the cover", func(t *testing.T) {
		s := loaded(2)
		before := s.Snapshot()

		if _, err := s.UpdateAsset(coverRef, Fields{Status: ptr(ebook.StatusApproved)}); err != nil {
			t.Fatalf("UpdateAsset() error = %v", err)
		}
		after := s.Snapshot()
		if after.CoverImage.Status != ebook.StatusApproved {
			t.Errorf("cover status = %s, want approved", after.CoverImage.Status)
		}
		for i := range before.Chapters {
			if after.Chapters[i] != before.Chapters[i] {
				t.Errorf("chapter %d changed", i)
			}
		}
	})

	t.Run("fault leaves document unchanged", func(t *testing.T) {
		s := loaded(1)
		before := s.Snapshot()
		v := s.Version()

		_, err := s.UpdateAsset(Ref{ID: "cover", ChapterID: "chapter-1", Type: ebook.CoverImage}, Fields{Status: ptr(ebook.StatusApproved)})
		if !errors.Is(err, ErrOwnerMismatch) {
			t.Fatalf("error = %v, want ErrOwnerMismatch", err)
		}
		after := s.Snapshot()
		if after.CoverImage != before.CoverImage || after.Chapters[0] != before.Chapters[0] {
			t.Error("document changed after fault")
		}
		if s.Version() != v {
			t.Errorf("Version() = %d, want %d", s.Version(), v)
		}
	})

	t.Run("nil fields unchanged", func(t *testing.T) {
		s := loaded(0)
		s.UpdateAsset(coverRef, Fields{AIPrompt: ptr("p"), FinalURL: ptr("u")})
		a, _ := s.UpdateAsset(coverRef, Fields{Error: ptr("e")})
		if a.AIPrompt != "p" || a.FinalURL != "u" || a.Error != "e" {
			t.Errorf("merge lost fields: %+v", a)
		}
	})

	t.Run("no document", func(t *testing.T) {
		s := New(nil)
		if _, err := s.UpdateAsset(coverRef, Fields{}); !errors.Is(err, ErrNoDocument) {
			t.Errorf("error = %v, want ErrNoDocument", err)
		}
	})
}

func TestLifecycle(t *testing.T) {
	ref := Ref{ID: "chapter-1-dg", ChapterID: "chapter-1", Type: ebook.Diagram}

	t.Run("generate then approve", func(t *testing.T) {
		s := loaded(1)

		a, err := s.StartGeneration(ref, "draw it")
		if err != nil {
			t.Fatalf("StartGeneration() error = %v", err)
		}
		if a.Status != ebook.StatusGenerating || a.AIPrompt != "draw it" {
			t.Errorf("after start: %+v", a)
		}

		a, err = s.CompleteGeneration(ref, "text", "data:image/png;base64,AA==")
		if err != nil {
			t.Fatalf("CompleteGeneration() error = %v", err)
		}
		if a.Status != ebook.StatusGenerated {
			t.Errorf("status = %s, want generated", a.Status)
		}
		if a.FinalContent != "text" || a.FinalURL != a.AIGeneratedURL {
			t.Errorf("AI slot not mirrored to final: %+v", a)
		}

		a, err = s.Approve(ref)
		if err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if a.Status != ebook.StatusApproved || a.FinalURL != a.AIGeneratedURL || a.FinalContent != a.AIGeneratedContent {
			t.Errorf("after approve: %+v", a)
		}
	})

	t.Run("failure keeps previous AI output", func(t *testing.T) {
		s := loaded(1)
		s.StartGeneration(ref, "p1")
		s.CompleteGeneration(ref, "first", "url1")
		s.StartGeneration(ref, "p2")

		a, err := s.FailGeneration(ref, "boom")
		if err != nil {
			t.Fatalf("FailGeneration() error = %v", err)
		}
		if a.Status != ebook.StatusError || a.Error != "boom" {
			t.Errorf("after fail: %+v", a)
		}
		if a.AIGeneratedContent != "first" || a.AIGeneratedURL != "url1" {
			t.Errorf("AI slot changed on failure: %+v", a)
		}

		// retry from error is allowed
		if _, err := s.StartGeneration(ref, "p3"); err != nil {
			t.Errorf("StartGeneration() from error: %v", err)
		}
	})

	t.Run("upload preferred on approve", func(t *testing.T) {
		s := loaded(1)
		s.StartGeneration(ref, "p")
		s.CompleteGeneration(ref, "ai", "ai-url")

		a, err := s.Upload(ref, UploadedFile{Name: "d.png", URL: "data:image/png;base64,BB=="})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if a.Status != ebook.StatusUserUploaded || a.AIPrompt != UploadedAIPrompt {
			t.Errorf("after upload: %+v", a)
		}
		if a.AIGeneratedURL != "" || a.AIGeneratedContent != "" {
			t.Error("upload should clear the AI slot")
		}

		a, err = s.Approve(ref)
		if err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if a.FinalURL != "data:image/png;base64,BB==" {
			t.Errorf("FinalURL = %q, want uploaded url", a.FinalURL)
		}
	})

	t.Run("text upload sets content only", func(t *testing.T) {
		s := loaded(1)
		q := Ref{ID: "chapter-1-mq", ChapterID: "chapter-1", Type: ebook.MotivationalQuote}
		a, err := s.Upload(q, UploadedFile{Name: "q.txt", Content: "Keep going."})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if a.FinalContent != "Keep going." || a.FinalURL != "" || a.UserUploadedURL != "" {
			t.Errorf("text upload: %+v", a)
		}
	})

	t.Run("upload during generation wins", func(t *testing.T) {
		s := loaded(1)
		s.StartGeneration(ref, "p")
		if _, err := s.Upload(ref, UploadedFile{Name: "x.png", URL: "u"}); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if _, err := s.CompleteGeneration(ref, "late", "late-url"); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("CompleteGeneration() error = %v, want ErrInvalidTransition", err)
		}
		a, _ := s.Asset(ref)
		if a.FinalURL != "u" {
			t.Errorf("late completion overwrote upload: %+v", a)
		}
	})

	t.Run("invalid transitions", func(t *testing.T) {
		s := loaded(1)
		if _, err := s.Approve(ref); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Approve() from idle error = %v", err)
		}
		if _, err := s.CompleteGeneration(ref, "x", ""); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("CompleteGeneration() from idle error = %v", err)
		}
		if _, err := s.FailGeneration(ref, "x"); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("FailGeneration() from idle error = %v", err)
		}
		s.StartGeneration(ref, "p")
		if _, err := s.StartGeneration(ref, "p"); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("StartGeneration() twice error = %v", err)
		}
		s.CompleteGeneration(ref, "x", "")
		s.Approve(ref)
		if _, err := s.Upload(ref, UploadedFile{Name: "f"}); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Upload() on approved error = %v", err)
		}
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		s := loaded(1)
		s.StartGeneration(ref, "p")
		s.CompleteGeneration(ref, "x", "u")
		s.Approve(ref)

		for i := 0; i < 2; i++ {
			a, err := s.Clear(ref)
			if err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if a != ebook.NewAsset(ref.ID, ref.Type) {
				t.Errorf("Clear() = %+v, want fresh asset", a)
			}
		}
	})

	t.Run("mark error", func(t *testing.T) {
		s := loaded(0)
		a, err := s.MarkError(coverRef, "User prompt missing.")
		if err != nil {
			t.Fatalf("MarkError() error = %v", err)
		}
		if a.Status != ebook.StatusError || a.Error != "User prompt missing." {
			t.Errorf("after MarkError: %+v", a)
		}
	})

	t.Run("mark error keeps accepted assets", func(t *testing.T) {
		s := loaded(0)
		if _, err := s.Upload(coverRef, UploadedFile{Name: "c.png", URL: "data:image/png;base64,CC=="}); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if _, err := s.MarkError(coverRef, "User prompt missing."); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("MarkError() on uploaded error = %v, want ErrInvalidTransition", err)
		}
		if _, err := s.Approve(coverRef); err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if _, err := s.MarkError(coverRef, "User prompt missing."); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("MarkError() on approved error = %v, want ErrInvalidTransition", err)
		}
		a, _ := s.Asset(coverRef)
		if a.Status != ebook.StatusApproved || a.FinalURL != "data:image/png;base64,CC==" {
			t.Errorf("approved asset changed: %+v", a)
		}
	})
}

func TestConcurrentUpdates(t *testing.T) {
	const chapters = 20
	s := loaded(chapters)

	var wg sync.WaitGroup
	for i := 1; i <= chapters; i++ {
		for _, typ := range ebook.ChapterAssetTypes() {
			chID := ebook.ChapterID(i)
			ch, _ := testDoc(chapters).Chapter(chID)
			a, _ := ch.Asset(typ)
			ref := Ref{ID: a.ID, ChapterID: chID, Type: typ}

			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.StartGeneration(ref, "p"); err != nil {
					t.Errorf("StartGeneration(%s) error = %v", ref, err)
					return
				}
				if _, err := s.CompleteGeneration(ref, ref.ID, ""); err != nil {
					t.Errorf("CompleteGeneration(%s) error = %v", ref, err)
				}
			}()
		}
	}
	wg.Wait()

	doc := s.Snapshot()
	for _, ch := range doc.Chapters {
		for _, typ := range ebook.ChapterAssetTypes() {
			a, _ := ch.Asset(typ)
			if a.Status != ebook.StatusGenerated || a.FinalContent != a.ID {
				t.Errorf("lost update on %s: %+v", a.ID, a)
			}
		}
	}
	if want := uint64(1 + 2*chapters*len(ebook.ChapterAssetTypes())); s.Version() != want {
		t.Errorf("Version() = %d, want %d", s.Version(), want)
	}
}

func TestLoadReset(t *testing.T) {
	s := New(nil)
	if s.Loaded() || s.Snapshot() != nil {
		t.Error("new store should be empty")
	}
	doc := testDoc(1)
	s.Load(doc)
	doc.Title = "mutated"
	if s.Snapshot().Title != "Test Book" {
		t.Error("Load() should copy the document")
	}
	s.Reset()
	if s.Loaded() {
		t.Error("Reset() should drop the document")
	}
}
