package studio

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/backoff"
	"github.com/jackzampolin/ebookstudio/internal/ebook"
	"github.com/jackzampolin/ebookstudio/internal/generate"
	"github.com/jackzampolin/ebookstudio/internal/notify"
	"github.com/jackzampolin/ebookstudio/internal/providers"
	"github.com/jackzampolin/ebookstudio/internal/store"
	"github.com/jackzampolin/ebookstudio/internal/upload"
	"github.com/jackzampolin/ebookstudio/internal/wizard"
)

const (
	testText = "Fit Body\nChapter 1: Strength\nLift heavy things.\nChapter 2: Rest\nSleep well."
	testToc  = "Fit Body\nChapter 1: Strength\nChapter 2: Rest"
)

type fixture struct {
	studio *Studio
	text   *providers.MockTextGenerator
	image  *providers.MockImageGenerator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := providers.NewRegistry()
	text := providers.NewMockTextGenerator()
	image := providers.NewMockImageGenerator()
	reg.RegisterText("mock", text)
	reg.SetImage(image)

	st := store.New(nil)
	n := notify.New(notify.Config{})
	orch := generate.New(generate.Config{
		Store:      st,
		Generators: reg,
		Notifier:   n,
		Policy:     backoff.Policy{MaxRetries: 0},
	})
	s := New(Config{Store: st, Orchestrator: orch, Notifier: n})
	return &fixture{studio: s, text: text, image: image}
}

func (f *fixture) submit(t *testing.T) *ebook.Ebook {
	t.Helper()
	doc, err := f.studio.Submit(testText, testToc)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return doc
}

func message(s *Studio) string {
	if b := s.Banners().Message; b != nil {
		return b.Text
	}
	return ""
}

func errorBanner(s *Studio) string {
	if b := s.Banners().Error; b != nil {
		return b.Text
	}
	return ""
}

func TestSubmit(t *testing.T) {
	t.Run("blank text rejected", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.studio.Submit("  \n", ""); !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("Submit() error = %v, want ErrEmptyContent", err)
		}
		if f.studio.Snapshot() != nil {
			t.Error("no document should be loaded")
		}
		if f.studio.Phase() != wizard.DocumentInput {
			t.Errorf("Phase() = %s", f.studio.Phase())
		}
	})

	t.Run("loads document", func(t *testing.T) {
		f := newFixture(t)
		doc := f.submit(t)
		if doc.Title != "Fit Body" || len(doc.Chapters) != 2 {
			t.Fatalf("doc = %q with %d chapters", doc.Title, len(doc.Chapters))
		}
		if doc.CoverImage.ID != ebook.CoverAssetID || doc.CoverImage.Status != ebook.StatusIdle {
			t.Errorf("cover = %+v", doc.CoverImage)
		}
		if f.studio.Phase() != wizard.CoverDesign {
			t.Errorf("Phase() = %s, want COVER_DESIGN", f.studio.Phase())
		}
		if got := message(f.studio); got != SubmittedMessage {
			t.Errorf("message = %q", got)
		}
	})
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.submit(t)
	f.studio.Notifier().Error("boom")

	f.studio.Reset()
	if f.studio.Snapshot() != nil {
		t.Error("document should be dropped")
	}
	if f.studio.Phase() != wizard.DocumentInput {
		t.Errorf("Phase() = %s", f.studio.Phase())
	}
	if errorBanner(f.studio) != "" {
		t.Error("error banner should be cleared")
	}
	if got := message(f.studio); got != ResetMessage {
		t.Errorf("message = %q", got)
	}
}

func TestRefAndDefaults(t *testing.T) {
	f := newFixture(t)

	if _, err := f.studio.Ref("chapter-1", ebook.Diagram); !errors.Is(err, store.ErrNoDocument) {
		t.Errorf("Ref() before submit error = %v", err)
	}

	f.submit(t)

	ref, err := f.studio.Ref("chapter-2", ebook.Diagram)
	if err != nil {
		t.Fatalf("Ref() error = %v", err)
	}
	if ref.ID != "chapter-2-dg" || ref.ChapterID != "chapter-2" {
		t.Errorf("Ref() = %+v", ref)
	}
	if _, err := f.studio.Ref("chapter-9", ebook.Diagram); !errors.Is(err, store.ErrChapterNotFound) {
		t.Errorf("Ref() unknown chapter error = %v", err)
	}
	if _, err := f.studio.Ref("", ebook.AssetType("poster")); err == nil {
		t.Error("Ref() should reject unknown types")
	}

	cover, _ := f.studio.Ref("", ebook.CoverImage)
	pair, err := f.studio.DefaultPrompts(cover)
	if err != nil {
		t.Fatalf("DefaultPrompts() error = %v", err)
	}
	if !strings.Contains(pair.User, "Fit Body") {
		t.Errorf("cover prompt missing title: %q", pair.User)
	}

	pair, err = f.studio.DefaultPrompts(ref)
	if err != nil {
		t.Fatalf("DefaultPrompts() error = %v", err)
	}
	if !strings.Contains(pair.User, "Rest") {
		t.Errorf("chapter prompt missing title: %q", pair.User)
	}
}

func TestAssetActions(t *testing.T) {
	ctx := context.Background()

	t.Run("generate then approve", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		ref, _ := f.studio.Ref("chapter-1", ebook.BackgroundImage)

		err := f.studio.Generate(ctx, generate.Request{Ref: ref, Prompts: generate.Prompts{User: "draw"}})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		a, err := f.studio.Approve(ref)
		if err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if a.Status != ebook.StatusApproved || a.FinalURL != providers.MockImageURL {
			t.Errorf("approved asset = %+v", a)
		}
		if got := message(f.studio); got != "Background Image approved successfully!" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("approve idle is invalid", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		ref, _ := f.studio.Ref("", ebook.CoverImage)
		if _, err := f.studio.Approve(ref); !errors.Is(err, store.ErrInvalidTransition) {
			t.Errorf("Approve() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("upload then approve", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		ref, _ := f.studio.Ref("chapter-1", ebook.MotivationalQuote)

		a, err := f.studio.Upload(ref, "quote.txt", "text/plain", []byte("Keep going."))
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if a.Status != ebook.StatusUserUploaded || a.FinalContent != "Keep going." {
			t.Errorf("uploaded asset = %+v", a)
		}
		if got := message(f.studio); got != "Motivational Quote uploaded successfully!" {
			t.Errorf("message = %q", got)
		}

		if _, err := f.studio.Approve(ref); err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if got := message(f.studio); got != "Motivational Quote (user uploaded) confirmed as final." {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("unsupported upload leaves asset", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		ref, _ := f.studio.Ref("chapter-1", ebook.Diagram)

		_, err := f.studio.Upload(ref, "doc.pdf", "application/pdf", []byte("%PDF-1.4"))
		if !errors.Is(err, upload.ErrUnsupportedType) {
			t.Fatalf("Upload() error = %v, want ErrUnsupportedType", err)
		}
		if !strings.HasPrefix(errorBanner(f.studio), "Unsupported file type: application/pdf") {
			t.Errorf("error banner = %q", errorBanner(f.studio))
		}
		a, _ := f.studio.Store().Asset(ref)
		if a.Status != ebook.StatusIdle {
			t.Errorf("asset status = %s, want idle", a.Status)
		}
	})

	t.Run("clear messages", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)

		ref, _ := f.studio.Ref("chapter-2", ebook.ChartInfographic)
		if _, err := f.studio.Clear(ref); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if got := message(f.studio); got != `Chart Infographic for chapter "Rest" has been cleared.` {
			t.Errorf("message = %q", got)
		}

		cover, _ := f.studio.Ref("", ebook.CoverImage)
		if _, err := f.studio.Clear(cover); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if got := message(f.studio); got != "Cover Image has been cleared." {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		s := New(Config{})
		if err := s.Generate(ctx, generate.Request{}); !errors.Is(err, generate.ErrNotConfigured) {
			t.Errorf("Generate() error = %v, want ErrNotConfigured", err)
		}
	})
}

func TestNavigation(t *testing.T) {
	f := newFixture(t)
	f.submit(t)

	if _, err := f.studio.Next(); !errors.Is(err, wizard.ErrGated) {
		t.Fatalf("Next() error = %v, want ErrGated", err)
	}
	if f.studio.CanProceed() {
		t.Error("CanProceed() = true with idle cover")
	}

	cover, _ := f.studio.Ref("", ebook.CoverImage)
	if _, err := f.studio.Upload(cover, "cover.png", "image/png", []byte("\x89PNG\r\n\x1a\n")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	next, err := f.studio.Next()
	if err != nil || next != wizard.BackgroundImages {
		t.Fatalf("Next() = %s, %v", next, err)
	}
	if st := f.studio.PhaseStatus(); st.Step != 3 || st.CanProceed {
		t.Errorf("PhaseStatus() = %+v", st)
	}

	if p := f.studio.Prev(); p != wizard.CoverDesign {
		t.Errorf("Prev() = %s", p)
	}
	f.studio.Prev()
	if p := f.studio.Prev(); p != wizard.DocumentInput {
		t.Errorf("Prev() at start = %s", p)
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	if _, err := f.studio.Export(); err == nil {
		t.Error("Export() without document should fail")
	}

	f.submit(t)
	data, err := f.studio.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	var doc ebook.Ebook
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc.Title != "Fit Body" {
		t.Errorf("exported title = %q", doc.Title)
	}

	path, err := f.studio.ExportFile(t.TempDir())
	if err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestGenerateOutlivesCaller(t *testing.T) {
	f := newFixture(t)
	f.submit(t)
	f.text.Latency = 200 * time.Millisecond
	ref, _ := f.studio.Ref("", ebook.CoverImage)

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(20*time.Millisecond, cancel)
	defer timer.Stop()

	err := f.studio.Generate(ctx, generate.Request{Ref: ref, Prompts: generate.Prompts{User: "draw a cover"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("caller context was not canceled during generation")
	}

	a, err := f.studio.Store().Asset(ref)
	if err != nil {
		t.Fatalf("Asset() error = %v", err)
	}
	if a.Status != ebook.StatusGenerated || a.AIGeneratedURL != providers.MockImageURL || a.Error != "" {
		t.Errorf("asset = %+v, want generated with image", a)
	}
	if got := errorBanner(f.studio); got != "" {
		t.Errorf("error banner = %q, want none", got)
	}
}
