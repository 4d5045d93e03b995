package wizard

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

func testDoc() *ebook.Ebook {
	return ebook.New("raw", "", "Book", "", []ebook.Chapter{
		ebook.NewChapter(1, "One", "a", "a"),
		ebook.NewChapter(2, "Two", "b", "b"),
	})
}

func TestPhases(t *testing.T) {
	all := Phases()
	if len(all) != 9 {
		t.Fatalf("Phases() = %d, want 9", len(all))
	}
	for i, p := range all {
		if !strings.HasPrefix(p.Title(), "Step ") {
			t.Errorf("%s title = %q", p, p.Title())
		}
		if p.Index() != i {
			t.Errorf("%s Index() = %d, want %d", p, p.Index(), i)
		}
	}
	if CoverDesign.Title() != "Step 2: Design Your eBook Cover" {
		t.Errorf("CoverDesign.Title() = %q", CoverDesign.Title())
	}
	if typ, ok := Diagrams.AssetType(); !ok || typ != ebook.Diagram {
		t.Errorf("Diagrams.AssetType() = %q, %v", typ, ok)
	}
	if _, ok := ReviewAndDownload.AssetType(); ok {
		t.Error("ReviewAndDownload should have no asset type")
	}
	if _, err := ParsePhase("NOPE"); err == nil {
		t.Error("ParsePhase() should reject unknown phases")
	}
}

func TestCanProceed(t *testing.T) {
	t.Run("no document", func(t *testing.T) {
		for _, p := range Phases() {
			if CanProceed(nil, p) {
				t.Errorf("CanProceed(nil, %s) = true", p)
			}
		}
	})

	t.Run("document input needs title", func(t *testing.T) {
		doc := testDoc()
		if !CanProceed(doc, DocumentInput) {
			t.Error("titled document should proceed")
		}
		doc.Title = ""
		if CanProceed(doc, DocumentInput) {
			t.Error("untitled document should not proceed")
		}
	})

	t.Run("cover", func(t *testing.T) {
		doc := testDoc()
		if CanProceed(doc, CoverDesign) {
			t.Error("idle cover should not proceed")
		}
		doc.CoverImage.Status = ebook.StatusGenerated
		if CanProceed(doc, CoverDesign) {
			t.Error("generated cover should not proceed")
		}
		doc.CoverImage.Status = ebook.StatusUserUploaded
		if !CanProceed(doc, CoverDesign) {
			t.Error("uploaded cover should proceed")
		}
	})

	t.Run("chapter phase needs every chapter", func(t *testing.T) {
		doc := testDoc()
		doc.Chapters[0].Diagram.Status = ebook.StatusApproved
		if CanProceed(doc, Diagrams) {
			t.Error("one accepted chapter of two should not proceed")
		}
		doc.Chapters[1].Diagram.Status = ebook.StatusUserUploaded
		if !CanProceed(doc, Diagrams) {
			t.Error("all accepted should proceed")
		}
		if CanProceed(doc, ChartsInfographics) {
			t.Error("other phases unaffected")
		}
	})

	t.Run("review and finalize", func(t *testing.T) {
		doc := testDoc()
		if !CanProceed(doc, ReviewAndDownload) {
			t.Error("review should always proceed")
		}
		if CanProceed(doc, FinalizeEbook) {
			t.Error("finalize should never proceed")
		}
	})
}

func TestNavigation(t *testing.T) {
	doc := testDoc()

	next, err := Next(doc, DocumentInput)
	if err != nil || next != CoverDesign {
		t.Errorf("Next(DocumentInput) = %s, %v", next, err)
	}

	if _, err := Next(doc, CoverDesign); !errors.Is(err, ErrGated) {
		t.Errorf("Next(CoverDesign) error = %v, want ErrGated", err)
	}

	if _, err := Next(doc, FinalizeEbook); !errors.Is(err, ErrGated) {
		t.Errorf("Next(FinalizeEbook) error = %v, want ErrGated", err)
	}

	if Prev(CoverDesign) != DocumentInput {
		t.Errorf("Prev(CoverDesign) = %s", Prev(CoverDesign))
	}
	if Prev(DocumentInput) != DocumentInput {
		t.Errorf("Prev(DocumentInput) = %s", Prev(DocumentInput))
	}

	st := Describe(doc, Diagrams)
	if st.Step != 5 || st.AssetType != ebook.Diagram || st.CanProceed {
		t.Errorf("Describe() = %+v", st)
	}
}
