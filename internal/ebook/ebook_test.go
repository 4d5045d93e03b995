package ebook

import "testing"

func TestNewChapter(t *testing.T) {
	c := NewChapter(3, "Strength", "content", "summary")
	if c.ID != "chapter-3" {
		t.Errorf("ID = %q, want %q", c.ID, "chapter-3")
	}

	want := map[AssetType]string{
		BackgroundImage:    "chapter-3-bg",
		InteractiveElement: "chapter-3-ie",
		Diagram:            "chapter-3-dg",
		ChartInfographic:   "chapter-3-ci",
		MotivationalQuote:  "chapter-3-mq",
	}
	for _, at := range ChapterAssetTypes() {
		a, ok := c.Asset(at)
		if !ok {
			t.Fatalf("Asset(%s) not found", at)
		}
		if a.ID != want[at] {
			t.Errorf("Asset(%s).ID = %q, want %q", at, a.ID, want[at])
		}
		if a.Status != StatusIdle {
			t.Errorf("Asset(%s).Status = %q, want idle", at, a.Status)
		}
		if a.Type != at {
			t.Errorf("Asset(%s).Type = %q", at, a.Type)
		}
	}

	if _, ok := c.Asset(CoverImage); ok {
		t.Error("Asset(coverImage) should not be found on a chapter")
	}
}

func TestChapter_WithAsset(t *testing.T) {
	c := NewChapter(1, "One", "", "")
	a := c.Diagram
	a.Status = StatusGenerated

	next, ok := c.WithAsset(a)
	if !ok {
		t.Fatal("WithAsset() rejected a chapter asset")
	}
	if next.Diagram.Status != StatusGenerated {
		t.Errorf("next.Diagram.Status = %q, want generated", next.Diagram.Status)
	}
	if c.Diagram.Status != StatusIdle {
		t.Errorf("receiver modified: Diagram.Status = %q", c.Diagram.Status)
	}

	if _, ok := c.WithAsset(NewAsset(CoverAssetID, CoverImage)); ok {
		t.Error("WithAsset(cover) should be rejected")
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New("text", "", "", "", nil)
	if e.Title != UntitledTitle {
		t.Errorf("Title = %q, want %q", e.Title, UntitledTitle)
	}
	if e.Summary != AwaitingSummary {
		t.Errorf("Summary = %q, want %q", e.Summary, AwaitingSummary)
	}
	if e.CoverImage.ID != CoverAssetID || e.CoverImage.Type != CoverImage {
		t.Errorf("CoverImage = %+v", e.CoverImage)
	}
	if e.Chapters == nil {
		t.Error("Chapters should be an empty slice, not nil")
	}
}

func TestEbook_Clone(t *testing.T) {
	e := New("text", "", "Title", "Sum", []Chapter{NewChapter(1, "One", "x", "x")})
	c := e.Clone()
	c.Chapters[0].Title = "Changed"
	if e.Chapters[0].Title != "One" {
		t.Error("Clone() shares the chapter slice with the original")
	}
}

func TestAssetType(t *testing.T) {
	tests := []struct {
		in    AssetType
		valid bool
		label string
	}{
		{CoverImage, true, "Cover Image"},
		{BackgroundImage, true, "Background Image"},
		{ChartInfographic, true, "Chart Infographic"},
		{MotivationalQuote, true, "Motivational Quote"},
		{AssetType("audio"), false, "Audio"},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.in.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestAssetStatus_Accepted(t *testing.T) {
	for _, s := range []AssetStatus{StatusIdle, StatusGenerating, StatusGenerated, StatusError} {
		if s.Accepted() {
			t.Errorf("%s.Accepted() = true", s)
		}
	}
	for _, s := range []AssetStatus{StatusApproved, StatusUserUploaded} {
		if !s.Accepted() {
			t.Errorf("%s.Accepted() = false", s)
		}
	}
}
