// Package ebook defines the document aggregate shared by the segmenter,
// the asset store and the generation orchestrator.
// This package has no dependencies on other studio packages to avoid import cycles.
package ebook

import "fmt"

const (
	// UntitledTitle is used when no title could be inferred from the input.
	UntitledTitle = "Untitled eBook"
	// AwaitingSummary is the document summary before segmentation completes.
	AwaitingSummary = "Awaiting content to generate summary."
	// NoContent is the summary of blank text.
	NoContent = "No content provided."
	// CoverAssetID is the id of the singleton cover asset.
	CoverAssetID = "cover"
)

// Chapter is one section of the manuscript and owns exactly five assets.
type Chapter struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	RawContent         string `json:"rawContent"`
	ContentSummary     string `json:"contentSummary"`
	BackgroundImage    Asset  `json:"backgroundImage"`
	InteractiveElement Asset  `json:"interactiveElement"`
	Diagram            Asset  `json:"diagram"`
	ChartInfographic   Asset  `json:"chartInfographic"`
	MotivationalQuote  Asset  `json:"motivationalQuote"`
}

// ChapterID returns the id of the n-th chapter (1-based).
func ChapterID(n int) string {
	return fmt.Sprintf("chapter-%d", n)
}

// NewChapter creates a chapter with five idle assets.
func NewChapter(n int, title, rawContent, summary string) Chapter {
	id := ChapterID(n)
	return Chapter{
		ID:                 id,
		Title:              title,
		RawContent:         rawContent,
		ContentSummary:     summary,
		BackgroundImage:    NewAsset(id+"-bg", BackgroundImage),
		InteractiveElement: NewAsset(id+"-ie", InteractiveElement),
		Diagram:            NewAsset(id+"-dg", Diagram),
		ChartInfographic:   NewAsset(id+"-ci", ChartInfographic),
		MotivationalQuote:  NewAsset(id+"-mq", MotivationalQuote),
	}
}

// Asset returns the chapter's asset of the given type.
// The second return value is false for coverImage and unknown types.
func (c Chapter) Asset(t AssetType) (Asset, bool) {
	switch t {
	case BackgroundImage:
		return c.BackgroundImage, true
	case InteractiveElement:
		return c.InteractiveElement, true
	case Diagram:
		return c.Diagram, true
	case ChartInfographic:
		return c.ChartInfographic, true
	case MotivationalQuote:
		return c.MotivationalQuote, true
	default:
		return Asset{}, false
	}
}

// WithAsset returns a copy of the chapter with the slot for a.Type replaced.
// The receiver is not modified.
func (c Chapter) WithAsset(a Asset) (Chapter, bool) {
	switch a.Type {
	case BackgroundImage:
		c.BackgroundImage = a
	case InteractiveElement:
		c.InteractiveElement = a
	case Diagram:
		c.Diagram = a
	case ChartInfographic:
		c.ChartInfographic = a
	case MotivationalQuote:
		c.MotivationalQuote = a
	default:
		return c, false
	}
	return c, true
}

// Ebook is the whole-document aggregate.
type Ebook struct {
	RawText    string    `json:"rawText"`
	RawToc     string    `json:"rawToc"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Chapters   []Chapter `json:"chapters"`
	CoverImage Asset     `json:"coverImage"`
}

// New builds an aggregate from segmentation output and creates the cover slot.
func New(rawText, rawToc, title, summary string, chapters []Chapter) *Ebook {
	if title == "" {
		title = UntitledTitle
	}
	if summary == "" {
		summary = AwaitingSummary
	}
	if chapters == nil {
		chapters = []Chapter{}
	}
	return &Ebook{
		RawText:    rawText,
		RawToc:     rawToc,
		Title:      title,
		Summary:    summary,
		Chapters:   chapters,
		CoverImage: NewAsset(CoverAssetID, CoverImage),
	}
}

// Clone returns a copy that shares no slices with the receiver.
// Chapters and assets are values, so copying the slice is enough.
func (e *Ebook) Clone() *Ebook {
	if e == nil {
		return nil
	}
	out := *e
	out.Chapters = make([]Chapter, len(e.Chapters))
	copy(out.Chapters, e.Chapters)
	return &out
}

// ChapterIndex returns the position of the chapter with the given id, or -1.
func (e *Ebook) ChapterIndex(id string) int {
	for i := range e.Chapters {
		if e.Chapters[i].ID == id {
			return i
		}
	}
	return -1
}

// Chapter returns the chapter with the given id.
func (e *Ebook) Chapter(id string) (Chapter, bool) {
	if i := e.ChapterIndex(id); i >= 0 {
		return e.Chapters[i], true
	}
	return Chapter{}, false
}
