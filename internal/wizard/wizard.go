// Package wizard defines the nine authoring phases and the rules for moving
// between them.
package wizard

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

// Phase is one step of the authoring flow.
type Phase string

const (
	DocumentInput       Phase = "DOCUMENT_INPUT"
	CoverDesign         Phase = "COVER_DESIGN"
	BackgroundImages    Phase = "BACKGROUND_IMAGES"
	InteractiveElements Phase = "INTERACTIVE_ELEMENTS"
	Diagrams            Phase = "DIAGRAMS"
	ChartsInfographics  Phase = "CHARTS_INFOGRAPHICS"
	MotivationalQuotes  Phase = "MOTIVATIONAL_QUOTES"
	ReviewAndDownload   Phase = "REVIEW_AND_DOWNLOAD"
	FinalizeEbook       Phase = "FINALIZE_EBOOK"
)

// ErrGated is returned when the current phase is not complete.
var ErrGated = errors.New("current phase is not complete")

// ErrUnknownPhase is returned by ParsePhase.
var ErrUnknownPhase = errors.New("unknown phase")

var phases = []Phase{
	DocumentInput,
	CoverDesign,
	BackgroundImages,
	InteractiveElements,
	Diagrams,
	ChartsInfographics,
	MotivationalQuotes,
	ReviewAndDownload,
	FinalizeEbook,
}

var titles = map[Phase]string{
	DocumentInput:       "Step 1: Input Your eBook Content",
	CoverDesign:         "Step 2: Design Your eBook Cover",
	BackgroundImages:    "Step 3: Generate Background Images",
	InteractiveElements: "Step 4: Create Interactive Elements",
	Diagrams:            "Step 5: Design Chapter Diagrams",
	ChartsInfographics:  "Step 6: Generate Charts & Infographics",
	MotivationalQuotes:  "Step 7: Craft Motivational Quotes",
	ReviewAndDownload:   "Step 8: Review Assets & Download",
	FinalizeEbook:       "Step 9: Finalize Your eBook",
}

var assetTypes = map[Phase]ebook.AssetType{
	CoverDesign:         ebook.CoverImage,
	BackgroundImages:    ebook.BackgroundImage,
	InteractiveElements: ebook.InteractiveElement,
	Diagrams:            ebook.Diagram,
	ChartsInfographics:  ebook.ChartInfographic,
	MotivationalQuotes:  ebook.MotivationalQuote,
}

// Phases returns every phase in order.
func Phases() []Phase {
	out := make([]Phase, len(phases))
	copy(out, phases)
	return out
}

// ParsePhase converts a string to a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if p.Index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return p, nil
}

// Index returns the position of p, or -1.
func (p Phase) Index() int {
	for i, q := range phases {
		if q == p {
			return i
		}
	}
	return -1
}

// Title returns the display title, e.g. "Step 2: Design Your eBook Cover".
func (p Phase) Title() string {
	return titles[p]
}

// AssetType returns the asset type edited in p, if any.
func (p Phase) AssetType() (ebook.AssetType, bool) {
	t, ok := assetTypes[p]
	return t, ok
}

// CanProceed reports whether doc satisfies the completion rule of p.
func CanProceed(doc *ebook.Ebook, p Phase) bool {
	if doc == nil {
		return false
	}
	switch p {
	case DocumentInput:
		return doc.Title != ""
	case CoverDesign:
		return doc.CoverImage.Status.Accepted()
	case BackgroundImages, InteractiveElements, Diagrams, ChartsInfographics, MotivationalQuotes:
		t := assetTypes[p]
		for _, ch := range doc.Chapters {
			a, ok := ch.Asset(t)
			if !ok || !a.Status.Accepted() {
				return false
			}
		}
		return true
	case ReviewAndDownload:
		return true
	default:
		return false
	}
}

// Next returns the phase after p when p is complete.
func Next(doc *ebook.Ebook, p Phase) (Phase, error) {
	if !CanProceed(doc, p) {
		return p, fmt.Errorf("%w: %s", ErrGated, p.Title())
	}
	i := p.Index()
	if i < 0 || i+1 >= len(phases) {
		return p, fmt.Errorf("%w: %s is the last phase", ErrGated, p)
	}
	return phases[i+1], nil
}

// Prev returns the phase before p. It stays at the first phase.
func Prev(p Phase) Phase {
	i := p.Index()
	if i <= 0 {
		return phases[0]
	}
	return phases[i-1]
}

// Status is a phase snapshot for display.
type Status struct {
	Phase      Phase           `json:"phase"`
	Title      string          `json:"title"`
	Step       int             `json:"step"`
	AssetType  ebook.AssetType `json:"asset_type,omitempty"`
	CanProceed bool            `json:"can_proceed"`
}

// Describe returns the display status of p for doc.
func Describe(doc *ebook.Ebook, p Phase) Status {
	t, _ := p.AssetType()
	return Status{
		Phase:      p,
		Title:      p.Title(),
		Step:       p.Index() + 1,
		AssetType:  t,
		CanProceed: CanProceed(doc, p),
	}
}
