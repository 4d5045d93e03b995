package generate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

var (
	// ErrUnsupportedType is returned for asset types without a handler.
	ErrUnsupportedType = errors.New("unsupported asset type for generation")
	// ErrNoImagePrompt is returned when an image asset's text response is empty.
	ErrNoImagePrompt = errors.New("AI failed to generate the image prompt text.")
	// ErrNoContent is returned when a text asset's response is empty.
	ErrNoContent = errors.New("AI failed to generate textual content.")
)

// Handler holds the per-type rules applied to the text response.
type Handler interface {
	// Validate rejects unusable text responses.
	Validate(text string) error
	// ImagePrompt derives the image prompt from the text response.
	// An empty result means no image is rendered.
	ImagePrompt(text string) string
	// RequiresImage reports whether a missing image prompt is an error.
	RequiresImage() bool
}

// handlers maps each asset type to its rules.
var handlers = map[ebook.AssetType]Handler{
	ebook.CoverImage:         imageHandler{},
	ebook.BackgroundImage:    imageHandler{},
	ebook.Diagram:            diagramHandler{},
	ebook.ChartInfographic:   chartHandler{},
	ebook.InteractiveElement: interactiveHandler{},
	ebook.MotivationalQuote:  quoteHandler{},
}

// HandlerFor returns the handler for t.
func HandlerFor(t ebook.AssetType) (Handler, error) {
	h, ok := handlers[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return h, nil
}

// imageHandler treats the whole response as the image prompt.
type imageHandler struct{}

func (imageHandler) Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNoImagePrompt
	}
	return nil
}

func (imageHandler) ImagePrompt(text string) string { return text }
func (imageHandler) RequiresImage() bool            { return true }

type diagramHandler struct{}

func (diagramHandler) Validate(text string) error     { return requireContent(text) }
func (diagramHandler) ImagePrompt(text string) string { return text }
func (diagramHandler) RequiresImage() bool            { return true }

// chartHandler renders an image only when the response names a prompt or a style.
type chartHandler struct{}

func (chartHandler) Validate(text string) error { return requireContent(text) }

func (chartHandler) ImagePrompt(text string) string {
	if p := ExtractField(text, "Text-to-image prompt"); p != "" {
		return p
	}
	return ExtractField(text, "Visual Style Direction")
}

func (chartHandler) RequiresImage() bool { return false }

// interactiveHandler renders a worksheet mockup from the title and style fields.
type interactiveHandler struct{}

func (interactiveHandler) Validate(text string) error { return requireContent(text) }

func (interactiveHandler) ImagePrompt(text string) string {
	return fmt.Sprintf("Mockup of an interactive printable worksheet: \"%s\". Visual Style: %s. For a fitness eBook.",
		ExtractField(text, "Title"), ExtractField(text, "Visual Style Direction"))
}

func (interactiveHandler) RequiresImage() bool { return true }

// quoteHandler keeps the text as is and never renders an image.
type quoteHandler struct{}

func (quoteHandler) Validate(string) error     { return nil }
func (quoteHandler) ImagePrompt(string) string { return "" }
func (quoteHandler) RequiresImage() bool       { return false }

func requireContent(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNoContent
	}
	return nil
}
