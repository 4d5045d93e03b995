package segment

import (
	"strings"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

const cropSentinel = "..."

// BasicSummary truncates text to at most maxLength runes, cutting at the last
// word boundary before the limit and appending "...". Blank text yields
// ebook.NoContent.
func BasicSummary(text string, maxLength int) string {
	if strings.TrimSpace(text) == "" {
		return ebook.NoContent
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	cut := maxLength - len(cropSentinel)
	if cut < 0 {
		cut = 0
	}
	summary := string(runes[:cut])
	if i := strings.LastIndex(summary, " "); i > 0 {
		summary = summary[:i]
	}
	return summary + cropSentinel
}
