// Package segment splits a flat manuscript into chapters, using an optional
// table of contents as a guide.
//
// Boundary detection is heuristic: each ToC line is looked up in the text
// either by its cleaned title or by a "Chapter N:" marker, scanning forward
// from a cursor that only ever advances. A chapter whose marker cannot be
// found gets empty content and leaves the cursor where it was.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

const (
	// DocumentSummaryLength bounds the whole-document summary.
	DocumentSummaryLength = 500
	// ChapterSummaryLength bounds each chapter summary.
	ChapterSummaryLength = 200

	// maxTitleLineLength is the exclusive bound for using the first text line as a title.
	maxTitleLineLength = 100

	mainContentTitle = "Main Content"
)

var chapterPrefix = regexp.MustCompile(`(?i)^(chapter\s*\d+\s*[:.-]?\s*)`)

// Result is the output of Segment.
type Result struct {
	Title    string          `json:"title" yaml:"title"`
	Summary  string          `json:"summary" yaml:"summary"`
	Chapters []ebook.Chapter `json:"chapters" yaml:"chapters"`
}

// Ebook builds the document aggregate for the segmented input.
func (r Result) Ebook(rawText, rawToc string) *ebook.Ebook {
	return ebook.New(rawText, rawToc, r.Title, r.Summary, r.Chapters)
}

// Segment splits rawText into chapters. It never fails; unmatched chapters
// simply have empty content.
func Segment(rawText, rawToc string) Result {
	lines := tocLines(rawToc)
	title := ebook.UntitledTitle

	if len(lines) > 0 {
		if !strings.Contains(strings.ToLower(lines[0]), "chapter") {
			title = lines[0]
		}
	} else if strings.TrimSpace(rawText) != "" {
		first := strings.TrimSpace(strings.SplitN(rawText, "\n", 2)[0])
		if first != "" && len([]rune(first)) < maxTitleLineLength {
			title = first
		}
	}

	var chapters []ebook.Chapter
	if len(lines) == 0 {
		if strings.TrimSpace(rawText) != "" {
			chTitle := mainContentTitle
			if title != ebook.UntitledTitle {
				chTitle = title
			}
			chapters = append(chapters, ebook.NewChapter(1, chTitle, rawText, BasicSummary(rawText, ChapterSummaryLength)))
		}
	} else {
		chapters = splitByToc(rawText, lines)
	}
	if chapters == nil {
		chapters = []ebook.Chapter{}
	}

	return Result{
		Title:    title,
		Summary:  BasicSummary(rawText, DocumentSummaryLength),
		Chapters: chapters,
	}
}

func splitByToc(rawText string, lines []string) []ebook.Chapter {
	chapters := make([]ebook.Chapter, 0, len(lines))
	cursor := 0

	for i, line := range lines {
		cleaned := CleanTitle(line)
		sub := rawText[cursor:]

		start := -1
		if loc := chapterPattern(cleaned, i+1).FindStringIndex(sub); loc != nil {
			start = loc[1]
		}

		end := len(sub)
		if i+1 < len(lines) {
			next := chapterPattern(CleanTitle(lines[i+1]), i+2)
			base := sub
			offset := 0
			if start != -1 {
				base = sub[start:]
				offset = start
			}
			if loc := next.FindStringIndex(base); loc != nil {
				end = offset + loc[0]
			}
		}

		content := ""
		if start != -1 {
			content = strings.TrimSpace(sub[start:end])
			cursor += end
		}

		chapters = append(chapters, ebook.NewChapter(i+1, cleaned, content, BasicSummary(content, ChapterSummaryLength)))
	}
	return chapters
}

// CleanTitle strips a leading "Chapter N:" style marker from a ToC line.
func CleanTitle(line string) string {
	return strings.TrimSpace(chapterPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
}

// chapterPattern matches either the cleaned title or a "Chapter n" marker
// followed by one of ":", "." or "-".
func chapterPattern(cleaned string, n int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)(?:%s|chapter\s*%d\s*[:.-])`, regexp.QuoteMeta(cleaned), n))
}

func tocLines(rawToc string) []string {
	var out []string
	for _, l := range strings.Split(rawToc, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}
