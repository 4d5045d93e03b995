package generate

import "strings"

// ExtractField returns the value of the first "Field: value" line in text,
// matching the field name case-insensitively at the start of the line.
//
// Fields that name a prompt or a quote also accept a single-line answer
// without a label, and quotes accept any answer of at most two non-empty lines.
// It returns "" when nothing matches.
func ExtractField(text, field string) string {
	lines := strings.Split(text, "\n")
	lowerField := strings.ToLower(field)
	prefix := lowerField + ":"

	for _, l := range lines {
		if strings.HasPrefix(strings.ToLower(l), prefix) {
			return strings.TrimSpace(l[strings.Index(l, ":")+1:])
		}
	}

	isQuote := strings.Contains(lowerField, "quote")
	if len(lines) == 1 && (strings.Contains(lowerField, "prompt") || isQuote) {
		return strings.TrimSpace(lines[0])
	}
	if isQuote && nonEmpty(lines) <= 2 {
		return strings.TrimSpace(text)
	}
	return ""
}

func nonEmpty(lines []string) int {
	n := 0
	for _, l := range lines {
		if l != "" {
			n++
		}
	}
	return n
}
