package source

import (
	"regexp"
	"strings"
)

var gutenbergMarker = regexp.MustCompile(`\*\*\* .+ \*\*\*`)

// TrimGutenberg drops carriage returns and, when the text carries Project
// Gutenberg "*** START ... ***" / "*** END ... ***" markers, keeps only the
// book between the first two of them.
func TrimGutenberg(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	parts := gutenbergMarker.Split(text, 3)
	if len(parts) < 2 {
		return text
	}
	return parts[1]
}
