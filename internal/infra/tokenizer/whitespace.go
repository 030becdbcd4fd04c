package tokenizer

import (
	"strings"

	"github.com/yanqian/booksum/internal/domain/summarizer"
)

// Whitespace counts whitespace separated words. It needs no model data and is
// used by tests and offline dry runs.
type Whitespace struct{}

// Count returns the number of words in text.
func (Whitespace) Count(text string) int {
	return len(strings.Fields(text))
}

var _ summarizer.Tokenizer = Whitespace{}
