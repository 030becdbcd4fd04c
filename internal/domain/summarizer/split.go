package summarizer

import (
	"strings"

	apperrors "github.com/yanqian/booksum/pkg/errors"
)

// SplitResult lists the sections of a text in order. Oversized holds the
// indexes of sections made of a single chunk that alone exceeds the budget.
type SplitResult struct {
	Sections  []string
	Oversized []int
}

// Split cuts text after every occurrence of divisionPoint and greedily packs
// the resulting chunks into sections of at most maxTokens tokens. Chunks keep
// their division point, so concatenating the sections gives back the input
// minus whitespace-only sections.
func Split(tok Tokenizer, text string, maxTokens int, divisionPoint string) (SplitResult, error) {
	if maxTokens <= 0 {
		return SplitResult{}, apperrors.Wrap(CodeInvalidInput, "split budget must be positive", nil)
	}
	if divisionPoint == "" {
		return SplitResult{}, apperrors.Wrap(CodeInvalidInput, "division point cannot be empty", nil)
	}

	var (
		result        SplitResult
		current       strings.Builder
		currentTokens int
	)

	flush := func() {
		section := current.String()
		tokens := currentTokens
		current.Reset()
		currentTokens = 0
		if strings.TrimSpace(section) == "" {
			return
		}
		if tokens > maxTokens {
			result.Oversized = append(result.Oversized, len(result.Sections))
		}
		result.Sections = append(result.Sections, section)
	}

	for _, chunk := range strings.SplitAfter(text, divisionPoint) {
		if chunk == "" {
			continue
		}
		// Summed per chunk instead of re-encoding the growing section.
		chunkTokens := tok.Count(chunk)
		if current.Len() > 0 && currentTokens+chunkTokens > maxTokens {
			flush()
		}
		current.WriteString(chunk)
		currentTokens += chunkTokens
	}
	flush()

	return result, nil
}
