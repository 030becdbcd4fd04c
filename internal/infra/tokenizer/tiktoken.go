package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/booksum/internal/domain/summarizer"
)

// FallbackEncoding is used for models tiktoken does not know.
const FallbackEncoding = "cl100k_base"

// Tiktoken counts tokens with the BPE encoding of a specific model.
type Tiktoken struct {
	mu       sync.Mutex
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTiktoken loads the encoding for model, falling back to cl100k_base.
// The first call for an encoding may download its ranks file.
func NewTiktoken(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	name := model
	if err != nil {
		enc, err = tiktoken.GetEncoding(FallbackEncoding)
		name = FallbackEncoding
		if err != nil {
			return nil, fmt.Errorf("load tokenizer for %q: %w", model, err)
		}
	}
	return &Tiktoken{encoding: enc, name: name}, nil
}

// Name reports the model or encoding the counts are based on.
func (t *Tiktoken) Name() string {
	return t.name
}

// Count returns the number of tokens in text. Special token literals in book
// text are counted as the single token they encode to.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.encoding.Encode(text, []string{"all"}, nil))
}

var _ summarizer.Tokenizer = (*Tiktoken)(nil)
