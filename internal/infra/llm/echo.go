package llm

import (
	"context"
	"strings"

	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/pkg/metrics"
)

// EchoCompleter answers without external calls by keeping the leading words
// of the last message: half of them, and never more than MaxTokens.
type EchoCompleter struct{}

// Complete returns a deterministic truncation of the prompt.
func (EchoCompleter) Complete(_ context.Context, req summarizer.CompletionRequest) (summarizer.Completion, error) {
	if len(req.Messages) == 0 {
		return summarizer.Completion{}, nil
	}
	words := strings.Fields(req.Messages[len(req.Messages)-1].Content)
	keep := len(words) / 2
	if req.MaxTokens > 0 && keep > req.MaxTokens {
		keep = req.MaxTokens
	}
	if keep < 1 && len(words) > 0 {
		keep = 1
	}
	return summarizer.Completion{
		Text: strings.Join(words[:keep], " "),
		Usage: metrics.TokenUsage{
			PromptTokens:     len(words),
			CompletionTokens: keep,
			TotalTokens:      len(words) + keep,
		},
	}, nil
}

var _ summarizer.Completer = EchoCompleter{}
