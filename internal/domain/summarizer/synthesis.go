package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/booksum/pkg/errors"
	"github.com/yanqian/booksum/pkg/metrics"
)

const defaultSynthesisContextSize = 8192

// Synthesizer merges independently produced summaries into one with a single
// call to a (usually stronger) model.
type Synthesizer struct {
	tok         Tokenizer
	client      Completer
	retry       *RetryPolicy
	memo        *Memoizer
	contextSize int
	logger      *slog.Logger
}

// NewSynthesizer wires the synthesis stage.
func NewSynthesizer(cfg Config, tok Tokenizer, client Completer, retry *RetryPolicy, memo *Memoizer, logger *slog.Logger) *Synthesizer {
	contextSize := cfg.SynthesisContextSize
	if contextSize <= 0 {
		contextSize = defaultSynthesisContextSize
	}
	return &Synthesizer{
		tok:         tok,
		client:      client,
		retry:       retry,
		memo:        memo,
		contextSize: contextSize,
		logger:      logger.With("component", "summarizer.synthesis"),
	}
}

// Synthesize combines summaries, in order, into one improved summary. The
// prompt must fit the model's context window; nothing is sent otherwise.
func (s *Synthesizer) Synthesize(ctx context.Context, summaries []string, model string, usage *metrics.UsageAccumulator) (string, error) {
	if len(summaries) == 0 {
		return "", apperrors.Wrap(CodeInvalidInput, "nothing to synthesize", nil)
	}
	messages := synthesisMessages(summaries)
	promptTokens := countMessages(s.tok, messages)
	if promptTokens > s.contextSize {
		return "", apperrors.Wrap(CodePrecondition, fmt.Sprintf(
			"synthesis prompt is %d tokens, context window is %d", promptTokens, s.contextSize), nil)
	}

	args := []any{summaries, model}
	return s.memo.Do(ctx, opSynthesize, args, func(ctx context.Context) (string, error) {
		s.logger.Info("synthesizing summaries", "count", len(summaries), "prompt_tokens", promptTokens, "model", model)
		req := CompletionRequest{Model: model, Messages: messages}
		completion, err := s.retry.Do(ctx, func(ctx context.Context) (Completion, error) {
			return s.client.Complete(ctx, req)
		})
		if err != nil {
			return "", err
		}
		usage.Record(completion.Usage)
		return strings.TrimSpace(completion.Text), nil
	})
}
