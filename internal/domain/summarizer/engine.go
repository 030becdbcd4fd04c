package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/booksum/pkg/errors"
	"github.com/yanqian/booksum/pkg/metrics"
)

const (
	defaultMaxDepth  = 16
	summaryJoiner    = "\n\n"
	fallbackDivision = " "
)

var errEmptyCompletion = errors.New("completion contained no text")

// Engine is the recursive summarizer. It returns short texts verbatim,
// summarizes texts that fit one call, and splits, summarizes, joins and
// recurses on everything larger.
type Engine struct {
	tok         Tokenizer
	client      Completer
	retry       *RetryPolicy
	memo        *Memoizer
	maxDepth    int
	temperature float32
	logger      *slog.Logger
}

// NewEngine wires the engine. maxDepth bounds nested summarize calls.
func NewEngine(cfg Config, tok Tokenizer, client Completer, retry *RetryPolicy, memo *Memoizer, logger *slog.Logger) *Engine {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &Engine{
		tok:         tok,
		client:      client,
		retry:       retry,
		memo:        memo,
		maxDepth:    maxDepth,
		temperature: cfg.Temperature,
		logger:      logger.With("component", "summarizer.engine"),
	}
}

// Summarize condenses text to roughly params.TargetSummarySize tokens. Token
// spend of every external call is recorded on usage.
func (e *Engine) Summarize(ctx context.Context, text string, params Params, divisionPoint, model string, usage *metrics.UsageAccumulator) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if divisionPoint == "" {
		return "", apperrors.Wrap(CodeInvalidInput, "division point cannot be empty", nil)
	}
	return e.summarize(ctx, text, params, divisionPoint, model, usage, 0)
}

func (e *Engine) summarize(ctx context.Context, text string, params Params, divisionPoint, model string, usage *metrics.UsageAccumulator, depth int) (string, error) {
	tokens := e.tok.Count(text)
	e.logger.Debug("summarizing text", "tokens", tokens, "depth", depth, "preview", preview(text, 60))

	if tokens <= params.TargetSummarySize {
		return text, nil
	}

	args := []any{text, params, divisionPoint, model}
	return e.memo.Do(ctx, opSummarize, args, func(ctx context.Context) (string, error) {
		if tokens <= params.SummaryInputSize {
			return e.summarizeDirect(ctx, text, tokens, params, model, usage)
		}
		// Only splits nest, so cached subtrees and single-call leaves are never capped.
		if depth >= e.maxDepth {
			return "", apperrors.Wrap(CodeMaxDepthExceeded, fmt.Sprintf("recursion reached depth %d with %d tokens left", depth, tokens), nil)
		}
		return e.splitAndMerge(ctx, text, tokens, params, divisionPoint, model, usage, depth)
	})
}

func (e *Engine) summarizeDirect(ctx context.Context, text string, tokens int, params Params, model string, usage *metrics.UsageAccumulator) (string, error) {
	req := CompletionRequest{
		Model:       model,
		Messages:    summarizationMessages(text, params.TargetSummarySize),
		MaxTokens:   params.TargetSummarySize,
		Temperature: e.temperature,
	}
	completion, err := e.retry.Do(ctx, func(ctx context.Context) (Completion, error) {
		out, err := e.client.Complete(ctx, req)
		if err != nil {
			return Completion{}, err
		}
		if strings.TrimSpace(out.Text) == "" {
			return Completion{}, &ServiceError{Kind: FailureService, Err: errEmptyCompletion}
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}
	usage.Record(completion.Usage)

	summary := SummaryOpen + strings.TrimSpace(completion.Text) + SummaryClose
	e.logger.Info("summarized text", "input_tokens", tokens, "summary_tokens", e.tok.Count(summary), "preview", preview(summary, 250))
	return summary, nil
}

func (e *Engine) splitAndMerge(ctx context.Context, text string, tokens int, params Params, divisionPoint, model string, usage *metrics.UsageAccumulator, depth int) (string, error) {
	sections, err := e.sections(text, params.SummaryInputSize, divisionPoint)
	if err != nil {
		return "", err
	}
	if len(sections) < 2 {
		return "", apperrors.Wrap(CodeNoProgress, fmt.Sprintf("%d-token text cannot be divided below %d tokens", tokens, params.SummaryInputSize), nil)
	}
	e.logger.Info("split text", "tokens", tokens, "sections", len(sections), "depth", depth)

	summaries := make([]string, 0, len(sections))
	for _, section := range sections {
		summary, err := e.summarize(ctx, section, params, divisionPoint, model, usage, depth+1)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, summary)
	}

	joined := strings.Join(summaries, summaryJoiner)
	if joinedTokens := e.tok.Count(joined); joinedTokens >= tokens {
		return "", apperrors.Wrap(CodeNoProgress, fmt.Sprintf("section summaries total %d tokens, source had %d", joinedTokens, tokens), nil)
	}
	return e.summarize(ctx, joined, params, divisionPoint, model, usage, depth+1)
}

// sections splits at the division point and re-splits any oversized section
// at word boundaries.
func (e *Engine) sections(text string, maxTokens int, divisionPoint string) ([]string, error) {
	split, err := Split(e.tok, text, maxTokens, divisionPoint)
	if err != nil {
		return nil, err
	}
	if len(split.Oversized) == 0 || divisionPoint == fallbackDivision {
		return split.Sections, nil
	}

	oversized := make(map[int]struct{}, len(split.Oversized))
	for _, idx := range split.Oversized {
		oversized[idx] = struct{}{}
	}
	out := make([]string, 0, len(split.Sections))
	for i, section := range split.Sections {
		if _, ok := oversized[i]; !ok {
			out = append(out, section)
			continue
		}
		e.logger.Warn("section exceeds input budget, splitting at word boundaries", "index", i, "tokens", e.tok.Count(section), "budget", maxTokens)
		words, err := Split(e.tok, section, maxTokens, fallbackDivision)
		if err != nil {
			return nil, err
		}
		out = append(out, words.Sections...)
	}
	return out, nil
}
