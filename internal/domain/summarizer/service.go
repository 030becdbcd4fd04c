package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/yanqian/booksum/pkg/errors"
	"github.com/yanqian/booksum/pkg/metrics"
	"github.com/yanqian/booksum/pkg/util"
)

// Service exposes book summarization capabilities.
type Service interface {
	Summarize(ctx context.Context, req Request) (Response, error)
	Plan(ctx context.Context, req PlanRequest) (Params, error)
}

type service struct {
	cfg    Config
	tok    Tokenizer
	engine *Engine
	synth  *Synthesizer
	loader SourceLoader
	logger *slog.Logger

	// One run at a time: the process is the single writer of the cache.
	mu sync.Mutex
}

// NewService is a wire provider for the summarizer domain. loader may be nil,
// in which case requests must carry their text inline.
func NewService(cfg Config, tok Tokenizer, engine *Engine, synth *Synthesizer, loader SourceLoader, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		tok:    tok,
		engine: engine,
		synth:  synth,
		loader: loader,
		logger: logger.With("component", "summarizer.service"),
	}
}

func (s *service) Plan(_ context.Context, req PlanRequest) (Params, error) {
	contextSize := req.ContextSize
	if contextSize <= 0 {
		contextSize = s.cfg.ContextSize
	}
	return Plan(s.tok, req.TargetSize, contextSize)
}

func (s *service) Summarize(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	text, err := s.resolveText(ctx, req)
	if err != nil {
		return Response{}, err
	}

	targets := req.TargetSizes
	if len(targets) == 0 {
		targets = s.cfg.TargetSizes
	}
	if len(targets) == 0 {
		return Response{}, apperrors.Wrap(CodeInvalidInput, "at least one target size is required", nil)
	}
	contextSize := req.ContextSize
	if contextSize <= 0 {
		contextSize = s.cfg.ContextSize
	}
	divisionPoint := req.DivisionPoint
	if divisionPoint == "" {
		divisionPoint = s.cfg.DivisionPoint
	}

	// Budgets are checked up front so a bad target fails before any spend.
	plans := make([]Params, 0, len(targets))
	for _, target := range targets {
		params, err := Plan(s.tok, target, contextSize)
		if err != nil {
			return Response{}, err
		}
		plans = append(plans, params)
	}

	inputTokens := s.tok.Count(text)
	s.logger.Info("summarization started",
		"input_tokens", inputTokens,
		"targets", targets,
		"context_size", contextSize,
		"estimated_cost_usd", fmt.Sprintf("%.2f", float64(inputTokens)*s.cfg.CostPerToken),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := Response{InputTokens: inputTokens, Summaries: make([]TargetSummary, 0, len(plans))}
	var total metrics.TokenUsage
	for _, params := range plans {
		usage := metrics.NewUsageAccumulator()
		summary, err := s.engine.Summarize(ctx, text, params, divisionPoint, s.cfg.Model, usage)
		if err != nil {
			return Response{}, err
		}
		summary = strings.TrimSpace(StripMarkers(summary))
		spent, calls := usage.Snapshot()
		total = total.Add(spent)
		s.logger.Info("target summary complete", "session", usage.Session(), "target", params.TargetSummarySize, "calls", calls, "total_tokens", spent.TotalTokens)
		resp.Summaries = append(resp.Summaries, TargetSummary{
			TargetSize: params.TargetSummarySize,
			Params:     params,
			Summary:    summary,
			TokenCount: s.tok.Count(summary),
			Session:    usage.Session(),
			Calls:      calls,
			TokenUsage: spent,
		})
	}

	if req.Synthesize {
		drafts := make([]string, 0, len(resp.Summaries))
		for _, item := range resp.Summaries {
			drafts = append(drafts, item.Summary)
		}
		usage := metrics.NewUsageAccumulator()
		synthesis, err := s.synth.Synthesize(ctx, drafts, s.cfg.SynthesisModel, usage)
		if err != nil {
			return Response{}, err
		}
		spent, _ := usage.Snapshot()
		total = total.Add(spent)
		resp.Synthesis = synthesis
	}

	if !total.IsZero() {
		resp.TokenUsage = &total
	}
	resp.DurationMs = util.SinceMs(start)
	return resp, nil
}

func (s *service) resolveText(ctx context.Context, req Request) (string, error) {
	text := req.Text
	if strings.TrimSpace(text) == "" && req.Source != "" {
		if s.loader == nil {
			return "", apperrors.Wrap(CodeInvalidInput, "source loading is not configured", nil)
		}
		loaded, err := s.loader.Load(ctx, req.Source)
		if err != nil {
			return "", apperrors.Wrap(CodeSource, "load source", err)
		}
		text = loaded
	}
	if !utf8.ValidString(text) {
		return "", apperrors.Wrap(CodeInvalidInput, "text must be valid UTF-8", nil)
	}
	text = normalize(text)
	if text == "" {
		return "", apperrors.Wrap(CodeInvalidInput, "text cannot be empty", nil)
	}
	return text, nil
}

func normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
