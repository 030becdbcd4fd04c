package summarizer

import (
	"fmt"

	apperrors "github.com/yanqian/booksum/pkg/errors"
	"github.com/yanqian/booksum/pkg/metrics"
)

// Markers wrapped around every machine generated span.
const (
	SummaryOpen  = "[[["
	SummaryClose = "]]]"
)

// Config configures the recursive summarizer.
type Config struct {
	Model                string
	Temperature          float32
	ContextSize          int
	TargetSizes          []int
	DivisionPoint        string
	MaxAttempts          int
	MaxDepth             int
	SynthesisModel       string
	SynthesisContextSize int
	CostPerToken         float64
}

// Params holds the token budgets for one target summary size. It is a plain
// comparable value and is never mutated after Plan returns it.
type Params struct {
	TargetSummarySize int `json:"targetSummarySize"`
	SummaryInputSize  int `json:"summaryInputSize"`
}

// Validate reports a config_error when the budgets cannot make progress.
func (p Params) Validate() error {
	if p.TargetSummarySize <= 0 {
		return apperrors.Wrap(CodeConfig, fmt.Sprintf("target summary size must be positive, got %d", p.TargetSummarySize), nil)
	}
	if p.SummaryInputSize <= p.TargetSummarySize {
		return apperrors.Wrap(CodeConfig, fmt.Sprintf("summary input size %d must exceed target summary size %d", p.SummaryInputSize, p.TargetSummarySize), nil)
	}
	return nil
}

// Message is one role tagged chat message.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is what the engine asks of the generative service.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Completion is the generated text and the tokens spent producing it.
type Completion struct {
	Text  string
	Usage metrics.TokenUsage
}

// Request represents the incoming summarization payload. Either Text or
// Source must be set; zero values fall back to the configured defaults.
type Request struct {
	Text          string `json:"text,omitempty"`
	Source        string `json:"source,omitempty"`
	TargetSizes   []int  `json:"targetSizes,omitempty"`
	ContextSize   int    `json:"contextSize,omitempty"`
	DivisionPoint string `json:"divisionPoint,omitempty"`
	Synthesize    bool   `json:"synthesize,omitempty"`
}

// TargetSummary is the result for one target size.
type TargetSummary struct {
	TargetSize int                `json:"targetSize"`
	Params     Params             `json:"params"`
	Summary    string             `json:"summary"`
	TokenCount int                `json:"tokenCount"`
	Session    string             `json:"session"`
	Calls      int                `json:"calls"`
	TokenUsage metrics.TokenUsage `json:"tokenUsage"`
}

// Response is returned by Service.Summarize.
type Response struct {
	InputTokens int                 `json:"inputTokens"`
	Summaries   []TargetSummary     `json:"summaries"`
	Synthesis   string              `json:"synthesis,omitempty"`
	DurationMs  int64               `json:"durationMs,omitempty"`
	TokenUsage  *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// PlanRequest asks for the budgets of a single target size.
type PlanRequest struct {
	TargetSize  int `json:"targetSize"`
	ContextSize int `json:"contextSize,omitempty"`
}
