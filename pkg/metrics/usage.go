package metrics

import (
	"sync"

	"github.com/google/uuid"
)

// TokenUsage captures LLM token counts used to satisfy a request.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Add returns the element-wise sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// UsageAccumulator keeps the running token spend of one summarization session.
// It is created per session and passed explicitly to every call that spends
// tokens; sessions never share one.
type UsageAccumulator struct {
	mu      sync.Mutex
	session string
	usage   TokenUsage
	calls   int
}

// NewUsageAccumulator starts an empty session with a fresh identifier.
func NewUsageAccumulator() *UsageAccumulator {
	return &UsageAccumulator{session: uuid.NewString()}
}

// Session returns the identifier assigned at construction.
func (a *UsageAccumulator) Session() string {
	if a == nil {
		return ""
	}
	return a.session
}

// Record adds the usage of one external call. A nil accumulator discards it.
func (a *UsageAccumulator) Record(u TokenUsage) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage = a.usage.Add(u)
	a.calls++
}

// Snapshot returns the totals recorded so far and the number of calls made.
func (a *UsageAccumulator) Snapshot() (TokenUsage, int) {
	if a == nil {
		return TokenUsage{}, 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage, a.calls
}
