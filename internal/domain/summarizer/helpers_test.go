package summarizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/booksum/pkg/metrics"
)

type wordTokenizer struct{}

func (wordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// halvingCompleter keeps the first half of the user message, capped at
// MaxTokens words when capAtMax is set.
type halvingCompleter struct {
	capAtMax bool
	calls    int
	inputs   []int
}

func (c *halvingCompleter) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	c.calls++
	words := strings.Fields(req.Messages[len(req.Messages)-1].Content)
	c.inputs = append(c.inputs, len(words))
	keep := len(words) / 2
	if c.capAtMax && req.MaxTokens > 0 && keep > req.MaxTokens {
		keep = req.MaxTokens
	}
	if keep < 1 {
		keep = 1
	}
	usage := metrics.TokenUsage{
		PromptTokens:     len(words),
		CompletionTokens: keep,
		TotalTokens:      len(words) + keep,
	}
	return Completion{Text: strings.Join(words[:keep], " "), Usage: usage}, nil
}

// echoCompleter returns its input unchanged, which never makes progress.
type echoCompleter struct {
	calls int
}

func (c *echoCompleter) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	c.calls++
	return Completion{Text: req.Messages[len(req.Messages)-1].Content}, nil
}

// scriptedCompleter fails with errs in order and then succeeds with text.
type scriptedCompleter struct {
	errs  []error
	text  string
	calls int
	last  CompletionRequest
}

func (c *scriptedCompleter) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	c.calls++
	c.last = req
	if c.calls <= len(c.errs) {
		return Completion{}, c.errs[c.calls-1]
	}
	return Completion{Text: c.text, Usage: metrics.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}, nil
}

type mapStore struct {
	values map[string]string
	gets   int
	puts   int
	getErr error
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]string)}
}

func (s *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.gets++
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *mapStore) Put(_ context.Context, key, value string) error {
	s.puts++
	s.values[key] = value
	return nil
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestPolicy(maxAttempts int, sleeper *recordingSleeper) *RetryPolicy {
	policy := NewRetryPolicy(maxAttempts, newTestLogger())
	policy.Jitter = func() float64 { return 0.5 }
	policy.Sleep = sleeper.Sleep
	return policy
}

func newTestEngine(client Completer, store CacheStore, maxDepth int) *Engine {
	logger := newTestLogger()
	policy := newTestPolicy(3, &recordingSleeper{})
	memo := NewMemoizer(store, nil, logger)
	return NewEngine(Config{MaxDepth: maxDepth}, wordTokenizer{}, client, policy, memo, logger)
}

// sentences builds n five-word sentences terminated by periods.
func sentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("the quick brown fox jumps. ")
	}
	return strings.TrimSpace(b.String())
}

// numberedSentences builds n five-word sentences with distinct words, so no
// two sections share a cache key.
func numberedSentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "w%d w%d w%d w%d w%d.", 5*i, 5*i+1, 5*i+2, 5*i+3, 5*i+4)
	}
	return b.String()
}
