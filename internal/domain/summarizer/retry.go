package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"time"

	apperrors "github.com/yanqian/booksum/pkg/errors"
)

const defaultMaxAttempts = 3

// FailureKind classifies a failed call to the generative service.
type FailureKind string

const (
	FailureConnectivity FailureKind = "connectivity"
	FailureRateLimit    FailureKind = "rate_limit"
	FailureService      FailureKind = "service"
	FailureNonRetryable FailureKind = "non_retryable"
)

// Retryable reports whether another attempt may succeed.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureConnectivity, FailureRateLimit, FailureService:
		return true
	default:
		return false
	}
}

// ServiceError is how Completer implementations label their failures.
type ServiceError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failure (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// RetryError is returned once the policy gives up on a call.
type RetryError struct {
	Kind     FailureKind
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failure after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Outcome tags the result of one attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

// Attempt is the tagged result of a single call.
type Attempt struct {
	Number     int
	Outcome    Outcome
	Kind       FailureKind
	Completion Completion
	Err        error
}

// Classifier maps a call error to a failure kind.
type Classifier func(err error) FailureKind

// ClassifyError trusts a *ServiceError when present. Cancellation is never
// retried and bare network errors count as connectivity failures.
func ClassifyError(err error) FailureKind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureNonRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureConnectivity
	}
	return FailureService
}

// RetryPolicy runs a call up to MaxAttempts times. Before attempt n+1 it waits
// uniform(1s, 5s) scaled by n.
type RetryPolicy struct {
	MaxAttempts int
	Classify    Classifier
	Jitter      func() float64 // uniform in [0, 1)
	Sleep       func(ctx context.Context, d time.Duration) error

	logger *slog.Logger
}

// NewRetryPolicy builds a policy with the production jitter and sleeper.
func NewRetryPolicy(maxAttempts int, logger *slog.Logger) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		Classify:    ClassifyError,
		Jitter:      rand.Float64,
		Sleep:       sleepContext,
		logger:      logger.With("component", "summarizer.retry"),
	}
}

// Do runs call until it succeeds, fails fatally, or exhausts the attempts.
func (p *RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) (Completion, error)) (Completion, error) {
	for n := 1; ; n++ {
		attempt := p.attempt(ctx, n, call)
		switch attempt.Outcome {
		case OutcomeSuccess:
			return attempt.Completion, nil
		case OutcomeFatal:
			p.logger.Error("llm call failed with non-retryable error", "attempt", attempt.Number, "kind", attempt.Kind, "error", attempt.Err)
			return Completion{}, apperrors.Wrap(CodeNonRetryable, "llm call aborted",
				&RetryError{Kind: attempt.Kind, Attempts: attempt.Number, Err: attempt.Err})
		}

		if attempt.Number >= p.MaxAttempts {
			p.logger.Error("llm call failed, attempts exhausted", "attempts", attempt.Number, "kind", attempt.Kind, "error", attempt.Err)
			return Completion{}, apperrors.Wrap(CodeRetriesExhausted, "llm call failed",
				&RetryError{Kind: attempt.Kind, Attempts: attempt.Number, Err: attempt.Err})
		}

		delay := p.Backoff(attempt.Number)
		p.logger.Warn("llm call failed, retrying", "attempt", attempt.Number, "max_attempts", p.MaxAttempts, "kind", attempt.Kind, "delay_ms", delay.Milliseconds(), "error", attempt.Err)
		if err := p.Sleep(ctx, delay); err != nil {
			return Completion{}, apperrors.Wrap(CodeNonRetryable, "llm retry interrupted",
				&RetryError{Kind: FailureNonRetryable, Attempts: attempt.Number, Err: err})
		}
	}
}

// Backoff returns the wait after the given failed attempt number.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	base := 1.0 + p.Jitter()*4.0
	return time.Duration(base * float64(attempt) * float64(time.Second))
}

func (p *RetryPolicy) attempt(ctx context.Context, n int, call func(ctx context.Context) (Completion, error)) Attempt {
	completion, err := call(ctx)
	if err == nil {
		return Attempt{Number: n, Outcome: OutcomeSuccess, Completion: completion}
	}
	kind := p.Classify(err)
	outcome := OutcomeFatal
	if kind.Retryable() {
		outcome = OutcomeRetryable
	}
	return Attempt{Number: n, Outcome: outcome, Kind: kind, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
