package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/booksum/pkg/errors"
)

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	client := &scriptedCompleter{
		errs: []error{
			&ServiceError{Kind: FailureRateLimit, StatusCode: 429, Err: errors.New("slow down")},
			&ServiceError{Kind: FailureConnectivity, Err: errors.New("connection reset")},
		},
		text: "done",
	}
	sleeper := &recordingSleeper{}
	policy := newTestPolicy(3, sleeper)

	got, err := policy.Do(context.Background(), func(ctx context.Context) (Completion, error) {
		return client.Complete(ctx, CompletionRequest{Messages: []Message{{Role: "user"}}})
	})
	require.NoError(t, err)
	require.Equal(t, "done", got.Text)
	require.Equal(t, 3, client.calls)
	require.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, sleeper.delays)
}

func TestRetryPolicyLogsAttemptNumbers(t *testing.T) {
	var buf bytes.Buffer
	policy := NewRetryPolicy(3, slog.New(slog.NewJSONHandler(&buf, nil)))
	policy.Jitter = func() float64 { return 0 }
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	fail := &ServiceError{Kind: FailureService, StatusCode: 503, Err: errors.New("unavailable")}

	_, err := policy.Do(context.Background(), func(context.Context) (Completion, error) {
		return Completion{}, fail
	})
	require.Error(t, err)

	type line struct {
		Msg      string `json:"msg"`
		Attempt  int    `json:"attempt"`
		Attempts int    `json:"attempts"`
		DelayMs  int64  `json:"delay_ms"`
	}
	var lines []line
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var l line
		require.NoError(t, dec.Decode(&l))
		lines = append(lines, l)
	}
	require.Equal(t, []line{
		{Msg: "llm call failed, retrying", Attempt: 1, DelayMs: 1000},
		{Msg: "llm call failed, retrying", Attempt: 2, DelayMs: 2000},
		{Msg: "llm call failed, attempts exhausted", Attempts: 3},
	}, lines)
}

func TestRetryPolicyAbortsOnNonRetryable(t *testing.T) {
	client := &scriptedCompleter{
		errs: []error{&ServiceError{Kind: FailureNonRetryable, StatusCode: 401, Err: errors.New("bad key")}},
		text: "never",
	}
	sleeper := &recordingSleeper{}
	policy := newTestPolicy(3, sleeper)

	_, err := policy.Do(context.Background(), func(ctx context.Context) (Completion, error) {
		return client.Complete(ctx, CompletionRequest{Messages: []Message{{Role: "user"}}})
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, CodeNonRetryable))
	require.Equal(t, 1, client.calls)
	require.Empty(t, sleeper.delays)

	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	require.Equal(t, 1, retryErr.Attempts)
	require.Equal(t, FailureNonRetryable, retryErr.Kind)
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	failure := &ServiceError{Kind: FailureService, StatusCode: 500, Err: errors.New("boom")}
	client := &scriptedCompleter{errs: []error{failure, failure, failure, failure}}
	sleeper := &recordingSleeper{}
	policy := newTestPolicy(3, sleeper)

	_, err := policy.Do(context.Background(), func(ctx context.Context) (Completion, error) {
		return client.Complete(ctx, CompletionRequest{Messages: []Message{{Role: "user"}}})
	})
	require.True(t, apperrors.IsCode(err, CodeRetriesExhausted))
	require.Equal(t, 3, client.calls)
	require.Len(t, sleeper.delays, 2)

	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	require.Equal(t, 3, retryErr.Attempts)
	require.Equal(t, FailureService, retryErr.Kind)
	require.ErrorIs(t, err, failure)
}

func TestRetryPolicyStopsWhenSleepInterrupted(t *testing.T) {
	client := &scriptedCompleter{errs: []error{&ServiceError{Kind: FailureService, Err: errors.New("boom")}}}
	policy := newTestPolicy(3, &recordingSleeper{})
	policy.Sleep = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := policy.Do(context.Background(), func(ctx context.Context) (Completion, error) {
		return client.Complete(ctx, CompletionRequest{Messages: []Message{{Role: "user"}}})
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, client.calls)
}

func TestRetryPolicyBackoff(t *testing.T) {
	tests := []struct {
		name    string
		jitter  float64
		attempt int
		want    time.Duration
	}{
		{name: "minimum first attempt", jitter: 0, attempt: 1, want: time.Second},
		{name: "midpoint second attempt", jitter: 0.5, attempt: 2, want: 6 * time.Second},
		{name: "scales linearly", jitter: 0.25, attempt: 4, want: 8 * time.Second},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			policy := newTestPolicy(3, &recordingSleeper{})
			policy.Jitter = func() float64 { return tt.jitter }
			require.Equal(t, tt.want, policy.Backoff(tt.attempt))
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "labelled", err: fmt.Errorf("wrapped: %w", &ServiceError{Kind: FailureRateLimit}), want: FailureRateLimit},
		{name: "canceled", err: context.Canceled, want: FailureNonRetryable},
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: FailureConnectivity},
		{name: "unknown", err: errors.New("odd"), want: FailureService},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}
