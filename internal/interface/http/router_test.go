package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/internal/infra/config"
	apperrors "github.com/yanqian/booksum/pkg/errors"
)

func TestRouter_SummarizeSuccess(t *testing.T) {
	resp := summarizer.Response{
		InputTokens: 12,
		Summaries: []summarizer.TargetSummary{
			{TargetSize: 500, Summary: "short summary", TokenCount: 2, Calls: 1},
		},
	}
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			require.Equal(t, "hello world", req.Text)
			require.Equal(t, []int{500}, req.TargetSizes)
			return resp, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/summaries", `{"text":"hello world","targetSizes":[500]}`, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got summarizer.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, resp, got)
}

func TestRouter_SummarizeInvalidJSON(t *testing.T) {
	svc := &stubSummarizer{}

	recorder := performRequest(http.MethodPost, "/api/v1/summaries", `{"text":123}`, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_SummarizeDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid input", err: apperrors.Wrap(summarizer.CodeInvalidInput, "text cannot be empty", nil), wantStatus: http.StatusBadRequest, wantCode: summarizer.CodeInvalidInput},
		{name: "budget", err: apperrors.Wrap(summarizer.CodeConfig, "no room", nil), wantStatus: http.StatusBadRequest, wantCode: summarizer.CodeConfig},
		{name: "synthesis too large", err: apperrors.Wrap(summarizer.CodePrecondition, "too long", nil), wantStatus: http.StatusBadRequest, wantCode: summarizer.CodePrecondition},
		{name: "llm exhausted", err: apperrors.Wrap(summarizer.CodeRetriesExhausted, "llm call failed", errors.New("503")), wantStatus: http.StatusBadGateway, wantCode: summarizer.CodeRetriesExhausted},
		{name: "llm rejected", err: apperrors.Wrap(summarizer.CodeNonRetryable, "llm call aborted", nil), wantStatus: http.StatusBadGateway, wantCode: summarizer.CodeNonRetryable},
		{name: "no progress", err: apperrors.Wrap(summarizer.CodeNoProgress, "stuck", nil), wantStatus: http.StatusUnprocessableEntity, wantCode: summarizer.CodeNoProgress},
		{name: "uncoded", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantCode: "summarize_failed"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubSummarizer{
				summarizeFn: func(context.Context, summarizer.Request) (summarizer.Response, error) {
					return summarizer.Response{}, tt.err
				},
			}

			recorder := performRequest(http.MethodPost, "/api/v1/summaries", `{"text":"x"}`, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
			require.Equal(t, tt.wantStatus, recorder.Code)

			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tt.wantCode, errBody["error"]["code"])
			require.NotEmpty(t, errBody["error"]["message"])
		})
	}
}

func TestRouter_Plan(t *testing.T) {
	svc := &stubSummarizer{
		planFn: func(ctx context.Context, req summarizer.PlanRequest) (summarizer.Params, error) {
			require.Equal(t, summarizer.PlanRequest{TargetSize: 500, ContextSize: 16000}, req)
			return summarizer.Params{TargetSummarySize: 500, SummaryInputSize: 15400}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/plan", `{"targetSize":500,"contextSize":16000}`, newRouterUnderTest(t, svc, config.RateLimitConfig{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got summarizer.Params
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, 15400, got.SummaryInputSize)
}

func TestRouter_HealthAndCacheStats(t *testing.T) {
	server := newRouterUnderTest(t, &stubSummarizer{}, config.RateLimitConfig{})

	recorder := performRequest(http.MethodGet, "/healthz", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = performRequest(http.MethodGet, "/api/v1/cache/stats", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"entries":3}`, recorder.Body.String())
}

func TestRouter_RateLimitsSummaries(t *testing.T) {
	limits := config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: summarizeCost}
	server := newRouterUnderTest(t, &stubSummarizer{}, limits)

	first := performRequest(http.MethodPost, "/api/v1/summaries", `{"text":"x"}`, server)
	require.Equal(t, http.StatusOK, first.Code)

	second := performRequest(http.MethodPost, "/api/v1/summaries", `{"text":"x"}`, server)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.NotEmpty(t, second.Header().Get("Retry-After"))

	plan := performRequest(http.MethodPost, "/api/v1/plan", `{"targetSize":10}`, server)
	require.Equal(t, http.StatusOK, plan.Code)
}

func TestIPRateLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	limiter := newIPRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 2}, func() time.Time { return now })

	_, ok := limiter.take("1.2.3.4", 2)
	require.True(t, ok)
	wait, ok := limiter.take("1.2.3.4", 1)
	require.False(t, ok)
	require.Equal(t, 1, wait)

	now = now.Add(time.Second)
	_, ok = limiter.take("1.2.3.4", 1)
	require.True(t, ok)

	_, ok = limiter.take("5.6.7.8", 1)
	require.True(t, ok)
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc summarizer.Service, limits config.RateLimitConfig) *http.Server {
	t.Helper()
	handler := NewSummaryHandler(svc, stubCache{entries: 3}, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			RateLimit:    limits,
		},
	}
	return NewRouter(cfg, handler)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubSummarizer struct {
	summarizeFn func(ctx context.Context, req summarizer.Request) (summarizer.Response, error)
	planFn      func(ctx context.Context, req summarizer.PlanRequest) (summarizer.Params, error)
}

func (s *stubSummarizer) Summarize(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, req)
	}
	return summarizer.Response{}, nil
}

func (s *stubSummarizer) Plan(ctx context.Context, req summarizer.PlanRequest) (summarizer.Params, error) {
	if s.planFn != nil {
		return s.planFn(ctx, req)
	}
	return summarizer.Params{}, nil
}

type stubCache struct {
	entries int
}

func (s stubCache) Len(context.Context) (int, error) {
	return s.entries, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
