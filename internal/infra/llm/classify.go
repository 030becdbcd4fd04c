package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/yanqian/booksum/internal/domain/summarizer"
)

// kindForStatus maps an HTTP status from the API to a failure kind.
func kindForStatus(status int) summarizer.FailureKind {
	switch {
	case status == http.StatusTooManyRequests:
		return summarizer.FailureRateLimit
	case status == http.StatusRequestTimeout, status == http.StatusConflict, status >= 500:
		return summarizer.FailureService
	case status >= 400:
		return summarizer.FailureNonRetryable
	default:
		return summarizer.FailureService
	}
}

// transportFailure labels an error that happened before any status was read.
func transportFailure(err error) *summarizer.ServiceError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &summarizer.ServiceError{Kind: summarizer.FailureNonRetryable, Err: err}
	}
	return &summarizer.ServiceError{Kind: summarizer.FailureConnectivity, Err: err}
}
