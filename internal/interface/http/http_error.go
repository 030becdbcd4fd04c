package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/booksum/internal/domain/summarizer"
	apperrors "github.com/yanqian/booksum/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromDomainError maps summarizer error codes onto HTTP statuses. Errors
// without a code keep the fallback code and become 500s.
func fromDomainError(err error, fallback string) *HTTPError {
	status := http.StatusInternalServerError
	code := apperrors.CodeOf(err)
	switch code {
	case summarizer.CodeInvalidInput, summarizer.CodeConfig, summarizer.CodePrecondition, summarizer.CodeSource:
		status = http.StatusBadRequest
	case summarizer.CodeRetriesExhausted, summarizer.CodeNonRetryable:
		status = http.StatusBadGateway
	case summarizer.CodeNoProgress, summarizer.CodeMaxDepthExceeded:
		status = http.StatusUnprocessableEntity
	}
	if code == "" {
		code = fallback
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
