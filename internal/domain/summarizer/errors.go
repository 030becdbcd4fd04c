package summarizer

// Error codes carried by the AppErrors this package returns.
const (
	CodeInvalidInput     = "invalid_input"
	CodeConfig           = "config_error"
	CodePrecondition     = "precondition_failed"
	CodeRetriesExhausted = "llm_retries_exhausted"
	CodeNonRetryable     = "llm_non_retryable"
	CodeNoProgress       = "no_progress"
	CodeMaxDepthExceeded = "max_depth_exceeded"
	CodeCache            = "cache_error"
	CodeSource           = "source_error"
)
