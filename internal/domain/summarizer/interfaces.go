package summarizer

import "context"

// Tokenizer counts tokens the way the target model does. It must be
// deterministic or every budget computed from it is meaningless.
type Tokenizer interface {
	Count(text string) int
}

// Completer issues one request to the generative text service. Failures
// should be returned as *ServiceError so the retry policy can classify them.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// CacheStore is the persistence contract for memoized results.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// SourceLoader resolves a source reference (path, URL, object key) to text.
type SourceLoader interface {
	Load(ctx context.Context, ref string) (string, error)
}
