package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/pkg/metrics"
)

// OpenAICompleter talks to any OpenAI compatible endpoint through go-openai.
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter builds a go-openai client. An empty baseURL keeps the
// library default.
func NewOpenAICompleter(apiKey, baseURL string, timeout time.Duration) (*OpenAICompleter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key cannot be empty")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(config)}, nil
}

// Complete sends one chat completion request and labels any failure.
func (c *OpenAICompleter) Complete(ctx context.Context, req summarizer.CompletionRequest) (summarizer.Completion, error) {
	payload := openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		return summarizer.Completion{}, classifyOpenAI(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return summarizer.Completion{}, &summarizer.ServiceError{Kind: summarizer.FailureService, Err: errors.New("chat completion returned no choices")}
	}
	return summarizer.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func classifyOpenAI(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &summarizer.ServiceError{Kind: kindForStatus(apiErr.HTTPStatusCode), StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &summarizer.ServiceError{Kind: kindForStatus(reqErr.HTTPStatusCode), StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	if ctx.Err() != nil {
		return transportFailure(ctx.Err())
	}
	return transportFailure(err)
}

var _ summarizer.Completer = (*OpenAICompleter)(nil)
