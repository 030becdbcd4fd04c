package llm

import (
	"context"
	"errors"

	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/internal/infra/llm/chatgpt"
	"github.com/yanqian/booksum/pkg/metrics"
)

// ChatGPTCompleter adapts the raw ChatGPT client to the summarizer domain.
type ChatGPTCompleter struct {
	client *chatgpt.Client
}

// NewChatGPTCompleter constructs the adapter.
func NewChatGPTCompleter(client *chatgpt.Client) *ChatGPTCompleter {
	return &ChatGPTCompleter{client: client}
}

// Complete sends one chat completion request and labels any failure.
func (c *ChatGPTCompleter) Complete(ctx context.Context, req summarizer.CompletionRequest) (summarizer.Completion, error) {
	payload := chatgpt.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    make([]chatgpt.Message, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, chatgpt.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		var apiErr *chatgpt.APIError
		if errors.As(err, &apiErr) {
			return summarizer.Completion{}, &summarizer.ServiceError{Kind: kindForStatus(apiErr.StatusCode), StatusCode: apiErr.StatusCode, Err: err}
		}
		if ctx.Err() != nil {
			return summarizer.Completion{}, transportFailure(ctx.Err())
		}
		return summarizer.Completion{}, transportFailure(err)
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

var _ summarizer.Completer = (*ChatGPTCompleter)(nil)
