package provider

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	retry "github.com/avast/retry-go/v4"
)

// AnthropicClient wraps the Anthropic SDK's Messages API behind the
// provider Client contract.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient builds a client authenticated with apiKey. Extra
// SDK options (e.g. option.WithBaseURL for tests) are appended after
// the API key.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{client: anthropic.NewClient(all...)}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Chat(ctx context.Context, modelID string, prompt string, params ChatParams) (*ChatResponse, error) {
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	var result *ChatResponse
	err := retry.Do(
		func() error {
			resp, apiErr := c.client.Messages.New(ctx, anthropic.MessageNewParams{
				Model:     anthropic.Model(modelID),
				MaxTokens: int64(maxTokens),
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
				},
			})
			if apiErr != nil {
				translated := translateAnthropicError(apiErr)
				if !IsRetryable(translated) {
					return retry.Unrecoverable(translated)
				}
				return translated
			}

			text := ""
			for _, block := range resp.Content {
				if block.Type == "text" {
					text += block.Text
				}
			}
			result = &ChatResponse{
				Text:       text,
				TokensIn:   int(resp.Usage.InputTokens),
				TokensOut:  int(resp.Usage.OutputTokens),
				StopReason: string(resp.StopReason),
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// translateAnthropicError maps the SDK's error types onto this
// package's provider-agnostic taxonomy.
func translateAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyHTTPStatus("anthropic", apiErr.StatusCode, apiErr.Error(), "")
	}
	return &NetworkError{Provider: "anthropic", Detail: err.Error(), Err: err}
}
