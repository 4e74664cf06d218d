package provider

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	retry "github.com/avast/retry-go/v4"
)

// OpenAIClient wraps the OpenAI SDK's Chat Completions API behind the
// provider Client contract.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient builds a client authenticated with apiKey. Extra SDK
// options (e.g. option.WithBaseURL for tests) are appended after the
// API key.
func NewOpenAIClient(apiKey string, opts ...option.RequestOption) *OpenAIClient {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &OpenAIClient{client: openai.NewClient(all...)}
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Chat(ctx context.Context, modelID string, prompt string, params ChatParams) (*ChatResponse, error) {
	var result *ChatResponse
	err := retry.Do(
		func() error {
			resp, apiErr := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: modelID,
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.UserMessage(prompt),
				},
			})
			if apiErr != nil {
				translated := translateOpenAIError(apiErr)
				if !IsRetryable(translated) {
					return retry.Unrecoverable(translated)
				}
				return translated
			}

			if len(resp.Choices) == 0 {
				return retry.Unrecoverable(&BadRequest{Provider: "openai", Detail: "empty choices in completion response"})
			}

			result = &ChatResponse{
				Text:       resp.Choices[0].Message.Content,
				TokensIn:   int(resp.Usage.PromptTokens),
				TokensOut:  int(resp.Usage.CompletionTokens),
				StopReason: string(resp.Choices[0].FinishReason),
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

func translateOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyHTTPStatus("openai", apiErr.StatusCode, apiErr.Error(), "")
	}
	return &NetworkError{Provider: "openai", Detail: err.Error(), Err: err}
}
