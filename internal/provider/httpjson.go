package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// HTTPJSONClient is a generic JSON-over-HTTP adapter for providers with
// no first-party Go SDK (Google, xAI). It speaks a minimal request/
// response shape compatible with both providers' chat completion
// endpoints and retries transient failures with backoff.
type HTTPJSONClient struct {
	providerName string
	baseURL      string
	apiKey       string
	httpClient   *http.Client
}

// NewHTTPJSONClient builds an adapter against baseURL, authenticating
// with apiKey via bearer header.
func NewHTTPJSONClient(providerName, baseURL, apiKey string) *HTTPJSONClient {
	return &HTTPJSONClient{
		providerName: providerName,
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 8,
			},
		},
	}
}

func (c *HTTPJSONClient) Name() string { return c.providerName }

type httpChatRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type httpChatResponse struct {
	Text       string `json:"text"`
	TokensIn   int    `json:"tokens_in"`
	TokensOut  int    `json:"tokens_out"`
	StopReason string `json:"stop_reason"`
}

func (c *HTTPJSONClient) Chat(ctx context.Context, modelID string, prompt string, params ChatParams) (*ChatResponse, error) {
	reqBody, err := json.Marshal(httpChatRequest{
		Model:       modelID,
		Prompt:      prompt,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return nil, &BadRequest{Provider: c.providerName, Detail: err.Error()}
	}

	var result *ChatResponse
	err = retry.Do(
		func() error {
			resp, doErr := c.doRequest(ctx, reqBody)
			if doErr != nil {
				if !IsRetryable(doErr) {
					return retry.Unrecoverable(doErr)
				}
				return doErr
			}
			result = resp
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

func (c *HTTPJSONClient) doRequest(ctx context.Context, body []byte) (*ChatResponse, error) {
	url := c.baseURL + "/v1/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Provider: c.providerName, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Provider: c.providerName, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Provider: c.providerName, Detail: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPStatus(c.providerName, resp.StatusCode, string(data), resp.Header.Get("Retry-After"))
	}

	var parsed httpChatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &BadRequest{Provider: c.providerName, Detail: fmt.Sprintf("malformed response body: %v", err)}
	}

	return &ChatResponse{
		Text:       parsed.Text,
		TokensIn:   parsed.TokensIn,
		TokensOut:  parsed.TokensOut,
		StopReason: parsed.StopReason,
	}, nil
}
