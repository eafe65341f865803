// Package openaiprovider implements the OpenAI-family Completion Provider
// variant (C3) on github.com/sashabaranov/go-openai, grounded on
// storbeck-augustus's openaicompat generator pattern.
package openaiprovider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/tokenacct"
)

// Provider wraps an OpenAI (or OpenAI-compatible, when BaseURL is set)
// chat-completions client.
type Provider struct {
	client *openai.Client
}

// New creates a Provider against the public OpenAI API.
func New(apiKey string) *Provider {
	return &Provider{client: openai.NewClient(apiKey)}
}

// NewWithBaseURL creates a Provider against an OpenAI-compatible endpoint
// (used directly by mistralprovider, which is OpenAI-wire-compatible).
func NewWithBaseURL(apiKey, baseURL string) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Provider{client: openai.NewClientWithConfig(cfg)}
}

func toOpenAIMessages(messages []provider.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func classifyErr(err error) *provider.Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return &provider.Error{Class: provider.ErrorClassRateLimit, Err: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &provider.Error{Class: provider.ErrorClassAuth, Err: err}
		case http.StatusBadRequest:
			if strings.Contains(apiErr.Message, "context") || strings.Contains(apiErr.Message, "maximum context length") {
				return &provider.Error{Class: provider.ErrorClassContextLength, Err: err}
			}
			return &provider.Error{Class: provider.ErrorClassInvalid, Err: err}
		}
	}
	return &provider.Error{Class: provider.ErrorClassTransport, Err: err}
}

func (p *Provider) Stream(ctx context.Context, model string, messages []provider.Message, params provider.Params) (<-chan provider.Delta, <-chan error) {
	out := make(chan provider.Delta, 8)
	errCh := make(chan error, 1)

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxOutputTokens,
		Stream:      true,
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		errCh <- classifyErr(err)
		close(out)
		close(errCh)
		return out, errCh
	}

	go func() {
		defer close(out)
		defer close(errCh)
		defer stream.Close()

		var inputTokens, outputTokens int64
		var sawDelta bool
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				errCh <- classifyErr(err)
				return
			}
			if resp.Usage != nil {
				inputTokens = int64(resp.Usage.PromptTokens)
				outputTokens = int64(resp.Usage.CompletionTokens)
			}
			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				sawDelta = true
				out <- provider.Delta{Text: resp.Choices[0].Delta.Content}
			}
		}
		if !sawDelta {
			out <- provider.Delta{Text: ""}
		}
		out <- provider.Delta{Usage: &provider.Usage{InputTokens: inputTokens, OutputTokens: outputTokens}}
	}()

	return out, errCh
}

func (p *Provider) CompleteStructured(ctx context.Context, model string, messages []provider.Message, jsonSchema []byte) ([]byte, error) {
	var schema map[string]any
	_ = json.Unmarshal(jsonSchema, &schema)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          model,
		Messages:       toOpenAIMessages(messages),
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, classifyErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &provider.Error{Class: provider.ErrorClassInvalid, Err: errors.New("openai: empty structured completion response")}
	}
	content := resp.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		return nil, &provider.Error{Class: provider.ErrorClassInvalid, Err: errors.New("openai: structured completion did not return valid JSON")}
	}
	return []byte(content), nil
}

func (p *Provider) CountTokens(model, text string) int {
	return tokenacct.CountTokens(model, text)
}
