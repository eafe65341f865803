// Package anthropicprovider implements the Anthropic-family Completion
// Provider variant (C3) on github.com/anthropics/anthropic-sdk-go, grounded
// on intelligencedev-manifold's internal/llm/anthropic client's streaming
// event loop.
package anthropicprovider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/tokenacct"
)

const defaultMaxTokens int64 = 4096

// Provider wraps an Anthropic Messages API client.
type Provider struct {
	sdk anthropic.Client
}

// New creates a Provider against the public Anthropic API.
func New(apiKey string) *Provider {
	return &Provider{sdk: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func toAnthropicMessages(messages []provider.Message) (system string, out []anthropic.MessageParam) {
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, out
}

func classifyErr(err error) *provider.Error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return &provider.Error{Class: provider.ErrorClassRateLimit, Err: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &provider.Error{Class: provider.ErrorClassAuth, Err: err}
		case http.StatusBadRequest:
			return &provider.Error{Class: provider.ErrorClassInvalid, Err: err}
		}
	}
	return &provider.Error{Class: provider.ErrorClassTransport, Err: err}
}

func (p *Provider) Stream(ctx context.Context, model string, messages []provider.Message, params provider.Params) (<-chan provider.Delta, <-chan error) {
	out := make(chan provider.Delta, 8)
	errCh := make(chan error, 1)

	system, converted := toAnthropicMessages(messages)
	maxTokens := int64(params.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  converted,
		MaxTokens: maxTokens,
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	go func() {
		defer close(out)
		defer close(errCh)

		stream := p.sdk.Messages.NewStreaming(ctx, req)
		defer stream.Close()

		var inputTokens, outputTokens int64
		var sawDelta bool
		for stream.Next() {
			event := stream.Current()
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if textDelta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && textDelta.Text != "" {
					sawDelta = true
					out <- provider.Delta{Text: textDelta.Text}
				}
			case anthropic.MessageStartEvent:
				inputTokens = ev.Message.Usage.InputTokens
			case anthropic.MessageDeltaEvent:
				outputTokens = ev.Usage.OutputTokens
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- classifyErr(err)
			return
		}
		if !sawDelta {
			out <- provider.Delta{Text: ""}
		}
		out <- provider.Delta{Usage: &provider.Usage{InputTokens: inputTokens, OutputTokens: outputTokens}}
	}()

	return out, errCh
}

func (p *Provider) CompleteStructured(ctx context.Context, model string, messages []provider.Message, jsonSchema []byte) ([]byte, error) {
	system, converted := toAnthropicMessages(messages)
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  converted,
		MaxTokens: defaultMaxTokens,
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.sdk.Messages.New(ctx, req)
	if err != nil {
		return nil, classifyErr(err)
	}
	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	if !json.Valid([]byte(text)) {
		return nil, &provider.Error{Class: provider.ErrorClassInvalid, Err: errors.New("anthropic: structured completion did not return valid JSON")}
	}
	return []byte(text), nil
}

func (p *Provider) CountTokens(model, text string) int {
	return tokenacct.CountTokens(model, text)
}
