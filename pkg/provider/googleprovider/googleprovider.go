// Package googleprovider implements the Google-family Completion Provider
// variant (C3) on google.golang.org/genai, grounded on
// intelligencedev-manifold's internal/llm/google client.
package googleprovider

import (
	"context"
	"encoding/json"
	"errors"

	genai "google.golang.org/genai"

	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/tokenacct"
)

// Provider wraps a genai.Client for the Gemini family.
type Provider struct {
	client *genai.Client
}

// New creates a Provider against the public Gemini API.
func New(ctx context.Context, apiKey string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, &provider.Error{Class: provider.ErrorClassAuth, Err: err}
	}
	return &Provider{client: client}, nil
}

func toContents(messages []provider.Message) (systemInstruction *genai.Content, contents []*genai.Content) {
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		part := genai.NewPartFromText(m.Content)
		content := genai.NewContentFromParts([]*genai.Part{part}, role)
		if m.Role == "system" {
			systemInstruction = content
			continue
		}
		contents = append(contents, content)
	}
	return systemInstruction, contents
}

func (p *Provider) Stream(ctx context.Context, model string, messages []provider.Message, params provider.Params) (<-chan provider.Delta, <-chan error) {
	out := make(chan provider.Delta, 8)
	errCh := make(chan error, 1)

	system, contents := toContents(messages)
	cfg := &genai.GenerateContentConfig{}
	if system != nil {
		cfg.SystemInstruction = system
	}
	if params.Temperature > 0 {
		t := float32(params.Temperature)
		cfg.Temperature = &t
	}

	go func() {
		defer close(out)
		defer close(errCh)

		var inputTokens, outputTokens int64
		var sawDelta bool
		for resp, err := range p.client.Models.GenerateContentStream(ctx, model, contents, cfg) {
			if err != nil {
				errCh <- &provider.Error{Class: provider.ErrorClassTransport, Err: err}
				return
			}
			if resp.UsageMetadata != nil {
				inputTokens = int64(resp.UsageMetadata.PromptTokenCount)
				outputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
			}
			text := resp.Text()
			if text != "" {
				sawDelta = true
				out <- provider.Delta{Text: text}
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
	system, contents := toContents(messages)
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if system != nil {
		cfg.SystemInstruction = system
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, &provider.Error{Class: provider.ErrorClassTransport, Err: err}
	}
	text := resp.Text()
	if !json.Valid([]byte(text)) {
		return nil, &provider.Error{Class: provider.ErrorClassInvalid, Err: errors.New("google: structured completion did not return valid JSON")}
	}
	return []byte(text), nil
}

func (p *Provider) CountTokens(model, text string) int {
	return tokenacct.CountTokens(model, text)
}
