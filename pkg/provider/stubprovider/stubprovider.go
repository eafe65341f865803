// Package stubprovider is a deterministic, in-process, no-network
// Completion Provider used by tests and local scenario fixtures — the
// offline-stub variant of C3.
package stubprovider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/tokenacct"
)

// Provider deterministically derives a reply from the prompt's content hash
// so tests can assert on exact output without a real model call.
type Provider struct {
	// DeltaWordCount controls how many words are emitted per streaming
	// delta; 0 means one delta for the whole reply.
	DeltaWordCount int
}

// New creates a stub Provider.
func New() *Provider {
	return &Provider{DeltaWordCount: 3}
}

func (p *Provider) Stream(ctx context.Context, model string, messages []provider.Message, params provider.Params) (<-chan provider.Delta, <-chan error) {
	out := make(chan provider.Delta, 8)
	errCh := make(chan error, 1)

	reply := p.deterministicReply(messages)
	inputTokens := 0
	for _, m := range messages {
		inputTokens += p.CountTokens(model, m.Content)
	}
	outputTokens := p.CountTokens(model, reply)

	go func() {
		defer close(out)
		defer close(errCh)

		words := strings.Fields(reply)
		chunk := p.DeltaWordCount
		if chunk <= 0 {
			chunk = len(words)
			if chunk == 0 {
				chunk = 1
			}
		}
		for i := 0; i < len(words); i += chunk {
			end := i + chunk
			if end > len(words) {
				end = len(words)
			}
			text := strings.Join(words[i:end], " ")
			if i > 0 {
				text = " " + text
			}
			select {
			case out <- provider.Delta{Text: text}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		out <- provider.Delta{Usage: &provider.Usage{InputTokens: int64(inputTokens), OutputTokens: int64(outputTokens)}}
	}()

	return out, errCh
}

func (p *Provider) CompleteStructured(ctx context.Context, model string, messages []provider.Message, jsonSchema []byte) ([]byte, error) {
	// The stub judge always declares the first participant the winner with a
	// fixed, schema-shaped response. Validating the result against jsonSchema
	// is the caller's responsibility.
	return []byte(`{"winner_participant":0,"reasoning":"stub judge: deterministic placeholder verdict","participant_scores":[{"participant_index":0,"score":5,"notes":"stub"}]}`), nil
}

func (p *Provider) CountTokens(model, text string) int {
	return tokenacct.CountTokens(model, text)
}

// deterministicReply hashes the prompt content into a short, reproducible
// sentence so identical prompts always produce identical replies.
func (p *Provider) deterministicReply(messages []provider.Message) string {
	h := sha256.New()
	for _, m := range messages {
		h.Write([]byte(m.Role))
		h.Write([]byte(m.Content))
	}
	digest := hex.EncodeToString(h.Sum(nil))[:12]
	return fmt.Sprintf("stub response %s: considering the prior turns, the position still holds.", digest)
}
