// Package mistralprovider implements the Mistral-family Completion Provider
// variant (C3). Mistral's API is OpenAI-wire-compatible, so this is a thin
// pkg/provider/openaiprovider pointed at Mistral's endpoint, grounded
// directly on storbeck-augustus's mistral generator (which does the same
// thing against go-openai).
package mistralprovider

import "github.com/agora-debate/agora/pkg/provider/openaiprovider"

// DefaultBaseURL is Mistral's OpenAI-compatible chat completions endpoint.
const DefaultBaseURL = "https://api.mistral.ai/v1"

// New creates a Provider against Mistral's API.
func New(apiKey string) *openaiprovider.Provider {
	return openaiprovider.NewWithBaseURL(apiKey, DefaultBaseURL)
}

// NewWithBaseURL creates a Provider against a custom Mistral-compatible
// endpoint (e.g. a self-hosted deployment).
func NewWithBaseURL(apiKey, baseURL string) *openaiprovider.Provider {
	return openaiprovider.NewWithBaseURL(apiKey, baseURL)
}
