// Package llm defines the unified generation request and response model
// shared by every backend adapter.
package llm

import (
	"strings"
)

// Request is the unified generation request. The prompt is fully
// assembled by the router before reaching an adapter.
type Request struct {
	// Model is the provider-side model name.
	Model string `json:"model"`

	// Prompt is the assembled prompt text.
	Prompt string `json:"prompt"`

	// MaxTokens caps the generated output. Zero means the backend's
	// descriptor limit applies.
	MaxTokens int64 `json:"max_tokens,omitempty"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature,omitempty"`
}

// Usage is the token accounting reported by a backend.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Reported reports whether the backend supplied real token counts.
func (u Usage) Reported() bool {
	return u.InputTokens > 0 || u.OutputTokens > 0
}

// Response is the unified generation response.
type Response struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Usage    Usage  `json:"usage"`
}

// Chunk is one streamed text delta.
type Chunk struct {
	Text string `json:"text"`

	// Usage is only populated on the final chunk, when the backend
	// reports counts at end of stream.
	Usage *Usage `json:"usage,omitempty"`
}

// EstimateTokens approximates a token count by whitespace splitting. Used
// when a backend does not report counts.
func EstimateTokens(text string) int64 {
	return int64(len(strings.Fields(text)))
}
