package httpclient

import (
	"net/http"
	"net/url"
)

// Request represents a generic HTTP request that can be adapted to
// different providers.
type Request struct {
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Query   url.Values  `json:"query,omitempty"`
	Headers http.Header `json:"headers,omitempty"`
	Body    []byte      `json:"body,omitempty"`

	// Auth is applied when building the outgoing request.
	Auth *AuthConfig `json:"auth,omitempty"`

	// RequestID tracks the request through logs.
	RequestID string `json:"request_id,omitempty"`
}

// AuthConfig represents authentication configuration.
type AuthConfig struct {
	// Type is "bearer" or "api_key".
	Type string `json:"type"`

	// APIKey is the credential value.
	APIKey string `json:"api_key,omitempty"`

	// HeaderKey is the header name when Type is "api_key".
	HeaderKey string `json:"header_key,omitempty"`
}

const (
	AuthTypeBearer = "bearer"
	AuthTypeAPIKey = "api_key"
)

// Response represents a generic HTTP response.
type Response struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers,omitempty"`

	// Body holds the full payload for non-streaming responses.
	Body []byte `json:"body,omitempty"`
}

// StreamEvent is one decoded server-sent event.
type StreamEvent struct {
	LastEventID string `json:"last_event_id,omitempty"`
	Type        string `json:"type"`
	Data        []byte `json:"data"`
}
