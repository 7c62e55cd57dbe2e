// Package httpclient is the shared HTTP transport of the backend
// adapters: plain request/response plus server-sent-event streaming.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/neuraform/neuraform/internal/pkg/streams"
)

// HttpClient executes provider requests.
type HttpClient struct {
	client *http.Client
}

// NewHttpClient creates a client with the default transport. Timeouts are
// the caller's responsibility via the request context.
func NewHttpClient() *HttpClient {
	return &HttpClient{client: &http.Client{}}
}

// NewHttpClientWithClient wraps an existing *http.Client. Used by tests to
// inject transports.
func NewHttpClientWithClient(client *http.Client) *HttpClient {
	return &HttpClient{client: client}
}

// Do executes a request and reads the full response body. A status code
// >= 400 is returned as *Error with the body preserved.
func (c *HttpClient) Do(ctx context.Context, request *Request) (*Response, error) {
	httpReq, err := c.buildHttpRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read response body: %w", err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{
			Method:     request.Method,
			URL:        request.URL,
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       body,
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}, nil
}

// DoStream executes a request and decodes the response body as a stream
// of server-sent events. The returned stream owns the response body;
// closing it releases the connection.
func (c *HttpClient) DoStream(ctx context.Context, request *Request) (streams.Stream[*StreamEvent], error) {
	httpReq, err := c.buildHttpRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "text/event-stream")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do stream request: %w", err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()

		return nil, &Error{
			Method:     request.Method,
			URL:        request.URL,
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       body,
		}
	}

	return NewSSEDecoder(ctx, httpResp.Body), nil
}

// DoRaw executes a request and hands the unread response body to the
// caller. Used for providers that stream in a non-SSE framing. The
// caller must close the body.
func (c *HttpClient) DoRaw(ctx context.Context, request *Request) (io.ReadCloser, error) {
	httpReq, err := c.buildHttpRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do raw request: %w", err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()

		return nil, &Error{
			Method:     request.Method,
			URL:        request.URL,
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       body,
		}
	}

	return httpResp.Body, nil
}

func (c *HttpClient) buildHttpRequest(ctx context.Context, request *Request) (*http.Request, error) {
	var body io.Reader
	if len(request.Body) > 0 {
		body = bytes.NewReader(request.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, request.Method, request.URL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}

	if len(request.Query) > 0 {
		q := httpReq.URL.Query()

		for key, values := range request.Query {
			for _, value := range values {
				q.Add(key, value)
			}
		}

		httpReq.URL.RawQuery = q.Encode()
	}

	for key, values := range request.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if request.Auth != nil {
		switch request.Auth.Type {
		case AuthTypeBearer:
			httpReq.Header.Set("Authorization", "Bearer "+request.Auth.APIKey)
		case AuthTypeAPIKey:
			headerKey := request.Auth.HeaderKey
			if headerKey == "" {
				headerKey = "X-Api-Key"
			}

			httpReq.Header.Set(headerKey, request.Auth.APIKey)
		}
	}

	return httpReq, nil
}
