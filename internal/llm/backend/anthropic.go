package backend

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/pkg/streams"
	"github.com/neuraform/neuraform/internal/policy"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// anthropicAdapter speaks the Anthropic messages API.
type anthropicAdapter struct {
	base
}

func newAnthropic(desc policy.BackendDescriptor, client *httpclient.HttpClient) (Adapter, error) {
	if desc.BaseURL == "" {
		desc.BaseURL = anthropicDefaultBaseURL
	}

	return &anthropicAdapter{base{desc: desc, client: client}}, nil
}

func (a *anthropicAdapter) modelName() string {
	if a.desc.ModelName != "" {
		return a.desc.ModelName
	}

	return a.desc.ID
}

func (a *anthropicAdapter) buildRequest(request *llm.Request, stream bool) (*httpclient.Request, error) {
	body := []byte(`{}`)

	var err error
	if body, err = sjson.SetBytes(body, "model", a.modelName()); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "messages.0.role", "user"); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "messages.0.content", request.Prompt); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "max_tokens", a.maxTokens(request)); err != nil {
		return nil, err
	}

	if request.Temperature > 0 {
		if body, err = sjson.SetBytes(body, "temperature", request.Temperature); err != nil {
			return nil, err
		}
	}

	if stream {
		if body, err = sjson.SetBytes(body, "stream", true); err != nil {
			return nil, err
		}
	}

	return &httpclient.Request{
		Method: http.MethodPost,
		URL:    a.desc.BaseURL + "/v1/messages",
		Headers: http.Header{
			"Content-Type":      []string{"application/json"},
			"Anthropic-Version": []string{anthropicVersion},
		},
		Body: body,
		Auth: &httpclient.AuthConfig{
			Type:      httpclient.AuthTypeAPIKey,
			APIKey:    a.desc.APIKey,
			HeaderKey: "x-api-key",
		},
	}, nil
}

func (a *anthropicAdapter) Generate(ctx context.Context, request *llm.Request) (*llm.Response, error) {
	httpReq, err := a.buildRequest(request, false)
	if err != nil {
		return nil, err
	}

	httpResp, err := a.client.Do(ctx, httpReq)
	if err != nil {
		return nil, classify(err, a.desc.Provider, a.modelName())
	}

	result := gjson.ParseBytes(httpResp.Body)

	return &llm.Response{
		Text:     result.Get("content.0.text").String(),
		Model:    a.desc.ID,
		Provider: a.desc.Provider,
		Usage: llm.Usage{
			InputTokens:  result.Get("usage.input_tokens").Int(),
			OutputTokens: result.Get("usage.output_tokens").Int(),
		},
	}, nil
}

func (a *anthropicAdapter) StreamGenerate(ctx context.Context, request *llm.Request) (streams.Stream[*llm.Chunk], error) {
	httpReq, err := a.buildRequest(request, true)
	if err != nil {
		return nil, err
	}

	eventStream, err := a.client.DoStream(ctx, httpReq)
	if err != nil {
		return nil, classify(err, a.desc.Provider, a.modelName())
	}

	return newChunkStream(eventStream, extractAnthropicChunk), nil
}

func extractAnthropicChunk(event *httpclient.StreamEvent) (*llm.Chunk, bool, error) {
	result := gjson.ParseBytes(event.Data)

	switch event.Type {
	case "content_block_delta":
		return &llm.Chunk{Text: result.Get("delta.text").String()}, false, nil
	case "message_start":
		// Input token count arrives up front.
		if input := result.Get("message.usage.input_tokens"); input.Exists() {
			return &llm.Chunk{Usage: &llm.Usage{InputTokens: input.Int()}}, false, nil
		}

		return nil, false, nil
	case "message_delta":
		if usage := result.Get("usage"); usage.Exists() {
			return &llm.Chunk{
				Usage: &llm.Usage{
					InputTokens:  usage.Get("input_tokens").Int(),
					OutputTokens: usage.Get("output_tokens").Int(),
				},
			}, false, nil
		}

		return nil, false, nil
	case "message_stop":
		return nil, true, nil
	default:
		return nil, false, nil
	}
}

// IsAvailable sends a minimal one-token message as a liveness probe; the
// messages API has no listing endpoint that validates generation access.
func (a *anthropicAdapter) IsAvailable(ctx context.Context) bool {
	if a.desc.APIKey == "" {
		return false
	}

	httpReq, err := a.buildRequest(&llm.Request{Prompt: "ping", MaxTokens: 1}, false)
	if err != nil {
		return false
	}

	_, err = a.client.Do(ctx, httpReq)

	return err == nil
}
