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
	openaiDefaultBaseURL = "https://api.openai.com"
	openaiDoneSentinel   = "[DONE]"
)

// openaiAdapter speaks the OpenAI chat completions API.
type openaiAdapter struct {
	base
}

func newOpenAI(desc policy.BackendDescriptor, client *httpclient.HttpClient) (Adapter, error) {
	if desc.BaseURL == "" {
		desc.BaseURL = openaiDefaultBaseURL
	}

	return &openaiAdapter{base{desc: desc, client: client}}, nil
}

func (a *openaiAdapter) modelName() string {
	if a.desc.ModelName != "" {
		return a.desc.ModelName
	}

	return a.desc.ID
}

func (a *openaiAdapter) buildRequest(request *llm.Request, stream bool) (*httpclient.Request, error) {
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

		if body, err = sjson.SetBytes(body, "stream_options.include_usage", true); err != nil {
			return nil, err
		}
	}

	return &httpclient.Request{
		Method: http.MethodPost,
		URL:    a.desc.BaseURL + "/v1/chat/completions",
		Headers: http.Header{
			"Content-Type": []string{"application/json"},
		},
		Body: body,
		Auth: &httpclient.AuthConfig{
			Type:   httpclient.AuthTypeBearer,
			APIKey: a.desc.APIKey,
		},
	}, nil
}

func (a *openaiAdapter) Generate(ctx context.Context, request *llm.Request) (*llm.Response, error) {
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
		Text:     result.Get("choices.0.message.content").String(),
		Model:    a.desc.ID,
		Provider: a.desc.Provider,
		Usage: llm.Usage{
			InputTokens:  result.Get("usage.prompt_tokens").Int(),
			OutputTokens: result.Get("usage.completion_tokens").Int(),
		},
	}, nil
}

func (a *openaiAdapter) StreamGenerate(ctx context.Context, request *llm.Request) (streams.Stream[*llm.Chunk], error) {
	httpReq, err := a.buildRequest(request, true)
	if err != nil {
		return nil, err
	}

	eventStream, err := a.client.DoStream(ctx, httpReq)
	if err != nil {
		return nil, classify(err, a.desc.Provider, a.modelName())
	}

	return newChunkStream(eventStream, extractOpenAIChunk), nil
}

func extractOpenAIChunk(event *httpclient.StreamEvent) (*llm.Chunk, bool, error) {
	data := string(event.Data)
	if data == openaiDoneSentinel {
		return nil, true, nil
	}

	result := gjson.Parse(data)

	chunk := &llm.Chunk{
		Text: result.Get("choices.0.delta.content").String(),
	}

	// The usage-only event arrives after the last content delta.
	if usage := result.Get("usage"); usage.Exists() {
		chunk.Usage = &llm.Usage{
			InputTokens:  usage.Get("prompt_tokens").Int(),
			OutputTokens: usage.Get("completion_tokens").Int(),
		}
	}

	if chunk.Text == "" && chunk.Usage == nil {
		return nil, false, nil
	}

	return chunk, false, nil
}

// IsAvailable lists models as a cheap authenticated liveness probe.
func (a *openaiAdapter) IsAvailable(ctx context.Context) bool {
	if a.desc.APIKey == "" {
		return false
	}

	_, err := a.client.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    a.desc.BaseURL + "/v1/models",
		Auth: &httpclient.AuthConfig{
			Type:   httpclient.AuthTypeBearer,
			APIKey: a.desc.APIKey,
		},
	})

	return err == nil
}
