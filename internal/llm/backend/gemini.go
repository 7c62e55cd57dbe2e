package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/pkg/streams"
	"github.com/neuraform/neuraform/internal/policy"
)

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"

// geminiAdapter speaks the Gemini generateContent API.
type geminiAdapter struct {
	base
}

func newGemini(desc policy.BackendDescriptor, client *httpclient.HttpClient) (Adapter, error) {
	if desc.BaseURL == "" {
		desc.BaseURL = geminiDefaultBaseURL
	}

	return &geminiAdapter{base{desc: desc, client: client}}, nil
}

func (a *geminiAdapter) modelName() string {
	if a.desc.ModelName != "" {
		return a.desc.ModelName
	}

	return a.desc.ID
}

func (a *geminiAdapter) buildRequest(request *llm.Request, stream bool) (*httpclient.Request, error) {
	body := []byte(`{}`)

	var err error
	if body, err = sjson.SetBytes(body, "contents.0.role", "user"); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "contents.0.parts.0.text", request.Prompt); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "generationConfig.maxOutputTokens", a.maxTokens(request)); err != nil {
		return nil, err
	}

	if request.Temperature > 0 {
		if body, err = sjson.SetBytes(body, "generationConfig.temperature", request.Temperature); err != nil {
			return nil, err
		}
	}

	action := ":generateContent"
	query := url.Values{"key": []string{a.desc.APIKey}}

	if stream {
		action = ":streamGenerateContent"
		query.Set("alt", "sse")
	}

	return &httpclient.Request{
		Method: http.MethodPost,
		URL:    a.desc.BaseURL + "/v1beta/models/" + a.modelName() + action,
		Query:  query,
		Headers: http.Header{
			"Content-Type": []string{"application/json"},
		},
		Body: body,
	}, nil
}

func (a *geminiAdapter) Generate(ctx context.Context, request *llm.Request) (*llm.Response, error) {
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
		Text:     result.Get("candidates.0.content.parts.0.text").String(),
		Model:    a.desc.ID,
		Provider: a.desc.Provider,
		Usage: llm.Usage{
			InputTokens:  result.Get("usageMetadata.promptTokenCount").Int(),
			OutputTokens: result.Get("usageMetadata.candidatesTokenCount").Int(),
		},
	}, nil
}

func (a *geminiAdapter) StreamGenerate(ctx context.Context, request *llm.Request) (streams.Stream[*llm.Chunk], error) {
	httpReq, err := a.buildRequest(request, true)
	if err != nil {
		return nil, err
	}

	eventStream, err := a.client.DoStream(ctx, httpReq)
	if err != nil {
		return nil, classify(err, a.desc.Provider, a.modelName())
	}

	return newChunkStream(eventStream, extractGeminiChunk), nil
}

func extractGeminiChunk(event *httpclient.StreamEvent) (*llm.Chunk, bool, error) {
	result := gjson.ParseBytes(event.Data)

	chunk := &llm.Chunk{
		Text: result.Get("candidates.0.content.parts.0.text").String(),
	}

	// Every event carries cumulative usage; the last one wins.
	if usage := result.Get("usageMetadata"); usage.Exists() {
		chunk.Usage = &llm.Usage{
			InputTokens:  usage.Get("promptTokenCount").Int(),
			OutputTokens: usage.Get("candidatesTokenCount").Int(),
		}
	}

	if chunk.Text == "" && chunk.Usage == nil {
		return nil, false, nil
	}

	return chunk, false, nil
}

// IsAvailable fetches the model resource as a liveness probe.
func (a *geminiAdapter) IsAvailable(ctx context.Context) bool {
	if a.desc.APIKey == "" {
		return false
	}

	_, err := a.client.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    a.desc.BaseURL + "/v1beta/models/" + a.modelName(),
		Query:  url.Values{"key": []string{a.desc.APIKey}},
	})

	return err == nil
}
