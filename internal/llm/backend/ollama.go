package backend

import (
	"bufio"
	"context"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/pkg/streams"
	"github.com/neuraform/neuraform/internal/policy"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// ollamaAdapter speaks the Ollama generate API. Ollama streams
// newline-delimited JSON rather than server-sent events.
type ollamaAdapter struct {
	base
}

func newOllama(desc policy.BackendDescriptor, client *httpclient.HttpClient) (Adapter, error) {
	if desc.BaseURL == "" {
		desc.BaseURL = ollamaDefaultBaseURL
	}

	return &ollamaAdapter{base{desc: desc, client: client}}, nil
}

func (a *ollamaAdapter) modelName() string {
	if a.desc.ModelName != "" {
		return a.desc.ModelName
	}

	return a.desc.ID
}

func (a *ollamaAdapter) buildRequest(request *llm.Request, stream bool) (*httpclient.Request, error) {
	body := []byte(`{}`)

	var err error
	if body, err = sjson.SetBytes(body, "model", a.modelName()); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "prompt", request.Prompt); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "stream", stream); err != nil {
		return nil, err
	}

	if body, err = sjson.SetBytes(body, "options.num_predict", a.maxTokens(request)); err != nil {
		return nil, err
	}

	if request.Temperature > 0 {
		if body, err = sjson.SetBytes(body, "options.temperature", request.Temperature); err != nil {
			return nil, err
		}
	}

	return &httpclient.Request{
		Method: http.MethodPost,
		URL:    a.desc.BaseURL + "/api/generate",
		Headers: http.Header{
			"Content-Type": []string{"application/json"},
		},
		Body: body,
	}, nil
}

func (a *ollamaAdapter) Generate(ctx context.Context, request *llm.Request) (*llm.Response, error) {
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
		Text:     result.Get("response").String(),
		Model:    a.desc.ID,
		Provider: a.desc.Provider,
		Usage: llm.Usage{
			InputTokens:  result.Get("prompt_eval_count").Int(),
			OutputTokens: result.Get("eval_count").Int(),
		},
	}, nil
}

func (a *ollamaAdapter) StreamGenerate(ctx context.Context, request *llm.Request) (streams.Stream[*llm.Chunk], error) {
	httpReq, err := a.buildRequest(request, true)
	if err != nil {
		return nil, err
	}

	body, err := a.client.DoRaw(ctx, httpReq)
	if err != nil {
		return nil, classify(err, a.desc.Provider, a.modelName())
	}

	return &ollamaStream{ctx: ctx, body: body, scanner: bufio.NewScanner(body)}, nil
}

// ollamaStream decodes newline-delimited JSON generate events.
type ollamaStream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	current *llm.Chunk
	err     error
	closed  bool
}

func (s *ollamaStream) Next() bool {
	if s.err != nil || s.closed {
		return false
	}

	for {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return false
		}

		if !s.scanner.Scan() {
			s.err = s.scanner.Err()
			return false
		}

		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		result := gjson.ParseBytes(line)

		chunk := &llm.Chunk{Text: result.Get("response").String()}

		if result.Get("done").Bool() {
			chunk.Usage = &llm.Usage{
				InputTokens:  result.Get("prompt_eval_count").Int(),
				OutputTokens: result.Get("eval_count").Int(),
			}
		}

		s.current = chunk

		return true
	}
}

func (s *ollamaStream) Current() *llm.Chunk {
	return s.current
}

func (s *ollamaStream) Err() error {
	return s.err
}

func (s *ollamaStream) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.body.Close()
}

// IsAvailable hits the version endpoint; a local daemon needs no key.
func (a *ollamaAdapter) IsAvailable(ctx context.Context) bool {
	_, err := a.client.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    a.desc.BaseURL + "/api/version",
	})

	return err == nil
}
