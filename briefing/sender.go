package briefing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/jsonapi"
)

// Sender performs a single chat completion request and returns the raw
// response. Only transport failures are returned as errors, the status code
// is left for the caller to interpret.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        *float64  `json:"top_p,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Completion responses are small; anything larger than this is not a
// completion.
const maxResponseBytes = 4 << 20

func NewHTTPSender(config Config) HTTPSender {
	config = config.withDefaults()
	return HTTPSender{
		url:    config.URL,
		apiKey: config.APIKey,
	}
}

// HTTPSender posts to an OpenAI compatible chat completions endpoint.
type HTTPSender struct {
	url    string
	apiKey string
}

func (s HTTPSender) Send(ctx context.Context, req Request) (resp Response, err error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(buf))
	if err != nil {
		return resp, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	res, err := jsonapi.Raw(httpReq, jsonapi.WithRequestHeader("Authorization", "Bearer "+s.apiKey))
	if err != nil {
		return resp, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	resp.StatusCode = res.StatusCode
	resp.Body, err = io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return resp, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, nil
}
