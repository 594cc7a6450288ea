// Package briefing asks a chat completion endpoint to turn document text into
// a structured briefing.
package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/prompts"
)

// NoContentMessage is returned instead of calling the model when there is no
// text to brief on.
const NoContentMessage = "No extractable content: the document contains no readable text (it may consist of scanned images)."

func New(log *slog.Logger, config Config, sender Sender) (*Generator, error) {
	config = config.withDefaults()
	pt, err := newPromptTemplate(config.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("briefing: %w", err)
	}
	return &Generator{
		log:    log,
		config: config,
		prompt: pt,
		sender: sender,
	}, nil
}

// Generator is safe for concurrent use.
type Generator struct {
	log    *slog.Logger
	config Config
	prompt prompts.PromptTemplate
	sender Sender
}

type Result struct {
	Text  string
	Empty bool
	Model string
}

// KeyPoints returns up to n non-blank lines of the briefing.
func (r Result) KeyPoints(n int) (lines []string) {
	if n <= 0 {
		return nil
	}
	for _, line := range strings.Split(r.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}

func (g *Generator) Generate(ctx context.Context, text string) (result Result, err error) {
	if strings.TrimSpace(text) == "" {
		g.log.Info("no extractable content, skipping model call")
		return Result{Text: NoContentMessage, Empty: true}, nil
	}
	if g.config.APIKey == "" {
		return result, &ConfigurationError{Setting: "API key"}
	}

	req, err := g.newRequest(text)
	if err != nil {
		return result, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.sender.Send(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		ue := &UpstreamError{Kind: UpstreamTransport, Err: err}
		g.log.Error("upstream request failed",
			slog.String("kind", string(ue.Kind)),
			slog.Bool("timeout", ue.Timeout()),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
		return result, ue
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ue := newStatusError(resp)
		g.log.Error("upstream returned an error status",
			slog.String("kind", string(ue.Kind)),
			slog.Int("status", ue.StatusCode),
			slog.String("code", ue.Code),
			slog.String("message", ue.Message))
		return result, ue
	}
	content, err := parseContent(resp.Body)
	if err != nil {
		ue := &UpstreamError{Kind: UpstreamMalformed, StatusCode: resp.StatusCode, Err: err}
		g.log.Error("upstream response was malformed",
			slog.String("kind", string(ue.Kind)),
			slog.Int("bodyLength", len(resp.Body)),
			slog.Any("error", err))
		return result, ue
	}

	g.log.Info("briefing generated",
		slog.String("model", req.Model),
		slog.Int("promptLength", len(req.Messages[0].Content)),
		slog.Int("briefingLength", len(content)),
		slog.Duration("elapsed", time.Since(start)))
	return Result{Text: content, Model: req.Model}, nil
}

func (g *Generator) newRequest(text string) (req Request, err error) {
	prompt, err := g.prompt.Format(map[string]any{documentVariable: text})
	if err != nil {
		return req, fmt.Errorf("briefing: failed to build prompt: %w", err)
	}
	req = Request{
		Model: g.config.Model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	}
	if g.config.TopP > 0 {
		topP := g.config.TopP
		req.TopP = &topP
	}
	return req, nil
}

type completion struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func parseContent(body []byte) (string, error) {
	var c completion
	if err := json.Unmarshal(body, &c); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	if len(c.Choices) == 0 {
		return "", errors.New("no choices")
	}
	if c.Choices[0].Message == nil {
		return "", errors.New("choice has no message")
	}
	if c.Choices[0].Message.Content == nil {
		return "", errors.New("message has no content")
	}
	content := *c.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("message content is empty")
	}
	return content, nil
}
