package briefing

import (
	"errors"
	"fmt"
	"time"

	"github.com/a-h/jsonapi"
)

const (
	DefaultURL         = "https://api.deepseek.com/v1/chat/completions"
	DefaultModel       = "deepseek-chat"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 30 * time.Second
)

// Config holds everything needed to talk to the completion endpoint.
type Config struct {
	URL    string
	APIKey string
	Model  string
	// Temperature must be within [0, 1].
	Temperature float64
	// TopP is only sent when non-zero.
	TopP      float64
	MaxTokens int
	// Timeout bounds the whole upstream call.
	Timeout time.Duration
	// PromptTemplate is a Go template that receives the document text as
	// {{ .document }}. Defaults to DefaultPromptTemplate.
	PromptTemplate string
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PromptTemplate == "" {
		c.PromptTemplate = DefaultPromptTemplate
	}
	return c
}

// Validate checks the model parameters. A missing API key is not reported
// here, it surfaces as a ConfigurationError on each Generate call.
func (c Config) Validate() error {
	c = c.withDefaults()
	var errs []error
	if _, err := jsonapi.URL(c.URL).String(); err != nil {
		errs = append(errs, fmt.Errorf("invalid URL %q: %w", c.URL, err))
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		errs = append(errs, fmt.Errorf("temperature %v is outside [0, 1]", c.Temperature))
	}
	if c.TopP < 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("top-p %v is outside [0, 1]", c.TopP))
	}
	return errors.Join(errs...)
}
