package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ConfigurationError means the service cannot make upstream calls at all.
// Setting names the missing value, never its content.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("briefing: %s not configured", e.Setting)
}

type UpstreamKind string

const (
	// UpstreamTransport is a failure to get any response: refused
	// connections, DNS errors, timeouts and cancellation.
	UpstreamTransport UpstreamKind = "transport"
	// UpstreamStatus is a response with a non-2xx status code.
	UpstreamStatus UpstreamKind = "status"
	// UpstreamMalformed is a 2xx response that doesn't contain a message.
	UpstreamMalformed UpstreamKind = "malformed"
)

type UpstreamError struct {
	Kind       UpstreamKind
	StatusCode int
	// Code and Message are taken from an OpenAI style error body, if present.
	Code    string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case UpstreamStatus:
		var sb strings.Builder
		fmt.Fprintf(&sb, "briefing: upstream returned HTTP %d", e.StatusCode)
		if e.Code != "" {
			fmt.Fprintf(&sb, " (%s)", e.Code)
		}
		if e.Message != "" {
			fmt.Fprintf(&sb, ": %s", e.Message)
		}
		return sb.String()
	case UpstreamMalformed:
		return fmt.Sprintf("briefing: malformed upstream response: %v", e.Err)
	default:
		return fmt.Sprintf("briefing: upstream request failed: %v", e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call was abandoned because the deadline passed.
func (e *UpstreamError) Timeout() bool {
	if e.Kind != UpstreamTransport || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func newStatusError(resp Response) *UpstreamError {
	ue := &UpstreamError{
		Kind:       UpstreamStatus,
		StatusCode: resp.StatusCode,
	}
	var eb errorBody
	if err := json.Unmarshal(resp.Body, &eb); err == nil && eb.Error.Message != "" {
		ue.Message = eb.Error.Message
		ue.Code = eb.Error.Type
		if eb.Error.Code != nil {
			ue.Code = fmt.Sprint(eb.Error.Code)
		}
		return ue
	}
	ue.Message = strings.TrimSpace(truncateBody(resp.Body, 256))
	return ue
}

func truncateBody(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
