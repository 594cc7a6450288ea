package post

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/a-h/policybrief/briefing"
	"github.com/a-h/policybrief/extract"
	"github.com/a-h/policybrief/models"
	"github.com/google/go-cmp/cmp"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type pages []string

func (p pages) NumPage() int                   { return len(p) }
func (p pages) PageText(n int) (string, error) { return p[n-1], nil }

func openerFor(doc extract.Document, err error) extract.Opener {
	return func([]byte) (extract.Document, error) { return doc, err }
}

type recordingSender struct {
	resp     briefing.Response
	requests []briefing.Request
}

func (s *recordingSender) Send(ctx context.Context, req briefing.Request) (briefing.Response, error) {
	s.requests = append(s.requests, req)
	return s.resp, nil
}

type fakeGenerator struct {
	result briefing.Result
	err    error
	calls  int
}

func (g *fakeGenerator) Generate(ctx context.Context, text string) (briefing.Result, error) {
	g.calls++
	return g.result, g.err
}

func newUpload(t *testing.T, field, filename, mediaType string, data []byte) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", mediaType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err = part.Write(data); err != nil {
		t.Fatalf("failed to write part: %v", err)
	}
	if err = mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/briefings", body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

var pdfBytes = []byte("%PDF-1.4 stand-in")

func TestBriefingsPost(t *testing.T) {
	content := "## Executive Summary\nThe act restructures funding.\n\n## Key Impacts\n| Sector | Severity | Affected Groups |\n|---|---|---|\n| Health | High | Patients |\n\n## Urgency Rating\n★★★★☆\n\n## Recommended Next Steps\n- Consult\n- Model costs\n- Brief ministers"
	sender := &recordingSender{
		resp: briefing.Response{
			StatusCode: http.StatusOK,
			Body:       mustJSON(t, map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": content}}}}),
		},
	}
	extractor := extract.New(testLog, extract.Config{Open: openerFor(pages{"A", "B", ""}, nil)})
	generator, err := briefing.New(testLog, briefing.Config{APIKey: "test-key", Model: "test-model"}, sender)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	h := New(testLog, extractor, generator, 5)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(sender.requests) != 1 {
		t.Fatalf("expected 1 upstream request, got %d", len(sender.requests))
	}
	if prompt := sender.requests[0].Messages[0].Content; !strings.Contains(prompt, "A\n\nB\n\n") {
		t.Errorf("expected the prompt to contain the joined pages, got %q", prompt)
	}

	var actual models.BriefingsPostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &actual); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if actual.RequestID == "" {
		t.Error("expected a request ID")
	}
	actual.RequestID = ""
	expected := models.BriefingsPostResponse{
		Filename:   "policy.pdf",
		Summary:    content,
		Insights:   content,
		KeyPoints:  []string{"## Executive Summary", "The act restructures funding.", "## Key Impacts", "| Sector | Severity | Affected Groups |", "|---|---|---|"},
		Pages:      3,
		Characters: len("A\n\nB\n\n"),
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Error(diff)
	}
}

func TestBriefingsPostWithoutText(t *testing.T) {
	sender := &recordingSender{}
	extractor := extract.New(testLog, extract.Config{Open: openerFor(pages{"", ""}, nil)})
	generator, err := briefing.New(testLog, briefing.Config{APIKey: "test-key"}, sender)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	h := New(testLog, extractor, generator, 5)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newUpload(t, FormField, "scan.pdf", "application/pdf", pdfBytes))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var actual models.BriefingsPostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &actual); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !actual.Empty || actual.Summary != briefing.NoContentMessage {
		t.Errorf("expected the no content briefing, got %+v", actual)
	}
	if len(sender.requests) != 0 {
		t.Errorf("expected no upstream requests, got %d", len(sender.requests))
	}
}

func TestBriefingsPostErrors(t *testing.T) {
	tests := []struct {
		name            string
		req             func(t *testing.T) *http.Request
		maxBytes        int64
		openErr         error
		generatorErr    error
		expectedStatus  int
		expectGenerated bool
	}{
		{
			name: "non-PDF uploads are rejected",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "notes.txt", "text/plain", []byte("hello"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "uploads over the limit are rejected",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 64))
			},
			maxBytes:       32,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "request bodies far over the limit are rejected",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "huge.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2<<20))
			},
			maxBytes:       32,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "a missing file field is rejected",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, "document", "policy.pdf", "application/pdf", pdfBytes)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "non-multipart requests are rejected",
			req: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/briefings", strings.NewReader(`{"file":"x"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unreadable documents are rejected",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "broken.pdf", "application/pdf", pdfBytes)
			},
			openErr:        errors.New("malformed PDF file: missing final startxref"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "configuration errors are server errors",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes)
			},
			generatorErr:    &briefing.ConfigurationError{Setting: "API key"},
			expectedStatus:  http.StatusInternalServerError,
			expectGenerated: true,
		},
		{
			name: "upstream status errors are bad gateway",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes)
			},
			generatorErr:    &briefing.UpstreamError{Kind: briefing.UpstreamStatus, StatusCode: 500},
			expectedStatus:  http.StatusBadGateway,
			expectGenerated: true,
		},
		{
			name: "malformed upstream responses are bad gateway",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes)
			},
			generatorErr:    &briefing.UpstreamError{Kind: briefing.UpstreamMalformed, StatusCode: 200, Err: errors.New("no choices")},
			expectedStatus:  http.StatusBadGateway,
			expectGenerated: true,
		},
		{
			name: "upstream timeouts are gateway timeouts",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes)
			},
			generatorErr:    &briefing.UpstreamError{Kind: briefing.UpstreamTransport, Err: context.DeadlineExceeded},
			expectedStatus:  http.StatusGatewayTimeout,
			expectGenerated: true,
		},
		{
			name: "unexpected errors are server errors",
			req: func(t *testing.T) *http.Request {
				return newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes)
			},
			generatorErr:    errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectGenerated: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := extract.New(testLog, extract.Config{
				MaxBytes: tt.maxBytes,
				Open:     openerFor(pages{"text"}, tt.openErr),
			})
			generator := &fakeGenerator{err: tt.generatorErr}
			h := New(testLog, extractor, generator, 5)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, tt.req(t))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectGenerated && generator.calls != 1 {
				t.Errorf("expected 1 generator call, got %d", generator.calls)
			}
			if !tt.expectGenerated && generator.calls != 0 {
				t.Errorf("expected no generator calls, got %d", generator.calls)
			}
		})
	}
}

func TestBriefingsPostDoesNotLeakSecrets(t *testing.T) {
	extractor := extract.New(testLog, extract.Config{Open: openerFor(pages{"text"}, nil)})
	generator, err := briefing.New(testLog, briefing.Config{}, &recordingSender{})
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	h := New(testLog, extractor, generator, 5)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "key") {
		t.Errorf("expected the response not to mention credentials, got %s", w.Body.String())
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return b
}

func TestBriefingsPostWithDetailErrors(t *testing.T) {
	extractor := extract.New(testLog, extract.Config{Open: openerFor(pages{"text"}, nil)})
	generator := &fakeGenerator{result: briefing.Result{Text: "## Executive Summary"}}
	h := New(testLog, extractor, generator, 5).WithDetailErrors()

	t.Run("errors carry a detail field", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newUpload(t, FormField, "notes.txt", "text/plain", []byte("hello")))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
		var actual map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &actual); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if detail, _ := actual["detail"].(string); detail == "" {
			t.Errorf("expected a detail message, got %s", w.Body.String())
		}
	})
	t.Run("success includes insights", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newUpload(t, FormField, "policy.pdf", "application/pdf", pdfBytes))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var actual map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &actual); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if actual["insights"] != "## Executive Summary" {
			t.Errorf("expected insights to hold the briefing, got %v", actual["insights"])
		}
	})
}
