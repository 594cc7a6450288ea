package post

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-h/policybrief/briefing"
	"github.com/a-h/policybrief/extract"
	"github.com/a-h/policybrief/models"
	"github.com/a-h/respond"
	"github.com/google/uuid"
)

type Extractor interface {
	MaxBytes() int64
	Validate(size int64, mediaType string) error
	Extract(data []byte, mediaType string) (extract.Text, error)
}

type Generator interface {
	Generate(ctx context.Context, text string) (briefing.Result, error)
}

const (
	// FormField is the multipart field that carries the document.
	FormField = "file"

	// Room for multipart boundaries and headers on top of the document.
	formOverhead = 1 << 20
	// Parts larger than this are spooled to disk by the multipart reader.
	maxFormMemory = 32 << 20
)

func New(log *slog.Logger, extractor Extractor, generator Generator, keyPoints int) Handler {
	return Handler{
		log:       log,
		extractor: extractor,
		generator: generator,
		keyPoints: keyPoints,
		withError: func(w http.ResponseWriter, msg string, status int) {
			respond.WithError(w, msg, status)
		},
	}
}

type Handler struct {
	log       *slog.Logger
	extractor Extractor
	generator Generator
	keyPoints int
	withError func(w http.ResponseWriter, msg string, status int)
}

// WithDetailErrors returns a copy of the handler that writes errors as
// {"detail": "..."}, the shape earlier clients of /api/analyze expect.
func (h Handler) WithDetailErrors() Handler {
	h.withError = func(w http.ResponseWriter, msg string, status int) {
		respond.WithJSON(w, models.ErrorDetail{Detail: msg}, status)
	}
	return h
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := h.log.With(slog.String("requestId", requestID))

	doc, err := h.readDocument(w, r)
	if err != nil {
		h.writeError(w, log, err)
		return
	}
	log = log.With(slog.String("filename", doc.Filename), slog.Int("size", len(doc.Data)))

	text, err := h.extractor.Extract(doc.Data, doc.MediaType)
	if err != nil {
		h.writeError(w, log, err)
		return
	}
	log.Info("extracted document text",
		slog.Int("pages", text.Pages),
		slog.Any("emptyPages", text.EmptyPages),
		slog.Bool("truncated", text.Truncated))

	result, err := h.generator.Generate(r.Context(), text.Content)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	respond.WithJSON(w, models.BriefingsPostResponse{
		RequestID:  requestID,
		Filename:   doc.Filename,
		Summary:    result.Text,
		Insights:   result.Text,
		KeyPoints:  result.KeyPoints(h.keyPoints),
		Empty:      result.Empty,
		Pages:      text.Pages,
		Characters: len([]rune(text.Content)),
		Truncated:  text.Truncated,
	}, http.StatusOK)
}

func (h Handler) readDocument(w http.ResponseWriter, r *http.Request) (doc models.UploadedDocument, err error) {
	maxBytes := h.extractor.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	if err = r.ParseMultipartForm(maxFormMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return doc, &extract.ValidationError{
				Reason:  extract.ReasonTooLarge,
				Message: fmt.Sprintf("file too large: the limit is %d bytes", maxBytes),
			}
		}
		return doc, &extract.ValidationError{
			Reason:  extract.ReasonMissing,
			Message: "expected a multipart form upload",
		}
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile(FormField)
	if err != nil {
		return doc, &extract.ValidationError{
			Reason:  extract.ReasonMissing,
			Message: fmt.Sprintf("no file part: expected a file in the %q field", FormField),
		}
	}
	defer f.Close()

	doc.Filename = header.Filename
	doc.MediaType = header.Header.Get("Content-Type")
	if err = h.extractor.Validate(header.Size, doc.MediaType); err != nil {
		return doc, err
	}
	doc.Data, err = io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return doc, fmt.Errorf("failed to read upload: %w", err)
	}
	return doc, nil
}

func (h Handler) writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var ve *extract.ValidationError
	var ee *extract.ExtractionError
	var ce *briefing.ConfigurationError
	var ue *briefing.UpstreamError
	switch {
	case errors.As(err, &ve):
		log.Warn("rejected upload", slog.String("reason", string(ve.Reason)), slog.String("message", ve.Message))
		status := http.StatusBadRequest
		if ve.Reason == extract.ReasonTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		h.withError(w, ve.Message, status)
	case errors.As(err, &ee):
		log.Warn("failed to extract text", slog.Any("error", ee.Err))
		h.withError(w, fmt.Sprintf("PDF processing error: %v", ee.Err), http.StatusBadRequest)
	case errors.As(err, &ce):
		log.Error("service not configured", slog.String("setting", ce.Setting))
		h.withError(w, "briefing service is not configured", http.StatusInternalServerError)
	case errors.As(err, &ue):
		log.Error("briefing generation failed",
			slog.String("kind", string(ue.Kind)),
			slog.Int("upstreamStatus", ue.StatusCode),
			slog.Any("error", err))
		status := http.StatusBadGateway
		if ue.Timeout() {
			status = http.StatusGatewayTimeout
		}
		h.withError(w, "AI service error: the briefing service is unavailable", status)
	default:
		log.Error("failed to generate briefing", slog.Any("error", err))
		h.withError(w, "failed to generate briefing", http.StatusInternalServerError)
	}
}
