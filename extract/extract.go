// Package extract turns uploaded PDF bytes into a bounded amount of plain text.
package extract

import (
	"fmt"
	"log/slog"
	"mime"
	"strings"
)

const (
	MediaTypePDF = "application/pdf"

	DefaultMaxBytes int64 = 10 << 20
	DefaultMaxChars       = 15000

	pageSeparator = "\n\n"
)

type Config struct {
	// MaxBytes is the largest accepted upload.
	MaxBytes int64
	// MaxChars is the number of characters (runes) kept after joining pages.
	MaxChars int
	// Open parses the document. Defaults to OpenPDF.
	Open Opener
}

func New(log *slog.Logger, config Config) *Extractor {
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultMaxChars
	}
	if config.Open == nil {
		config.Open = OpenPDF
	}
	return &Extractor{
		log:    log,
		config: config,
	}
}

// Extractor is safe for concurrent use.
type Extractor struct {
	log    *slog.Logger
	config Config
}

// Text is the result of an extraction.
type Text struct {
	// Content is the page-ordered text, at most MaxChars runes long.
	Content string
	// Pages is the number of pages in the document.
	Pages int
	// EmptyPages lists the pages that contributed no text.
	EmptyPages []int
	// Truncated is true if Content was cut to fit MaxChars.
	Truncated bool
}

func (e *Extractor) MaxBytes() int64 {
	return e.config.MaxBytes
}

// Validate checks the declared size and media type of an upload without
// reading it.
func (e *Extractor) Validate(size int64, mediaType string) error {
	if size <= 0 {
		return &ValidationError{Reason: ReasonMissing, Message: "no file content was uploaded"}
	}
	if !isPDF(mediaType) {
		return &ValidationError{Reason: ReasonMediaType, Message: "only PDF files are accepted"}
	}
	if size > e.config.MaxBytes {
		return &ValidationError{
			Reason:  ReasonTooLarge,
			Message: fmt.Sprintf("file too large: %d bytes exceeds the %d byte limit", size, e.config.MaxBytes),
		}
	}
	return nil
}

func isPDF(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	return mt == MediaTypePDF
}

func (e *Extractor) Extract(data []byte, mediaType string) (t Text, err error) {
	if err = e.Validate(int64(len(data)), mediaType); err != nil {
		return t, err
	}

	doc, err := e.config.Open(data)
	if err != nil {
		e.log.Warn("failed to open document", slog.Int("size", len(data)), slog.Any("error", err))
		return t, &ExtractionError{Err: err}
	}

	t.Pages = doc.NumPage()
	texts := make([]string, t.Pages)
	for i := range texts {
		n := i + 1
		text, err := pageText(doc, n)
		if err != nil {
			e.log.Warn("failed to extract text from page", slog.Int("page", n), slog.Any("error", err))
			text = ""
		}
		if strings.TrimSpace(text) == "" {
			t.EmptyPages = append(t.EmptyPages, n)
		}
		texts[i] = text
	}

	t.Content, t.Truncated = truncate(strings.Join(texts, pageSeparator), e.config.MaxChars)

	e.log.Debug("extracted text",
		slog.Int("pages", t.Pages),
		slog.Int("emptyPages", len(t.EmptyPages)),
		slog.Int("characters", len([]rune(t.Content))),
		slog.Bool("truncated", t.Truncated))
	return t, nil
}

func pageText(doc Document, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d: %v", n, r)
		}
	}()
	return doc.PageText(n)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false
	}
	var count int
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
