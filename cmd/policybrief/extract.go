package main

import (
	"context"
	"fmt"
	"os"

	"github.com/a-h/policybrief/extract"
)

type ExtractCommand struct {
	File     string `arg:"" help:"The PDF file to read." type:"existingfile"`
	MaxChars int    `help:"The number of characters of document text to keep." env:"MAX_CHARS" default:"15000"`
	LogLevel string `help:"The log level to use." env:"LOG_LEVEL" default:"warn"`
}

func (c ExtractCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	e := extract.New(log, extract.Config{
		MaxBytes: int64(len(data)),
		MaxChars: c.MaxChars,
	})
	text, err := e.Extract(data, extract.MediaTypePDF)
	if err != nil {
		return err
	}
	fmt.Println(text.Content)
	fmt.Fprintf(os.Stderr, "%d pages, %d characters, truncated: %v, empty pages: %v\n",
		text.Pages, len([]rune(text.Content)), text.Truncated, text.EmptyPages)
	return nil
}
