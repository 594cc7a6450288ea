package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Document is a paginated source of text. Pages are numbered from 1.
type Document interface {
	NumPage() int
	PageText(n int) (string, error)
}

// Opener parses raw bytes into a Document.
type Opener func(data []byte) (Document, error)

// OpenPDF is the default Opener. The pdf package reports some structural
// problems by panicking, so opening is guarded.
func OpenPDF(data []byte) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("malformed PDF file: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return pdfDocument{r: r, pages: r.NumPage()}, nil
}

type pdfDocument struct {
	r     *pdf.Reader
	pages int
}

func (d pdfDocument) NumPage() int {
	return d.pages
}

func (d pdfDocument) PageText(n int) (string, error) {
	p := d.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
