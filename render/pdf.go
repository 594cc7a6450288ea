package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var stars = strings.NewReplacer("★", "*", "☆", "-")

// PDF writes the briefing as a simple A4 document.
func PDF(w io.Writer, title, briefing string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, 8, tr(title), "", "L", false)
		pdf.Ln(4)
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, s := range strings.Split(briefing, "\n") {
		l := parseLine(stars.Replace(s))
		switch l.kind {
		case lineBlank:
			pdf.Ln(3)
		case lineHeading:
			size := 14.0
			if l.level >= 2 {
				size = 12.0
			}
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 7, tr(l.text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
		case lineTableRule:
		case lineTableRow:
			pdf.SetFont("Courier", "", 9)
			pdf.MultiCell(0, 5, tr(l.text), "B", "L", false)
			pdf.SetFont("Helvetica", "", 11)
		case lineBullet:
			pdf.MultiCell(0, 5, tr("- "+l.text), "", "L", false)
		default:
			pdf.MultiCell(0, 5, tr(l.text), "", "L", false)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render: failed to write PDF: %w", err)
	}
	return nil
}
