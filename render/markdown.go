// Package render presents briefings outside of the JSON API, either in the
// terminal or as a PDF.
package render

import "strings"

type lineKind int

const (
	lineBlank lineKind = iota
	lineHeading
	lineTableRow
	lineTableRule
	lineBullet
	lineText
)

type line struct {
	kind  lineKind
	level int
	text  string
}

// parseLine recognises the small subset of Markdown that briefings use.
func parseLine(s string) line {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return line{kind: lineBlank}
	case strings.HasPrefix(s, "#"):
		level := len(s) - len(strings.TrimLeft(s, "#"))
		return line{kind: lineHeading, level: level, text: strings.TrimSpace(s[level:])}
	case strings.HasPrefix(s, "|"):
		cells := tableCells(s)
		if isRule(cells) {
			return line{kind: lineTableRule}
		}
		return line{kind: lineTableRow, text: strings.Join(cells, " | ")}
	case strings.HasPrefix(s, "- "), strings.HasPrefix(s, "* "):
		return line{kind: lineBullet, text: strings.TrimSpace(s[2:])}
	}
	return line{kind: lineText, text: stripEmphasis(s)}
}

func tableCells(s string) (cells []string) {
	s = strings.Trim(s, "|")
	for _, c := range strings.Split(s, "|") {
		cells = append(cells, strings.TrimSpace(c))
	}
	return cells
}

func isRule(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

var emphasis = strings.NewReplacer("**", "", "__", "")

func stripEmphasis(s string) string {
	return emphasis.Replace(s)
}
