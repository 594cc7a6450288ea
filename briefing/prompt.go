package briefing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

const documentVariable = "document"

const DefaultPromptTemplate = `As a senior policy advisor, create a briefing for decision-makers from the document below.

Respond in Markdown using exactly these four sections, in this order:

## Executive Summary
Three sentences.

## Key Impacts
A table with the columns Sector | Severity | Affected Groups.

## Urgency Rating
A rating from 1 to 5 stars, followed by one sentence explaining it.

## Recommended Next Steps
Exactly three bullet points.

Keep the whole briefing under 400 words.

---DOCUMENT START---
{{ .document }}
---DOCUMENT END---
`

func newPromptTemplate(template string) (prompts.PromptTemplate, error) {
	pt := prompts.NewPromptTemplate(template, []string{documentVariable})
	if err := prompts.CheckValidTemplate(pt.Template, pt.TemplateFormat, pt.InputVariables); err != nil {
		return pt, fmt.Errorf("invalid prompt template: %w", err)
	}
	const probe = "e6b4d1c0-document-probe"
	rendered, err := pt.Format(map[string]any{documentVariable: probe})
	if err != nil {
		return pt, fmt.Errorf("invalid prompt template: %w", err)
	}
	if !strings.Contains(rendered, probe) {
		return pt, errors.New("invalid prompt template: the template must include {{ .document }}")
	}
	return pt, nil
}
