package models

// UploadedDocument is a single file submitted for briefing.
type UploadedDocument struct {
	Filename  string
	MediaType string
	Data      []byte
}

type BriefingsPostResponse struct {
	RequestID string `json:"request_id" yaml:"request_id"`
	Filename  string `json:"filename" yaml:"filename"`
	// Summary is the briefing text as returned by the model.
	Summary string `json:"summary" yaml:"summary"`
	// Insights repeats Summary for clients of /api/analyze.
	Insights string `json:"insights" yaml:"insights"`
	// KeyPoints is a preview of the first lines of Summary.
	KeyPoints []string `json:"key_points" yaml:"key_points"`
	// Empty is true when the document had no readable text and the model
	// wasn't asked.
	Empty      bool `json:"empty" yaml:"empty"`
	Pages      int  `json:"pages" yaml:"pages"`
	Characters int  `json:"characters" yaml:"characters"`
	Truncated  bool `json:"truncated" yaml:"truncated"`
}

type ErrorDetail struct {
	Detail string `json:"detail"`
}
