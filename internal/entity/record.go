package entity

import "time"

// AnswerRecord is one resolved question persisted for statistics and export.
type AnswerRecord struct {
	ID        string
	Question  string
	Type      QuestionType
	Options   string
	Answer    string
	Source    AnswerSource
	Provider  string
	LatencyMS int64
	CreatedAt time.Time
}

// RecordStats aggregates persisted records for the stats endpoint.
type RecordStats struct {
	Total  int64                  `json:"total"`
	ByType map[QuestionType]int64 `json:"by_type"`
}

type RecordDTO struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Type      QuestionType `json:"type"`
	Options   string       `json:"options,omitempty"`
	Answer    string       `json:"answer"`
	Source    AnswerSource `json:"source"`
	Provider  string       `json:"provider,omitempty"`
	LatencyMS int64        `json:"latency_ms"`
	CreatedAt time.Time    `json:"created_at"`
}

type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatPDF      ExportFormat = "pdf"
	FormatDOCX     ExportFormat = "docx"
)

func (ef ExportFormat) Validate() error {
	switch ef {
	case FormatMarkdown, FormatPDF, FormatDOCX:
		return nil
	default:
		return ErrInvalidParameter
	}
}
