package formatter

import (
	"fmt"

	"github.com/edubrain/answer-backend/internal/entity"
)

const (
	baseTitle      = "问答记录"
	recordTimeSpec = "2006-01-02 15:04:05"
)

type Formatter interface {
	Format(records []*entity.AnswerRecord) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ExportFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// recordSource renders provenance as "ai (openai)" when the provider
// is known and the bare source otherwise.
func recordSource(record *entity.AnswerRecord) string {
	if record.Provider != "" {
		return fmt.Sprintf("%s (%s)", record.Source, record.Provider)
	}

	return string(record.Source)
}
