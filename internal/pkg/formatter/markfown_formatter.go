package formatter

import (
	"bytes"
	"fmt"

	"github.com/edubrain/answer-backend/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(records []*entity.AnswerRecord) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n共 %d 条记录。\n", baseTitle, len(records))

	for i, record := range records {
		fmt.Fprintf(&buf, "\n## %d. %s\n\n", i+1, record.Question)
		fmt.Fprintf(&buf, "- 类型：%s\n", record.Type.Label())

		if record.Options != "" {
			fmt.Fprintf(&buf, "- 选项：%s\n", record.Options)
		}

		fmt.Fprintf(&buf, "- 答案：%s\n", record.Answer)
		fmt.Fprintf(&buf, "- 来源：%s\n", recordSource(record))
		fmt.Fprintf(&buf, "- 时间：%s\n", record.CreatedAt.Format(recordTimeSpec))
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
