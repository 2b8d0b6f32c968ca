package formatter

import (
	"bytes"
	"fmt"

	"github.com/unidoc/unioffice/document"

	"github.com/edubrain/answer-backend/internal/entity"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(records []*entity.AnswerRecord) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titleRun := titlePar.AddRun()
	titleRun.AddText(baseTitle)

	doc.AddParagraph()

	for i, record := range records {
		questionPar := doc.AddParagraph()
		questionPar.SetStyle("Heading2")
		questionRun := questionPar.AddRun()
		questionRun.AddText(fmt.Sprintf("%d. %s", i+1, record.Question))

		addField := func(label, value string) {
			par := doc.AddParagraph()
			run := par.AddRun()
			run.AddText(fmt.Sprintf("%s：%s", label, value))
		}

		addField("类型", record.Type.Label())

		if record.Options != "" {
			addField("选项", record.Options)
		}

		addField("答案", record.Answer)
		addField("来源", recordSource(record))
		addField("时间", record.CreatedAt.Format(recordTimeSpec))

		doc.AddParagraph()
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
