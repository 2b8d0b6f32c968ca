package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/edubrain/answer-backend/internal/entity"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the family name the CJK font registers under.
	pdfFontName = "NotoSansSC"

	// The font is not bundled with the repo. Deployments drop the TTF
	// either next to the binary or into the source tree.
	pdfFontRuntimePath = "ttf/NotoSansSC-Regular.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/NotoSansSC-Regular.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

// resolveFontPath probes the known font locations, returning "" when the
// font is absent.
func resolveFontPath() string {
	for _, path := range []string{pdfFontRuntimePath, pdfFontSourcePath} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func (mf *PDFFormatter) Format(records []*entity.AnswerRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Chinese question text needs the bundled NotoSansSC font.
	// Without it the export still produces a valid document, just with
	// mangled glyphs for non-Latin text.
	fontName := "Arial"
	if fontPath := resolveFontPath(); fontPath != "" {
		// Register regular and bold styles under the same family name
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, baseTitle)
	pdf.Ln(14)

	_, lineHeight := pdf.GetFontSize()

	for i, record := range records {
		pdf.SetFont(fontName, "B", 12)
		pdf.MultiCell(0, lineHeight*1.5, fmt.Sprintf("%d. %s", i+1, record.Question), "", "", false)

		pdf.SetFont(fontName, "", 11)
		pdf.MultiCell(0, lineHeight*1.4, fmt.Sprintf("类型：%s", record.Type.Label()), "", "", false)

		if record.Options != "" {
			pdf.MultiCell(0, lineHeight*1.4, fmt.Sprintf("选项：%s", record.Options), "", "", false)
		}

		pdf.MultiCell(0, lineHeight*1.4, fmt.Sprintf("答案：%s", record.Answer), "", "", false)
		pdf.MultiCell(0, lineHeight*1.4, fmt.Sprintf("来源：%s", recordSource(record)), "", "", false)
		pdf.MultiCell(0, lineHeight*1.4, fmt.Sprintf("时间：%s", record.CreatedAt.Format(recordTimeSpec)), "", "", false)
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
