package keyboard

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/edubrain/answer-backend/internal/entity"
)

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// TypeSelectionKeyboard offers the question types for a pending question.
// The "any" value on the third row means the engine decides by shape.
func (b *Builder) TypeSelectionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 单选题", EncodeCallback("type", string(entity.TypeSingle))),
			tgbotapi.NewInlineKeyboardButtonData("📍 多选题", EncodeCallback("type", string(entity.TypeMultiple))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚖️ 判断题", EncodeCallback("type", string(entity.TypeJudgement))),
			tgbotapi.NewInlineKeyboardButtonData("✏️ 填空题", EncodeCallback("type", string(entity.TypeCompletion))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔮 不限题型", EncodeCallback("type", "any")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ 取消", EncodeCallback("action", "cancel")),
		),
	)
}

// ConfirmCancelKeyboard asks the user to confirm dropping the pending question
func (b *Builder) ConfirmCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ 是，放弃", EncodeCallback("confirm", "cancel")),
			tgbotapi.NewInlineKeyboardButtonData("↩️ 否，继续", EncodeCallback("confirm", "continue")),
		),
	)
}

// ExportFormatKeyboard offers the record export formats
func (b *Builder) ExportFormatKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Markdown", EncodeCallback("export", string(entity.FormatMarkdown))),
			tgbotapi.NewInlineKeyboardButtonData("📕 PDF", EncodeCallback("export", string(entity.FormatPDF))),
			tgbotapi.NewInlineKeyboardButtonData("📘 DOCX", EncodeCallback("export", string(entity.FormatDOCX))),
		),
	)
}
