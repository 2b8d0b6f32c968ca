package render

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/edubrain/answer-backend/internal/entity"
)

const (
	// Welcome message
	MsgWelcome = `👋 你好！我是AI题库助手。

把题目直接发给我，我会：
• 优先查询缓存和公共题库
• 查不到时调用AI生成答案
• 按题型规范化答案格式

发送题目开始吧！`

	// Help message
	MsgHelp = `🤖 *使用说明*

/start - 开始使用
/help - 显示本帮助
/cancel - 放弃当前题目
/export - 导出最近的问答记录

*查题流程：*
1. 直接发送题目文本，可以连选项一起发
2. 选择题目类型
3. 等待答案

答案来源依次为：缓存、公共题库、AI生成。`

	// Type selection prompt, %s is the question preview
	MsgAskType = `📝 收到题目：

%s

请选择题目类型：`

	// Progress and flow messages
	MsgSearching      = `⏳ 正在查询答案，请稍候...`
	MsgExporting      = `⏳ 正在导出，请稍候...`
	MsgBusy           = `⏳ 上一道题还在查询中，请稍候...`
	MsgTextOnly       = `请直接发送文字形式的题目。`
	MsgCancelled      = `✅ 已放弃当前题目。直接发送新题目即可继续。`
	MsgNoPending      = `当前没有待处理的题目。直接发送题目文本即可开始。`
	MsgConfirmCancel  = `⚠️ 确定要放弃当前题目吗？`
	MsgChooseExport   = `📄 请选择导出格式：`
	MsgExportEmpty    = `当前没有可导出的问答记录。`
	MsgUnknownCommand = `❌ 未知命令，发送 /help 查看使用说明。`

	// Answer template, filled by RenderAnswer
	msgAnswer = `✅ 答案：

%s

📌 来源：%s`

	// Errors
	ErrGeneric            = `❌ 查询出错了，请稍后再试。`
	ErrTimeout            = `❌ 查询超时，请稍后再试。`
	ErrNetworkIssue       = `❌ 网络异常，请稍后再试。`
	ErrServiceUnavailable = `❌ 服务暂时不可用，请稍后再试。`
	ErrQuotaExceeded      = `❌ 请求过于频繁，请稍后再试。`
	ErrEmptyAnswer        = `❌ 未能生成有效答案，换个说法再试一次。`
	ErrInvalidCallback    = `❌ 无效的操作`
)

const questionPreviewLimit = 200

// RenderAskType formats the type-selection prompt with a bounded preview
// of the stored question.
func RenderAskType(question string) string {
	return fmt.Sprintf(MsgAskType, truncate(question, questionPreviewLimit))
}

// RenderAnswer formats a resolved answer with its provenance.
func RenderAnswer(result *entity.SearchResult) string {
	return fmt.Sprintf(msgAnswer, result.Answer, sourceLabel(result))
}

func sourceLabel(result *entity.SearchResult) string {
	switch result.Source {
	case entity.SourceCache:
		return "缓存"
	case entity.SourceDatabase:
		if result.Provider != "" {
			return "题库（" + result.Provider + "）"
		}
		return "题库"
	case entity.SourceAI:
		if result.Provider != "" {
			return "AI生成（" + result.Provider + "）"
		}
		return "AI生成"
	default:
		return string(result.Source)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// ClassifyError analyzes an error and returns an appropriate user-facing message
func ClassifyError(err error) string {
	if err == nil {
		return ErrGeneric
	}

	switch {
	case errors.Is(err, entity.ErrEmptyAnswer), errors.Is(err, entity.ErrAnswerNotFound):
		return ErrEmptyAnswer
	case errors.Is(err, entity.ErrRateLimited):
		return ErrQuotaExceeded
	}

	// Check for timeout errors
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkIssue
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Err == syscall.ECONNREFUSED {
			return ErrServiceUnavailable
		}
		return ErrNetworkIssue
	}

	// Check error message for common patterns
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"):
		return ErrServiceUnavailable
	case strings.Contains(errMsg, "timeout"):
		return ErrTimeout
	case strings.Contains(errMsg, "network"):
		return ErrNetworkIssue
	case strings.Contains(errMsg, "unavailable"):
		return ErrServiceUnavailable
	case strings.Contains(errMsg, "quota"), strings.Contains(errMsg, "rate"):
		return ErrQuotaExceeded
	}

	return ErrGeneric
}
