package engine

import (
	"regexp"
	"strings"
)

var (
	answerTagRe   = regexp.MustCompile(`(?s)<answer>(.*?)</answer>`)
	thinkingTagRe = regexp.MustCompile(`(?s)<thinking>.*?</thinking>`)
	genericTagRe  = regexp.MustCompile(`(?s)<[^>]+>(.*?)</[^>]+>`)
)

const answerLabel = "答案："

// StripReply extracts the answer payload from a raw model reply.
// Preference order: an <answer> tag pair, then text after the last
// 答案： label, then the reply with reasoning blocks and any leftover
// tag pairs removed. Total: empty input yields empty output.
func StripReply(reply string) string {
	if m := answerTagRe.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}

	if idx := strings.LastIndex(reply, answerLabel); idx >= 0 {
		return strings.TrimSpace(reply[idx+len(answerLabel):])
	}

	cleaned := thinkingTagRe.ReplaceAllString(reply, "")
	cleaned = genericTagRe.ReplaceAllString(cleaned, "$1")
	return strings.TrimSpace(cleaned)
}
