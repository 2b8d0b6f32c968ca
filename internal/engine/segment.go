package engine

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Numbered sub-question markers. Each requires real content after the
// marker; bare runs like "1. 2. 3." do not count.
var multiMarkerRes = []*regexp.Regexp{
	regexp.MustCompile(`\d+\.\s*[^\d\s]`),
	regexp.MustCompile(`\d+\)\s*[^\d\s]`),
	regexp.MustCompile(`[（(]\s*\d+\s*[）)]\s*[^\d\s]`),
}

var (
	digitDotRe       = regexp.MustCompile(`\d+\.`)
	digitDotPrefixRe = regexp.MustCompile(`\d+\.\s*`)
	periodBoundaryRe = regexp.MustCompile(`。[一-龯a-zA-Z]`)
)

// IsMultiSubquestion reports whether a question contains two or more
// numbered sub-questions ("1. … 2. …", "1) …", "（1）…" styles).
func IsMultiSubquestion(question string) bool {
	if strings.TrimSpace(question) == "" {
		return false
	}

	count := 0
	for _, re := range multiMarkerRes {
		count += len(re.FindAllString(question, -1))
	}
	if count >= 2 {
		return true
	}

	// Fallback: several bare N. markers with real content between them.
	if len(digitDotRe.FindAllString(question, -1)) >= 2 {
		residue := digitDotPrefixRe.ReplaceAllString(question, "")
		if strings.TrimSpace(residue) != "" {
			return true
		}
	}
	return false
}

// FormatMultiSubquestion renders a multi-blank completion answer as
// numbered "{i}.{text}" lines, one per sub-question of the question.
// When no split strategy produces the expected count the answer is
// returned unchanged; already well-formatted answers pass through, which
// makes the operation idempotent.
func FormatMultiSubquestion(ctx context.Context, answer, question string) string {
	count := len(digitDotRe.FindAllString(question, -1))
	if count == 0 {
		// Markers were of the 1) or （1） style only; there is no reliable
		// per-part count to format against.
		return answer
	}

	if isWellFormatted(answer, count) {
		return answer
	}

	parts := splitAnswer(ctx, answer, count)
	if len(parts) != count {
		ctxzap.Warn(ctx, "answer did not split into expected sub-answer count",
			zap.Int("expected", count),
			zap.Int("got", len(parts)))
		return answer
	}

	lines := make([]string, len(parts))
	for i, part := range parts {
		lines[i] = strconv.Itoa(i+1) + "." + formatPart(part, i == len(parts)-1)
	}
	return strings.Join(lines, "\n")
}

// formatPart keeps a part's trailing 。 or ； except on the last part,
// where it is dropped.
func formatPart(part string, last bool) string {
	switch {
	case strings.HasSuffix(part, "。"):
		if last {
			return strings.TrimSpace(strings.TrimSuffix(part, "。"))
		}
		return part
	case strings.HasSuffix(part, "；"):
		if last {
			return strings.TrimSpace(strings.TrimSuffix(part, "；"))
		}
		return part
	default:
		return strings.TrimSpace(part)
	}
}

func isWellFormatted(answer string, count int) bool {
	lines := strings.Split(answer, "\n")
	if len(lines) != count {
		return false
	}
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), strconv.Itoa(i+1)+".") {
			return false
		}
	}
	return true
}

// Split strategies, tried in order. A strategy reports ok only when it
// produced exactly the expected number of parts.
type splitStrategy struct {
	name  string
	split func(answer string, count int) ([]string, bool)
}

var splitStrategies = []splitStrategy{
	{name: "hash", split: splitOnHash},
	{name: "semicolon", split: splitOnSemicolon},
	{name: "period", split: splitOnPeriod},
	{name: "mixed", split: splitMixed},
	{name: "whitespace", split: splitOnWhitespace},
}

func splitAnswer(ctx context.Context, answer string, count int) []string {
	if cleaned := cleanAnswerPrefix(answer); cleaned != answer {
		ctxzap.Debug(ctx, "stripped conclusion prefix from answer",
			zap.String("cleaned", cleaned))
		answer = cleaned
	}

	for _, strategy := range splitStrategies {
		if parts, ok := strategy.split(answer, count); ok {
			ctxzap.Debug(ctx, "answer split succeeded",
				zap.String("strategy", strategy.name),
				zap.Int("parts", len(parts)))
			return parts
		}
	}
	return []string{answer}
}

func splitOnHash(answer string, count int) ([]string, bool) {
	if !strings.Contains(answer, "#") {
		return nil, false
	}
	parts := trimNonEmpty(strings.Split(answer, "#"))
	return parts, len(parts) == count
}

func splitOnSemicolon(answer string, count int) ([]string, bool) {
	if !strings.Contains(answer, "；") {
		return nil, false
	}
	parts := trimNonEmpty(strings.Split(answer, "；"))
	return parts, len(parts) == count
}

// splitOnPeriod splits at 。 only where it is directly followed by a CJK
// ideograph or an ASCII letter, so decimal points and trailing periods
// survive. The 。 itself is consumed, like a separator.
func splitOnPeriod(answer string, count int) ([]string, bool) {
	if !strings.Contains(answer, "。") || !periodBoundaryRe.MatchString(answer) {
		return nil, false
	}
	parts := trimNonEmpty(splitAtPeriodBoundaries(answer))
	return parts, len(parts) == count
}

// splitAtPeriodBoundaries cuts the text before every 。+letter boundary,
// dropping the 。 at each cut. The final piece keeps any trailing 。.
func splitAtPeriodBoundaries(s string) []string {
	locs := periodBoundaryRe.FindAllStringIndex(s, -1)
	parts := make([]string, 0, len(locs)+1)
	cut := 0
	for _, loc := range locs {
		parts = append(parts, s[cut:loc[0]])
		cut = loc[0] + len("。")
	}
	return append(parts, s[cut:])
}

// splitMixed handles answers mixing #, ；/; and 。 separators. When it
// yields more parts than needed, the surplus is folded into the last
// part joined by #.
func splitMixed(answer string, count int) ([]string, bool) {
	if !strings.ContainsAny(answer, "#；;") {
		return nil, false
	}

	var primary []string
	if strings.Contains(answer, "#") {
		primary = strings.Split(answer, "#")
	} else {
		primary = []string{answer}
	}

	var parts []string
	for _, part := range primary {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case strings.Contains(part, "；"):
			parts = append(parts, trimNonEmpty(strings.Split(part, "；"))...)
		case strings.Contains(part, ";"):
			parts = append(parts, trimNonEmpty(strings.Split(part, ";"))...)
		case strings.Contains(part, "。") && periodBoundaryRe.MatchString(part):
			for _, sub := range splitAtPeriodBoundaries(part) {
				trimmed := strings.TrimSpace(sub)
				if trimmed == "" {
					continue
				}
				if !strings.HasSuffix(sub, "。") {
					trimmed += "。"
				}
				parts = append(parts, trimmed)
			}
		default:
			parts = append(parts, part)
		}
	}

	if len(parts) < count {
		return nil, false
	}
	merged := mergeExcessParts(parts, count)
	return merged, len(merged) == count
}

func mergeExcessParts(parts []string, count int) []string {
	if len(parts) <= count {
		return parts
	}
	merged := make([]string, 0, count)
	merged = append(merged, parts[:count-1]...)
	return append(merged, strings.Join(parts[count-1:], "#"))
}

// splitOnWhitespace distributes tokens evenly: the first count-1 parts
// get ⌊tokens/count⌋ tokens each, the last absorbs the remainder.
func splitOnWhitespace(answer string, count int) ([]string, bool) {
	if !strings.Contains(answer, " ") {
		return nil, false
	}
	words := strings.Fields(answer)
	if len(words) < count {
		return nil, false
	}

	per := len(words) / count
	parts := make([]string, 0, count)
	start := 0
	for i := 0; i < count-1; i++ {
		parts = append(parts, strings.Join(words[start:start+per], " "))
		start += per
	}
	return append(parts, strings.Join(words[start:], " ")), true
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Conclusion prefixes a model likes to open with. The bare 答案 forms
// apply only when the remainder is not itself 答案…, so a literal answer
// starting with that word survives.
type prefixRule struct {
	re        *regexp.Regexp
	notBefore string
}

var answerPrefixRules = []prefixRule{
	{re: regexp.MustCompile(`^经过分析，我认为答案是[：:]?\s*`)},
	{re: regexp.MustCompile(`^我认为答案是[：:]?\s*`)},
	{re: regexp.MustCompile(`^所以答案是[：:]?\s*`)},
	{re: regexp.MustCompile(`^最终答案是[：:]?\s*`)},
	{re: regexp.MustCompile(`^答案是[：:]?\s+`), notBefore: "答案"},
	{re: regexp.MustCompile(`^答案[：:]?\s+`), notBefore: "答案"},
}

func cleanAnswerPrefix(answer string) string {
	for _, rule := range answerPrefixRules {
		loc := rule.re.FindStringIndex(answer)
		if loc == nil {
			continue
		}
		rest := answer[loc[1]:]
		if rule.notBefore != "" && strings.HasPrefix(rest, rule.notBefore) {
			continue
		}
		return strings.TrimSpace(rest)
	}
	return answer
}
