package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/entity"
)

type VerdictReason string

const (
	ReasonAccepted            VerdictReason = "accepted"
	ReasonAcceptedProvisional VerdictReason = "accepted-provisionally"
	ReasonNotFoundSentinel    VerdictReason = "not-found-sentinel"
	ReasonTypeMismatch        VerdictReason = "type-mismatch"
	ReasonNoMatch             VerdictReason = "no-match"
)

// Verdict is the validator's decision on one candidate answer. Matched
// holds the resolved option texts when option matching took place.
type Verdict struct {
	Accepted bool
	Reason   VerdictReason
	Matched  []string
}

func accepted(reason VerdictReason, matched []string) Verdict {
	return Verdict{Accepted: true, Reason: reason, Matched: matched}
}

func rejected(reason VerdictReason) Verdict {
	return Verdict{Reason: reason}
}

// Phrases a question bank returns instead of an answer. Matched as
// lowercase substrings.
var notFoundSentinels = []string{
	"非常抱歉",
	"题目搜索不到",
	"未找到",
	"没有找到",
	"搜索不到",
	"抱歉",
	"sorry",
	"not found",
	"no answer",
	"无法找到",
	"查询失败",
	"暂无答案",
	"暂未收录",
	"暂未收录该题目",
	"暂未收录该题目答案",
	"题库中未找到",
	"数据库中未找到",
	"未收录此题",
	"此题暂未收录",
	"题目暂未收录",
	"答案暂未收录",
	"暂无此题答案",
	"题库暂未收录",
	"未收录",
	"未收录此题目",
	"题目未收录",
	"答案未收录",
}

func isNotFoundAnswer(answer string) bool {
	if answer == "" {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(answer))
	for _, sentinel := range notFoundSentinels {
		if strings.Contains(lower, sentinel) {
			return true
		}
	}
	return false
}

// Validate decides whether a candidate answer from any source is
// acceptable for the given question type. It is the single acceptance
// path shared by the cache, external lookups and model output.
func (e *Engine) Validate(ctx context.Context, candidate string, qtype entity.QuestionType, optionsText, questionText string) Verdict {
	normalized := normalizeText(candidate)
	if normalized == "" || isNotFoundAnswer(normalized) {
		return rejected(ReasonNotFoundSentinel)
	}

	switch qtype {
	case entity.TypeJudgement:
		if isJudgementSynonym(normalized) {
			return accepted(ReasonAccepted, nil)
		}
		return rejected(ReasonNoMatch)
	case entity.TypeSingle, entity.TypeMultiple:
		return e.validateChoice(ctx, normalized, qtype, optionsText, questionText)
	case entity.TypeCompletion:
		return e.validateCompletion(ctx, normalized, questionText)
	default:
		// Without a type the sentinel screen is the entire check, so the
		// candidate is taken at face value.
		return accepted(ReasonAcceptedProvisional, nil)
	}
}

func (e *Engine) validateChoice(ctx context.Context, candidate string, qtype entity.QuestionType, optionsText, questionText string) Verdict {
	if isJudgementSynonym(candidate) {
		return rejected(ReasonTypeMismatch)
	}

	options := e.ExtractOptions(optionsText)
	if len(options) < 2 {
		options = e.ExtractOptions(questionText)
	}
	if len(options) < 2 {
		return rejected(ReasonNoMatch)
	}

	interpretations := candidateInterpretations(candidate, options)
	for _, frags := range interpretations {
		matched, ok := resolveFragments(frags, options)
		if !ok {
			continue
		}
		distinct := countDistinct(matched)
		switch qtype {
		case entity.TypeSingle:
			if distinct == 1 {
				return accepted(ReasonAccepted, matched)
			}
		case entity.TypeMultiple:
			if distinct >= e.cfg.MinMultipleMatches {
				return accepted(ReasonAccepted, matched)
			}
		}
	}

	if qtype == entity.TypeMultiple && e.cfg.AllowProvisional {
		shape := interpretations[len(interpretations)-1]
		if looksLikeOptionList(shape) {
			ctxzap.Info(ctx, "accepting unconfirmed multiple-choice answer",
				zap.String("candidate", candidate))
			return accepted(ReasonAcceptedProvisional, nil)
		}
	}
	return rejected(ReasonNoMatch)
}

var (
	candidateSeparatorRe = regexp.MustCompile(`[#；;，,/|]+`)
	compactLabelRunRe    = regexp.MustCompile(`^[A-Z]{2,}$`)
	punctOnlyRe          = regexp.MustCompile(`^[\s\p{P}\p{S}]+$`)
)

// candidateInterpretations parses a candidate into one or more fragment
// readings tried in order: explicit separators, a compact label run like
// "ABD", then the whole candidate, with a per-token reading added for
// space-joined option lists.
func candidateInterpretations(candidate string, options OptionSet) [][]string {
	if candidateSeparatorRe.MatchString(candidate) {
		return [][]string{trimNonEmpty(candidateSeparatorRe.Split(candidate, -1))}
	}

	trimmed := strings.TrimSpace(candidate)
	if compactLabelRunRe.MatchString(trimmed) && allLabelsKnown(trimmed, options) {
		frags := make([]string, 0, len(trimmed))
		for _, r := range trimmed {
			frags = append(frags, string(r))
		}
		return [][]string{frags}
	}

	if strings.Contains(trimmed, " ") {
		return [][]string{{trimmed}, strings.Fields(trimmed)}
	}
	return [][]string{{trimmed}}
}

func allLabelsKnown(run string, options OptionSet) bool {
	for _, r := range run {
		if _, ok := options.TextFor(string(r)); !ok {
			return false
		}
	}
	return true
}

// resolveFragments maps every fragment onto an option text; it fails as
// a whole when any fragment stays unresolved.
func resolveFragments(frags []string, options OptionSet) ([]string, bool) {
	matched := make([]string, 0, len(frags))
	for _, frag := range frags {
		f := normalizeText(frag)
		if f == "" {
			continue
		}
		text, ok := resolveFragment(f, options)
		if !ok {
			return nil, false
		}
		matched = append(matched, text)
	}
	if len(matched) == 0 {
		return nil, false
	}
	return matched, true
}

func resolveFragment(frag string, options OptionSet) (string, bool) {
	if isUpperLetter(frag) {
		return options.TextFor(frag)
	}
	for _, opt := range options {
		if optionMatches(frag, opt.Text) {
			return opt.Text, true
		}
	}
	return "", false
}

// optionMatches accepts an exact match, a fragment contained in the
// option when the fragment covers at least half of it, or an option
// contained in the fragment.
func optionMatches(frag, opt string) bool {
	if frag == opt {
		return true
	}
	fragLen := utf8.RuneCountInString(frag)
	if fragLen < 2 {
		return false
	}
	if strings.Contains(opt, frag) && fragLen*2 >= utf8.RuneCountInString(opt) {
		return true
	}
	return strings.Contains(frag, opt)
}

func isUpperLetter(s string) bool {
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}

func countDistinct(texts []string) int {
	seen := make(map[string]bool, len(texts))
	for _, t := range texts {
		seen[t] = true
	}
	return len(seen)
}

// looksLikeOptionList reports whether unmatched fragments still have the
// shape of a multiple-choice answer: at least two, each non-trivial and
// not pure punctuation.
func looksLikeOptionList(frags []string) bool {
	if len(frags) < 2 {
		return false
	}
	for _, frag := range frags {
		f := strings.TrimSpace(frag)
		if utf8.RuneCountInString(f) < 2 || punctOnlyRe.MatchString(f) {
			return false
		}
	}
	return true
}

const completionVerifyPrompt = `请判断以下填空题的答案是否正确：

问题：%s
答案：%s

请回答：这个答案是否正确？只回答"正确"或"错误"。`

var (
	verifyAcceptSet = []string{"正确", "对", "是", "true", "yes"}
	verifyRejectSet = []string{"错误", "错", "否", "false", "no"}
)

// validateCompletion delegates correctness to the generative backend.
// The check fails open: a missing verifier, transport error or
// unparseable reply accepts the candidate rather than discarding a
// possibly correct answer.
func (e *Engine) validateCompletion(ctx context.Context, candidate, questionText string) Verdict {
	candidate = unwrapJSONCandidate(candidate)
	if strings.TrimSpace(candidate) == "" {
		return rejected(ReasonNotFoundSentinel)
	}
	if strings.TrimSpace(questionText) == "" {
		return rejected(ReasonNoMatch)
	}
	if e.verifier == nil {
		return accepted(ReasonAcceptedProvisional, nil)
	}

	prompt := fmt.Sprintf(completionVerifyPrompt, questionText, candidate)
	reply, err := e.verifier.Verify(ctx, prompt)
	if err != nil {
		ctxzap.Error(ctx, "completion verification failed, accepting answer",
			zap.Error(err))
		return accepted(ReasonAcceptedProvisional, nil)
	}

	result := normalizeText(reply)
	for _, v := range verifyAcceptSet {
		if result == v {
			return accepted(ReasonAccepted, nil)
		}
	}
	for _, v := range verifyRejectSet {
		if result == v {
			return rejected(ReasonNoMatch)
		}
	}

	ctxzap.Warn(ctx, "ambiguous verification reply, accepting answer",
		zap.String("reply", reply))
	return accepted(ReasonAcceptedProvisional, nil)
}

// unwrapJSONCandidate unpacks answers a bank returns as a JSON array or
// JSON string, taking the first element respectively the unquoted value.
func unwrapJSONCandidate(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if strings.HasPrefix(trimmed, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil && len(arr) > 0 {
			return strings.TrimSpace(fmt.Sprint(arr[0]))
		}
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
	}
	return candidate
}
