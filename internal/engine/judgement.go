package engine

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Canonical judgement answers. Nothing else is ever emitted for
// judgement questions.
const (
	JudgementTrue  = "正确"
	JudgementFalse = "错误"
)

var (
	judgementTrueSet  = []string{"正确", "对", "是", "true", "yes", "√"}
	judgementFalseSet = []string{"错误", "错", "否", "false", "no", "×"}

	// Substring fallback families, checked true-first.
	judgementTrueHints  = []string{"正确", "对", "是"}
	judgementFalseHints = []string{"错误", "错", "否"}
)

// CanonicalJudgement maps any reply onto exactly 正确 or 错误. Exact
// synonym match wins, then a substring scan, then the default 正确 with
// a warning. Total on every input.
func CanonicalJudgement(ctx context.Context, answer string) string {
	cleaned := strings.ToLower(strings.TrimSpace(answer))
	for _, v := range judgementTrueSet {
		if cleaned == v {
			return JudgementTrue
		}
	}
	for _, v := range judgementFalseSet {
		if cleaned == v {
			return JudgementFalse
		}
	}

	for _, hint := range judgementTrueHints {
		if strings.Contains(answer, hint) {
			return JudgementTrue
		}
	}
	for _, hint := range judgementFalseHints {
		if strings.Contains(answer, hint) {
			return JudgementFalse
		}
	}

	ctxzap.Warn(ctx, "judgement reply not recognized, defaulting to positive",
		zap.String("reply", answer))
	return JudgementTrue
}

// isJudgementSynonym reports whether a normalized candidate is one of the
// judgement answer tokens. Used by the validator to catch cross-type
// leakage into choice questions.
func isJudgementSynonym(candidate string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(candidate))
	for _, v := range judgementTrueSet {
		if cleaned == v {
			return true
		}
	}
	for _, v := range judgementFalseSet {
		if cleaned == v {
			return true
		}
	}
	return false
}
