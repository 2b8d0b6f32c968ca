package engine

import (
	"context"
	"testing"
)

func TestCanonicalJudgement(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"exact positive", "正确", JudgementTrue},
		{"exact positive synonym", "对", JudgementTrue},
		{"exact positive english", "TRUE", JudgementTrue},
		{"exact positive yes", "yes", JudgementTrue},
		{"check mark", "√", JudgementTrue},
		{"exact negative", "错误", JudgementFalse},
		{"exact negative synonym", "否", JudgementFalse},
		{"exact negative english", "False", JudgementFalse},
		{"cross mark", "×", JudgementFalse},
		{"padded", "  是  ", JudgementTrue},
		{"positive inside sentence", "这个说法是正确的", JudgementTrue},
		{"negative inside sentence", "该说法错误，理由如下", JudgementFalse},
		{"positive wins over negative", "不对", JudgementTrue},
		{"unrecognized defaults positive", "无法判断", JudgementTrue},
		{"empty defaults positive", "", JudgementTrue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalJudgement(ctx, tt.answer)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// The classifier is total: whatever comes in, exactly one of the two
// canonical tokens comes out.
func TestCanonicalJudgementTotality(t *testing.T) {
	ctx := context.Background()
	inputs := []string{
		"", " ", "maybe", "42", "对错", "√×", "<answer></answer>",
		"这道题无法判断对错与否", "correct-ish", "правильно",
	}
	for _, in := range inputs {
		got := CanonicalJudgement(ctx, in)
		if got != JudgementTrue && got != JudgementFalse {
			t.Fatalf("expected a canonical token for %q, got %q", in, got)
		}
	}
}
