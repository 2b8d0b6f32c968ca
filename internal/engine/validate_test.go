package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/edubrain/answer-backend/internal/entity"
)

type stubVerifier struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (s *stubVerifier) Verify(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.reply, s.err
}

func TestValidateMultipleChoice(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"space separated texts", "京师兵 郡县兵 边兵", true},
		{"hash separated texts", "京师兵#郡县兵#边兵", true},
		{"labels with spaces", "A B D", true},
		{"labels with hashes", "A#B#D", true},
		{"compact label run", "ABD", true},
		{"comma labels", "A,D", true},
		{"ascii semicolon labels", "A;B;D", true},
		{"slash labels with padding", "A/ B /D", true},
		{"pipe labels", "A|B|D", true},
		{"all options", "京师兵 郡县兵 边兵 贵族卫队", true},
		{"unknown label", "X", false},
		{"unknown text", "不存在", false},
		{"repeated single option", "A#A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := e.Validate(ctx, tt.candidate, entity.TypeMultiple, garrisonOptions, "")
			if verdict.Accepted != tt.want {
				t.Errorf("expected accepted=%v, got %v (reason %s)", tt.want, verdict.Accepted, verdict.Reason)
			}
		})
	}
}

func TestValidateMultipleChoiceMatched(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	verdict := e.Validate(ctx, "A B D", entity.TypeMultiple, garrisonOptions, "")
	if !verdict.Accepted || verdict.Reason != ReasonAccepted {
		t.Fatalf("expected acceptance, got %+v", verdict)
	}
	want := []string{"京师兵", "郡县兵", "边兵"}
	if len(verdict.Matched) != len(want) {
		t.Fatalf("expected %d matched options, got %v", len(want), verdict.Matched)
	}
	for i, text := range want {
		if verdict.Matched[i] != text {
			t.Errorf("expected matched[%d] %s, got %s", i, text, verdict.Matched[i])
		}
	}
}

// A lone option satisfies the multiple-choice rule only when the
// configured minimum allows it.
func TestValidateMultipleMinimumMatches(t *testing.T) {
	ctx := context.Background()

	strict := New(DefaultConfig(), nil)
	if verdict := strict.Validate(ctx, "京师兵", entity.TypeMultiple, garrisonOptions, ""); verdict.Accepted {
		t.Errorf("expected single fragment rejected under default minimum, got %+v", verdict)
	}

	lenient := New(Config{MinMultipleMatches: 1}, nil)
	if verdict := lenient.Validate(ctx, "京师兵", entity.TypeMultiple, garrisonOptions, ""); !verdict.Accepted {
		t.Errorf("expected single fragment accepted with minimum 1, got %+v", verdict)
	}
}

func TestValidateSingleChoice(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	tests := []struct {
		name      string
		candidate string
		options   string
		question  string
		want      bool
	}{
		{"label", "A", garrisonOptions, "", true},
		{"option text", "京师兵", garrisonOptions, "", true},
		{"padded option text", " 京师兵 ", garrisonOptions, "", true},
		{"space separated options line", "第一次鸦片战争", "第一次世界大战 清朝灭亡 第一次鸦片战争 八国联军侵华战争", "", true},
		{"auto extraction from question", "第一次鸦片战争", "", defenseQuestion, true},
		{"unusable options fall back to question", "清朝灭亡", "dummy", defenseQuestion, true},
		{"substring of option", "鸦片战争", "", defenseQuestion, true},
		{"two fragments rejected", "A B", garrisonOptions, "", false},
		{"unknown text", "不存在的选项", garrisonOptions, "", false},
		{"no options available", "京师兵", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := e.Validate(ctx, tt.candidate, entity.TypeSingle, tt.options, tt.question)
			if verdict.Accepted != tt.want {
				t.Errorf("expected accepted=%v, got %v (reason %s)", tt.want, verdict.Accepted, verdict.Reason)
			}
		})
	}
}

// An option body extracted from a question always validates as a single
// answer for that question.
func TestValidateOptionRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	question := "下列哪个是水的化学式 A. H2O B. CO2"
	opts := e.ExtractOptions(question)
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %v", opts.Texts())
	}
	for _, opt := range opts {
		verdict := e.Validate(ctx, opt.Text, entity.TypeSingle, "", question)
		if !verdict.Accepted {
			t.Errorf("expected extracted option %q to validate, got %+v", opt.Text, verdict)
		}
	}
}

func TestValidateJudgement(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	accepts := []string{"对", "错", "正确", "错误", "true", "FALSE", "√", "×", "是", "否", "yes", "no"}
	for _, candidate := range accepts {
		if verdict := e.Validate(ctx, candidate, entity.TypeJudgement, "", ""); !verdict.Accepted {
			t.Errorf("expected %q accepted for judgement, got %+v", candidate, verdict)
		}
	}

	rejects := []string{"也许", "对的吧", "A"}
	for _, candidate := range rejects {
		verdict := e.Validate(ctx, candidate, entity.TypeJudgement, "", "")
		if verdict.Accepted || verdict.Reason != ReasonNoMatch {
			t.Errorf("expected %q rejected with no-match, got %+v", candidate, verdict)
		}
	}
}

func TestValidateCrossTypeLeakage(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	verdict := e.Validate(ctx, "正确", entity.TypeMultiple, garrisonOptions, "")
	if verdict.Accepted || verdict.Reason != ReasonTypeMismatch {
		t.Errorf("expected type-mismatch rejection, got %+v", verdict)
	}
}

func TestValidateNotFoundSentinel(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	types := []entity.QuestionType{
		entity.TypeSingle,
		entity.TypeMultiple,
		entity.TypeJudgement,
		entity.TypeCompletion,
		entity.TypeUnspecified,
	}
	for _, qtype := range types {
		verdict := e.Validate(ctx, "非常抱歉，未找到", qtype, garrisonOptions, "问题")
		if verdict.Accepted || verdict.Reason != ReasonNotFoundSentinel {
			t.Errorf("expected sentinel rejection for %q, got %+v", qtype, verdict)
		}
	}

	if verdict := e.Validate(ctx, "", entity.TypeSingle, garrisonOptions, ""); verdict.Reason != ReasonNotFoundSentinel {
		t.Errorf("expected empty candidate rejected as sentinel, got %+v", verdict)
	}
}

func TestValidateUnspecifiedType(t *testing.T) {
	ctx := context.Background()
	e := New(DefaultConfig(), nil)

	verdict := e.Validate(ctx, "某个答案", entity.TypeUnspecified, "", "")
	if !verdict.Accepted || verdict.Reason != ReasonAcceptedProvisional {
		t.Errorf("expected provisional acceptance without a type, got %+v", verdict)
	}

	if v := e.Validate(ctx, "暂无答案", entity.TypeUnspecified, "", ""); v.Accepted {
		t.Errorf("expected sentinel rejection without a type, got %+v", v)
	}
}

func TestValidateCompletion(t *testing.T) {
	ctx := context.Background()
	question := "植物通过____把光能转化为化学能。"

	t.Run("verifier confirms", func(t *testing.T) {
		v := &stubVerifier{reply: "正确"}
		e := New(DefaultConfig(), v)
		verdict := e.Validate(ctx, "光合作用", entity.TypeCompletion, "", question)
		if !verdict.Accepted || verdict.Reason != ReasonAccepted {
			t.Fatalf("expected confirmed acceptance, got %+v", verdict)
		}
		if !strings.Contains(v.prompt, question) || !strings.Contains(v.prompt, "光合作用") {
			t.Errorf("expected prompt to carry question and answer, got %q", v.prompt)
		}
	})

	t.Run("verifier denies", func(t *testing.T) {
		e := New(DefaultConfig(), &stubVerifier{reply: "错误"})
		verdict := e.Validate(ctx, "呼吸作用", entity.TypeCompletion, "", question)
		if verdict.Accepted || verdict.Reason != ReasonNoMatch {
			t.Errorf("expected denial, got %+v", verdict)
		}
	})

	t.Run("verifier error fails open", func(t *testing.T) {
		e := New(DefaultConfig(), &stubVerifier{err: errors.New("backend down")})
		verdict := e.Validate(ctx, "光合作用", entity.TypeCompletion, "", question)
		if !verdict.Accepted || verdict.Reason != ReasonAcceptedProvisional {
			t.Errorf("expected provisional acceptance on error, got %+v", verdict)
		}
	})

	t.Run("ambiguous reply fails open", func(t *testing.T) {
		e := New(DefaultConfig(), &stubVerifier{reply: "这个答案大概没问题"})
		verdict := e.Validate(ctx, "光合作用", entity.TypeCompletion, "", question)
		if !verdict.Accepted || verdict.Reason != ReasonAcceptedProvisional {
			t.Errorf("expected provisional acceptance, got %+v", verdict)
		}
	})

	t.Run("no verifier configured", func(t *testing.T) {
		e := New(DefaultConfig(), nil)
		verdict := e.Validate(ctx, "光合作用", entity.TypeCompletion, "", question)
		if !verdict.Accepted || verdict.Reason != ReasonAcceptedProvisional {
			t.Errorf("expected provisional acceptance, got %+v", verdict)
		}
	})

	t.Run("json array candidate unwrapped", func(t *testing.T) {
		v := &stubVerifier{reply: "正确"}
		e := New(DefaultConfig(), v)
		verdict := e.Validate(ctx, `["光合作用", "呼吸作用"]`, entity.TypeCompletion, "", question)
		if !verdict.Accepted {
			t.Fatalf("expected acceptance, got %+v", verdict)
		}
		if !strings.Contains(v.prompt, "答案：光合作用") {
			t.Errorf("expected first array element in prompt, got %q", v.prompt)
		}
	})

	t.Run("missing question rejects", func(t *testing.T) {
		e := New(DefaultConfig(), &stubVerifier{reply: "正确"})
		verdict := e.Validate(ctx, "光合作用", entity.TypeCompletion, "", "")
		if verdict.Accepted {
			t.Errorf("expected rejection without question text, got %+v", verdict)
		}
	})
}

func TestValidateProvisionalAcceptance(t *testing.T) {
	ctx := context.Background()

	e := New(DefaultConfig(), nil)
	verdict := e.Validate(ctx, "岳飞#文天祥", entity.TypeMultiple, garrisonOptions, "")
	if !verdict.Accepted || verdict.Reason != ReasonAcceptedProvisional {
		t.Fatalf("expected provisional acceptance of well-shaped fragments, got %+v", verdict)
	}

	disabled := New(Config{AllowProvisional: false}, nil)
	if v := disabled.Validate(ctx, "岳飞#文天祥", entity.TypeMultiple, garrisonOptions, ""); v.Accepted {
		t.Errorf("expected rejection with provisional acceptance disabled, got %+v", v)
	}
}
