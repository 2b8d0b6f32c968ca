// Package engine normalizes and validates exam answers. It turns raw
// generative replies into canonical answer text per question type and
// decides whether candidate answers from any source (cache, external
// question banks, the model itself) are acceptable.
package engine

import (
	"context"
	"strings"

	"github.com/edubrain/answer-backend/internal/entity"
)

// Verifier is the generative-backend surface the validator uses for
// delegated fill-in-the-blank correctness checks. Implementations must
// honor context cancellation; the reply is parsed leniently.
type Verifier interface {
	Verify(ctx context.Context, prompt string) (string, error)
}

// Config holds the acceptance-bias knobs. All of them are threaded
// explicitly; the engine keeps no global state.
type Config struct {
	// MinMultipleMatches is the minimum count of distinct resolved options
	// for a multiple-choice candidate to be accepted.
	MinMultipleMatches int
	// AllowProvisional permits accepting well-shaped multiple-choice
	// candidates whose option texts could not be confirmed.
	AllowProvisional bool
	// OptionCacheSize bounds the option-extractor memo cache.
	OptionCacheSize int
}

func DefaultConfig() Config {
	return Config{
		MinMultipleMatches: 2,
		AllowProvisional:   true,
		OptionCacheSize:    256,
	}
}

type Engine struct {
	cfg      Config
	verifier Verifier
	memo     *optionCache
}

// New builds an engine. The verifier may be nil, in which case
// fill-in-the-blank candidates are accepted provisionally instead of
// being verified.
func New(cfg Config, verifier Verifier) *Engine {
	if cfg.MinMultipleMatches <= 0 {
		cfg.MinMultipleMatches = 2
	}
	if cfg.OptionCacheSize <= 0 {
		cfg.OptionCacheSize = 256
	}
	return &Engine{
		cfg:      cfg,
		verifier: verifier,
		memo:     newOptionCache(cfg.OptionCacheSize),
	}
}

// Normalize turns a raw model reply into the canonical answer form for
// the question type. It never fails: malformed input degrades to the
// closest total fallback (pass-through or the judgement default).
func (e *Engine) Normalize(ctx context.Context, reply string, qtype entity.QuestionType, question string) string {
	answer := StripReply(reply)

	switch qtype {
	case entity.TypeJudgement:
		return CanonicalJudgement(ctx, answer)
	case entity.TypeSingle, entity.TypeMultiple:
		return normalizeSeparators(answer)
	case entity.TypeCompletion:
		if IsMultiSubquestion(question) {
			return FormatMultiSubquestion(ctx, answer, question)
		}
		return answer
	default:
		return answer
	}
}

// normalizeSeparators maps the clause separators `；` and `;` onto the
// canonical `#`.
func normalizeSeparators(answer string) string {
	answer = strings.ReplaceAll(answer, "；", "#")
	return strings.ReplaceAll(answer, ";", "#")
}
