// Package cache stores resolved answers keyed by question identity, with
// an in-process and a Redis backend selected by configuration.
package cache

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/edubrain/answer-backend/internal/entity"
)

const keyPrefix = "answer:"

// Key derives the deterministic cache key for a question. Identical
// question text with a different type or option block is a different
// answer, so all three go into the digest.
func Key(question string, qtype entity.QuestionType, options string) string {
	sum := md5.Sum([]byte(question + "|" + string(qtype) + "|" + options))
	return keyPrefix + hex.EncodeToString(sum[:])
}
