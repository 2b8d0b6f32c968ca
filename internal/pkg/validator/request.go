package validator

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/edubrain/answer-backend/internal/entity"
)

// Length limits for inbound search fields, counted in runes. OCS clients
// occasionally submit whole page dumps as the question text.
const (
	MaxQuestionLength = 5000
	MaxOptionsLength  = 2000
	MaxContextLength  = 10000
)

// maliciousPatterns covers script injection, SQL fragments and shell
// chains. Matched input is rejected outright instead of being sanitized.
var maliciousPatterns = []*regexp.Regexp{
	// XSS
	regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)onload\s*=`),
	regexp.MustCompile(`(?i)onerror\s*=`),
	regexp.MustCompile(`(?i)onclick\s*=`),
	regexp.MustCompile(`(?i)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)<object[^>]*>.*?</object>`),
	regexp.MustCompile(`(?i)<embed[^>]*>.*?</embed>`),
	// SQL injection
	regexp.MustCompile(`(?i);\s*drop\s+table`),
	regexp.MustCompile(`(?i);\s*delete\s+from`),
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?im)--\s*$`),
	regexp.MustCompile(`/\*\*/`),
	// Command injection
	regexp.MustCompile(`(?i);\s*rm\s+`),
	regexp.MustCompile(`(?i);\s*del\s+`),
	regexp.MustCompile(`(?i);\s*format\s+`),
	regexp.MustCompile(`(?i)&&\s*rm\s+`),
	regexp.MustCompile(`(?i)&&\s*del\s+`),
}

// Validator validates inbound search requests
type Validator struct{}

func NewRequestValidator() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateSearch(query *entity.SearchQuery) error {
	if query.Question == "" {
		return entity.ErrMissingQuestion
	}

	if utf8.RuneCountInString(query.Question) > MaxQuestionLength {
		return fmt.Errorf("%w: question exceeds %d characters", entity.ErrFieldTooLong, MaxQuestionLength)
	}

	if utf8.RuneCountInString(query.Options) > MaxOptionsLength {
		return fmt.Errorf("%w: options exceeds %d characters", entity.ErrFieldTooLong, MaxOptionsLength)
	}

	if utf8.RuneCountInString(query.Context) > MaxContextLength {
		return fmt.Errorf("%w: context exceeds %d characters", entity.ErrFieldTooLong, MaxContextLength)
	}

	if err := query.Type.Validate(); err != nil {
		return fmt.Errorf("%w: unknown question type", err)
	}

	for field, value := range map[string]string{
		"question": query.Question,
		"options":  query.Options,
		"context":  query.Context,
	} {
		if containsMaliciousInput(value) {
			return fmt.Errorf("%w: %s", entity.ErrSuspiciousInput, field)
		}
	}

	return nil
}

func containsMaliciousInput(value string) bool {
	if value == "" {
		return false
	}

	for _, pattern := range maliciousPatterns {
		if pattern.MatchString(value) {
			return true
		}
	}

	return false
}
