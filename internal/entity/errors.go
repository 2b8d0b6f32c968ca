package entity

import "errors"

// Domain errors
var (
	// Search errors
	ErrMissingQuestion  = errors.New("question text is missing")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrEmptyAnswer      = errors.New("empty answer from provider")
	ErrProviderDisabled = errors.New("provider is disabled")

	// Record errors
	ErrRecordNotFound = errors.New("answer record not found")

	// Cache errors
	ErrCacheDisabled = errors.New("cache is disabled")

	// Auth and limits
	ErrInvalidToken = errors.New("invalid access token")
	ErrRateLimited  = errors.New("rate limit exceeded")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrFieldTooLong     = errors.New("field exceeds maximum length")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrSuspiciousInput  = errors.New("input contains forbidden content")
)
