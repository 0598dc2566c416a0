package llm

import "errors"

var (
	// ErrNotConfigured means no API key is available; callers degrade instead of failing.
	ErrNotConfigured = errors.New("generative service not configured")

	ErrInvalidConfiguration = errors.New("invalid model configuration")

	ErrAPICallFailed = errors.New("API call to model failed")

	ErrRateLimited = errors.New("rate limit exceeded")

	ErrEmptyResponse = errors.New("empty response from model")

	ErrBlocked = errors.New("prompt blocked by model")
)
