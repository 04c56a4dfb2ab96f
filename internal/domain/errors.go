package domain

import "errors"

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrLinkExpired  = errors.New("link has expired")
	ErrForbidden    = errors.New("link belongs to another owner")

	// ErrCodeConflict reports that a short code is already assigned.
	ErrCodeConflict = errors.New("short code already exists")
	// ErrCodeSpaceExhausted is returned when random generation keeps
	// colliding past the attempt bound.
	ErrCodeSpaceExhausted = errors.New("short code generation failed after max attempts")

	ErrValidation = errors.New("validation failed")

	ErrStoreUnavailable = errors.New("link store unavailable")
	ErrCacheMiss        = errors.New("cache miss")
	ErrCacheUnavailable = errors.New("cache unavailable")
)
