package domain

import (
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxTargetURLLength bounds the stored target URL.
const MaxTargetURLLength = 2048

// ValidateTargetURL accepts absolute http(s) URLs with a host.
func ValidateTargetURL(raw string) error {
	if err := validation.Validate(raw,
		validation.Required.Error("target_url is required"),
		validation.Length(1, MaxTargetURLLength).Error(fmt.Sprintf("target_url exceeds %d characters", MaxTargetURLLength)),
		is.URL.Error("target_url is not a valid URL"),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: target_url is not a valid URL", ErrValidation)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: target_url scheme must be http or https, got %q", ErrValidation, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: target_url must have a host", ErrValidation)
	}
	return nil
}
