package service

import (
	"errors"

	"go-shortlink/internal/domain"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonLinkNotFound       = "LINK_NOT_FOUND"
	ReasonLinkExpired        = "LINK_EXPIRED"
	ReasonForbidden          = "FORBIDDEN"
	ReasonUnauthorized       = "UNAUTHORIZED"
	ReasonCodeConflict       = "CODE_CONFLICT"
	ReasonValidationFailed   = "VALIDATION_FAILED"
	ReasonCodeSpaceExhausted = "CODE_SPACE_EXHAUSTED"
	ReasonStoreUnavailable   = "STORE_UNAVAILABLE"
	ReasonInternal           = "INTERNAL"
)

// toError maps domain errors onto kratos errors carrying an HTTP status and
// a stable reason.
func toError(err error) error {
	if err == nil {
		return nil
	}
	var ke *kerrors.Error
	if errors.As(err, &ke) {
		return ke
	}

	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		return kerrors.NotFound(ReasonLinkNotFound, "link not found")
	case errors.Is(err, domain.ErrLinkExpired):
		return kerrors.NotFound(ReasonLinkExpired, "link has expired")
	case errors.Is(err, domain.ErrForbidden):
		return kerrors.Forbidden(ReasonForbidden, "link belongs to another owner")
	case errors.Is(err, domain.ErrCodeConflict):
		return kerrors.Conflict(ReasonCodeConflict, "short code already exists")
	case errors.Is(err, domain.ErrValidation):
		return kerrors.BadRequest(ReasonValidationFailed, err.Error())
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		return kerrors.InternalServer(ReasonCodeSpaceExhausted, "could not allocate a short code")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return kerrors.ServiceUnavailable(ReasonStoreUnavailable, "link store unavailable")
	default:
		return kerrors.InternalServer(ReasonInternal, "internal error").WithCause(err)
	}
}
