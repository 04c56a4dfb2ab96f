package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-shortlink/internal/domain"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
)

func TestToError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{name: "not found", err: domain.ErrLinkNotFound, code: http.StatusNotFound, reason: ReasonLinkNotFound},
		{name: "expired", err: fmt.Errorf("lookup: %w", domain.ErrLinkExpired), code: http.StatusNotFound, reason: ReasonLinkExpired},
		{name: "forbidden", err: domain.ErrForbidden, code: http.StatusForbidden, reason: ReasonForbidden},
		{name: "conflict", err: domain.ErrCodeConflict, code: http.StatusConflict, reason: ReasonCodeConflict},
		{name: "validation", err: fmt.Errorf("%w: bad url", domain.ErrValidation), code: http.StatusBadRequest, reason: ReasonValidationFailed},
		{name: "exhausted", err: domain.ErrCodeSpaceExhausted, code: http.StatusInternalServerError, reason: ReasonCodeSpaceExhausted},
		{name: "store down", err: fmt.Errorf("%w: dial tcp", domain.ErrStoreUnavailable), code: http.StatusServiceUnavailable, reason: ReasonStoreUnavailable},
		{name: "unknown", err: errors.New("boom"), code: http.StatusInternalServerError, reason: ReasonInternal},
		{name: "already kratos", err: kerrors.Unauthorized(ReasonUnauthorized, "nope"), code: http.StatusUnauthorized, reason: ReasonUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toError(tt.err)
			assert.Equal(t, tt.code, kerrors.Code(err))
			assert.Equal(t, tt.reason, kerrors.Reason(err))
		})
	}

	assert.NoError(t, toError(nil))
}

func TestToError_ValidationKeepsMessage(t *testing.T) {
	err := toError(fmt.Errorf("%w: target_url must use http or https", domain.ErrValidation))
	assert.Contains(t, kerrors.FromError(err).GetMessage(), "target_url must use http or https")
}

func TestRedirectReply_Redirect(t *testing.T) {
	url, code := (&RedirectReply{Location: "https://example.com"}).Redirect()
	assert.Equal(t, "https://example.com", url)
	assert.Equal(t, http.StatusFound, code)
}
