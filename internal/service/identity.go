package service

import (
	"context"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
)

// ownerFromContext returns the authenticated owner, taken from the token's
// subject claim.
func ownerFromContext(ctx context.Context) (string, error) {
	claims, ok := jwt.FromContext(ctx)
	if !ok {
		return "", kerrors.Unauthorized(ReasonUnauthorized, "missing identity")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", kerrors.Unauthorized(ReasonUnauthorized, "token has no subject")
	}
	return sub, nil
}
