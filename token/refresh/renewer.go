package refresh

import (
	"context"

	"golang.org/x/oauth2"
)

// Path is the backend renewal endpoint
const Path = "/auth/refresh-token"

// Renewer exchanges a refresh token for a new access/refresh pair.
// Implementations must return errors.ErrRenewalFailed (wrapped) for every failure mode:
// transport errors, non-success statuses and replies missing either token.
type Renewer interface {
	Renew(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// RenewerFunc adapts a function to Renewer
type RenewerFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

func (f RenewerFunc) Renew(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return f(ctx, refreshToken)
}
