package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-shop-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ExpiryOf decodes the exp claim of a JWT without verifying its signature; the client has no key to verify
// with and only needs to know whether presenting the token is still worthwhile. A token without exp returns
// the zero time.
func ExpiryOf(raw string) (time.Time, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("[token ExpiryOf] %w: %v", errors.ErrInvalidToken, err)
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("[token ExpiryOf] %w: %v", errors.ErrInvalidToken, err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// IsLive reports whether the token's exp lies in the future. Undecodable tokens return an error.
func IsLive(raw string) (bool, error) {
	exp, err := ExpiryOf(raw)
	if err != nil {
		return false, err
	}
	return !exp.IsZero() && NowTimeFunc().Before(exp), nil
}

// NewToken wraps an access/refresh pair, taking the expiry from the access token's exp claim when present.
func NewToken(accessToken, refreshToken string) *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if exp, err := ExpiryOf(accessToken); err == nil {
		t.Expiry = exp
	}
	return t
}

// ExpiresWithin reports whether t expires before now+margin. Tokens without a known expiry never do.
func ExpiresWithin(t *oauth2.Token, margin time.Duration) bool {
	if t == nil || t.Expiry.IsZero() {
		return false
	}
	return t.Expiry.Before(NowTimeFunc().Add(margin))
}
