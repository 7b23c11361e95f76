package devserver

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenIssuer mints and checks the HS256 access/refresh pair
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Claims carried by issued tokens
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	Type    string `json:"type"`
	jwtlib.RegisteredClaims
}

// Issue creates an access and a refresh token for u
func (t *TokenIssuer) Issue(u *User) (access, refresh string, err error) {
	now := NowTimeFunc()

	access, err = t.sign(Claims{
		UserID:  u.ID,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		Type:    tokenTypeAccess,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(t.accessTTL)),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("[devserver Issue] failed to sign access token: %w", err)
	}

	refresh, err = t.sign(Claims{
		UserID: u.ID,
		Type:   tokenTypeRefresh,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(t.refreshTTL)),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("[devserver Issue] failed to sign refresh token: %w", err)
	}
	return access, refresh, nil
}

// Parse verifies raw and checks that it is of the wanted type
func (t *TokenIssuer) Parse(raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(tok *jwtlib.Token) (interface{}, error) {
		return t.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(NowTimeFunc))
	if err != nil {
		return nil, fmt.Errorf("[devserver Parse] %w", err)
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("[devserver Parse] expected %s token, got %q", wantType, claims.Type)
	}
	return claims, nil
}

func (t *TokenIssuer) sign(c Claims) (string, error) {
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(t.secret)
}
