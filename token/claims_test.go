package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestExpiryOf(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	raw := signed(t, jwtlib.MapClaims{"exp": exp.Unix(), "type": "access"})

	got, err := token.ExpiryOf(raw)
	require.NoError(t, err)
	require.True(t, exp.Equal(got))
}

func TestExpiryOfMissingClaim(t *testing.T) {
	got, err := token.ExpiryOf(signed(t, jwtlib.MapClaims{"user_id": 1}))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestExpiryOfGarbage(t *testing.T) {
	_, err := token.ExpiryOf("not-a-jwt")
	require.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestIsLive(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	token.NowTimeFunc = func() time.Time { return now }
	defer func() { token.NowTimeFunc = time.Now }()

	tests := []struct {
		name   string
		claims jwtlib.MapClaims
		live   bool
	}{
		{name: "future", claims: jwtlib.MapClaims{"exp": now.Add(time.Minute).Unix()}, live: true},
		{name: "past", claims: jwtlib.MapClaims{"exp": now.Add(-time.Minute).Unix()}, live: false},
		{name: "no exp", claims: jwtlib.MapClaims{"email": "a@b.c"}, live: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live, err := token.IsLive(signed(t, tt.claims))
			require.NoError(t, err)
			require.Equal(t, tt.live, live)
		})
	}
}

func TestNewTokenAndExpiresWithin(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	token.NowTimeFunc = func() time.Time { return now }
	defer func() { token.NowTimeFunc = time.Now }()

	access := signed(t, jwtlib.MapClaims{"exp": now.Add(90 * time.Second).Unix()})
	tok := token.NewToken(access, "refresh-1")

	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, "refresh-1", tok.RefreshToken)
	require.True(t, token.ExpiresWithin(tok, 2*time.Minute))
	require.False(t, token.ExpiresWithin(tok, time.Minute))
	require.False(t, token.ExpiresWithin(token.NewToken("opaque", "r"), time.Hour))
	require.False(t, token.ExpiresWithin(nil, time.Hour))
}
