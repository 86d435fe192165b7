package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
)

var tokenEpoch = time.Unix(1700000000, 0)

func newTestTokenService(t *testing.T, now *time.Time) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{Secret: "test-secret"})
	require.NoError(t, err)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestTokenServiceRoundTrip(t *testing.T) {
	now := tokenEpoch
	svc := newTestTokenService(t, &now)

	token, expiresAt, err := svc.Issue(5, "ana", "alumni")
	require.NoError(t, err)
	assert.Equal(t, tokenEpoch.Add(600*time.Second).Unix(), expiresAt)

	identity, status := svc.Validate(token)
	require.Equal(t, authz.TokenValid, status)
	assert.Equal(t, &authz.Identity{ID: 5, Username: "ana", UserType: "alumni", Role: authz.RoleAlumni}, identity)
}

func TestTokenServiceExpiresAfterMaxAge(t *testing.T) {
	now := tokenEpoch
	svc := newTestTokenService(t, &now)
	token, _, err := svc.Issue(1, "admin", "admin")
	require.NoError(t, err)

	now = tokenEpoch.Add(599 * time.Second)
	_, status := svc.Validate(token)
	assert.Equal(t, authz.TokenValid, status)

	now = tokenEpoch.Add(600 * time.Second)
	identity, status := svc.Validate(token)
	assert.Equal(t, authz.TokenExpired, status)
	assert.Nil(t, identity)
}

func TestTokenServiceRejectsEveryBitFlip(t *testing.T) {
	now := tokenEpoch
	svc := newTestTokenService(t, &now)
	token, _, err := svc.Issue(7, "ph1", "programhead")
	require.NoError(t, err)

	raw := []byte(token)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), raw...)
			mutated[i] ^= 1 << bit
			identity, status := svc.Validate(string(mutated))
			if !assert.Equal(t, authz.TokenInvalid, status, "byte %d bit %d", i, bit) {
				return
			}
			assert.Nil(t, identity)
		}
	}
}

func TestTokenServiceRejectsForeignTokens(t *testing.T) {
	now := tokenEpoch
	svc := newTestTokenService(t, &now)

	other, err := NewTokenService(TokenConfig{Secret: "test-secret", Salt: "password-reset"})
	require.NoError(t, err)
	other.now = svc.now
	foreign, _, err := other.Issue(5, "ana", "alumni")
	require.NoError(t, err)

	_, status := svc.Validate(foreign)
	assert.Equal(t, authz.TokenInvalid, status)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &sessionClaims{
		UserID:   1,
		UserType: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{defaultTokenSalt},
			IssuedAt: jwt.NewNumericDate(tokenEpoch),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, status = svc.Validate(unsigned)
	assert.Equal(t, authz.TokenInvalid, status)

	_, status = svc.Validate("")
	assert.Equal(t, authz.TokenMissing, status)
	_, status = svc.Validate("garbage")
	assert.Equal(t, authz.TokenInvalid, status)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{})
	assert.Error(t, err)
}
