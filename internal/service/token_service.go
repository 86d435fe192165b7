package service

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
)

const (
	defaultTokenSalt   = "user-auth-token"
	defaultTokenMaxAge = 600 * time.Second
	tokenKeyInfo       = "alumni-survey-api/session-token/v1"
)

// TokenConfig configures session token signing.
type TokenConfig struct {
	Secret string
	// Salt namespaces the signing key and doubles as the token audience.
	Salt   string
	MaxAge time.Duration
}

type sessionClaims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates short-lived session tokens. Tokens carry no
// expiry claim: their age is measured from the issued-at time on validation.
type TokenService struct {
	key    []byte
	salt   string
	maxAge time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenService derives the signing key from the configured secret.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.Salt == "" {
		cfg.Salt = defaultTokenSalt
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultTokenMaxAge
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(cfg.Secret), []byte(cfg.Salt), []byte(tokenKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}

	s := &TokenService{key: key, salt: cfg.Salt, maxAge: cfg.MaxAge, now: time.Now}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(cfg.Salt),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// MaxAge returns how long a token stays valid after issuance.
func (s *TokenService) MaxAge() time.Duration {
	return s.maxAge
}

// Issue signs a token for the actor and returns it with its expiry as unix seconds.
// userType is signed as given so validation echoes what the client logged in with.
func (s *TokenService) Issue(id int64, username, userType string) (string, int64, error) {
	if _, ok := authz.ParseRole(userType); !ok {
		return "", 0, fmt.Errorf("unknown user type %q", userType)
	}
	issuedAt := s.now().Truncate(time.Second)
	claims := &sessionClaims{
		UserID:   id,
		Username: username,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{s.salt},
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", 0, err
	}
	return signed, issuedAt.Add(s.maxAge).Unix(), nil
}

// Validate verifies signature and age. The identity is only returned with TokenValid.
func (s *TokenService) Validate(tokenString string) (*authz.Identity, authz.TokenStatus) {
	if tokenString == "" {
		return nil, authz.TokenMissing
	}

	claims := &sessionClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil || !token.Valid || claims.IssuedAt == nil {
		return nil, authz.TokenInvalid
	}

	role, ok := authz.ParseRole(claims.UserType)
	if !ok {
		return nil, authz.TokenInvalid
	}

	if s.now().Sub(claims.IssuedAt.Time) >= s.maxAge {
		return nil, authz.TokenExpired
	}

	return &authz.Identity{ID: claims.UserID, Username: claims.Username, UserType: claims.UserType, Role: role}, authz.TokenValid
}
