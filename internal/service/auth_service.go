package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type adminLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
}

type alumniLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.Alumni, error)
}

type programHeadLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.ProgramHead, error)
}

type sessionTokens interface {
	Issue(id int64, username, userType string) (string, int64, error)
	Validate(token string) (*authz.Identity, authz.TokenStatus)
}

// LoginRequest holds the credentials posted to the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

// LoginResponse describes the authenticated account and its session token.
type LoginResponse struct {
	Username   string `json:"username"`
	ID         int64  `json:"id"`
	UserType   string `json:"user_type"`
	FirstLogin bool   `json:"first_login"`
	// Status is only reported for program heads.
	Status         *string `json:"status,omitempty"`
	Token          string  `json:"token"`
	TokenExpiresAt int64   `json:"token_expires_at"`
}

// TokenValidation is the introspection result of a session token.
type TokenValidation struct {
	Valid   bool            `json:"valid"`
	Payload *authz.Identity `json:"payload,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

var (
	errInvalidUserType = appErrors.Clone(appErrors.ErrValidation, "Invalid user type")
	errMissingToken    = appErrors.WithDetails(appErrors.ErrValidation, "missing token", map[string]interface{}{
		"valid":  false,
		"reason": "missing_token",
	})
)

// AuthService logs accounts in and introspects session tokens.
type AuthService struct {
	admins       adminLookup
	alumni       alumniLookup
	programHeads programHeadLookup
	tokens       sessionTokens
	logger       *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(admins adminLookup, alumni alumniLookup, programHeads programHeadLookup, tokens sessionTokens, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{admins: admins, alumni: alumni, programHeads: programHeads, tokens: tokens, logger: logger}
}

type loginAccount struct {
	id         int64
	username   string
	password   string
	status     *string
	firstLogin bool
}

// Login checks the credentials against the account table selected by user_type
// and issues a session token. Passwords are stored and compared in plaintext.
// first_login stays true for alumni until they record their consent.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	role, ok := authz.ParseAccountType(req.UserType)
	if !ok {
		return nil, errInvalidUserType
	}

	account, err := s.lookup(ctx, role, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if subtle.ConstantTimeCompare([]byte(account.password), []byte(req.Password)) != 1 {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(account.id, account.username, req.UserType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	s.logger.Info("account logged in", zap.Int64("account_id", account.id), zap.String("user_type", role.String()))

	return &LoginResponse{
		Username:       account.username,
		ID:             account.id,
		UserType:       req.UserType,
		FirstLogin:     account.firstLogin,
		Status:         account.status,
		Token:          token,
		TokenExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) lookup(ctx context.Context, role authz.Role, username string) (*loginAccount, error) {
	switch role {
	case authz.RoleAdmin:
		admin, err := s.admins.FindByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		return &loginAccount{id: admin.ID, username: admin.Username, password: admin.Password}, nil
	case authz.RoleAlumni:
		alumni, err := s.alumni.FindByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		return &loginAccount{id: alumni.ID, username: alumni.Username, password: alumni.Password, firstLogin: alumni.ConsentedAt == nil}, nil
	case authz.RoleProgramHead:
		head, err := s.programHeads.FindByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		status := head.Status
		return &loginAccount{id: head.ID, username: head.Username, password: head.Password, status: &status}, nil
	case authz.RoleNone:
	}
	return nil, sql.ErrNoRows
}

// ValidateToken reports whether token is a valid, unexpired session token.
func (s *AuthService) ValidateToken(token string) (*TokenValidation, error) {
	identity, status := s.tokens.Validate(token)
	switch status {
	case authz.TokenMissing:
		return nil, errMissingToken
	case authz.TokenValid:
		return &TokenValidation{Valid: true, Payload: identity}, nil
	case authz.TokenExpired, authz.TokenInvalid:
	}
	return &TokenValidation{Valid: false, Reason: string(status)}, nil
}
