package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/samiralkaabi/garagehub-backend/pkg/auth"
	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

const refreshTokenBytes = 32

// Service covers registration, login, and profile reads.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*LoginResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionStore interface {
	StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	RevokeRefreshToken(ctx context.Context, userID string) error
}

type service struct {
	repo        Repository
	sessions    sessionStore
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// RegisterRequest captures a new account signup.
type RegisterRequest struct {
	FullName string
	Mobile   string
	Email    *string
	Password string
	Role     enums.UserRole
}

// LoginRequest carries the credentials presented at login.
type LoginRequest struct {
	Mobile   string
	Password string
}

// LoginResponse bundles the issued token pair with the account.
type LoginResponse struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// NewService builds the users service.
func NewService(repo Repository, sessions sessionStore, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name required")
	}
	if strings.TrimSpace(req.Mobile) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mobile required")
	}
	role := req.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}

	user := models.User{
		FullName: strings.TrimSpace(req.FullName),
		Mobile:   strings.TrimSpace(req.Mobile),
		Email:    req.Email,
		Role:     role,
		IsActive: true,
	}
	if req.Password != "" {
		hash, err := security.HashPassword(req.Password, s.passwordCfg)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = &hash
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.FindByMobile(ctx, strings.TrimSpace(req.Mobile))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive || user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	ok, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*LoginResponse, error) {
	stored, err := s.sessions.GetRefreshToken(ctx, userID.String())
	if err != nil || stored == "" || stored != refreshToken {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.RevokeRefreshToken(ctx, userID.String())
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*LoginResponse, error) {
	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		BranchID: user.BranchID,
	})
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	// Refresh tokens outlive the access token by a fixed multiple.
	ttl := time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute * 24
	if err := s.sessions.StoreRefreshToken(ctx, user.ID.String(), refresh, ttl); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
