package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cscinfonest/portal-api/internal/models"
	"github.com/cscinfonest/portal-api/pkg/config"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id string) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// AuthService issues and verifies the signed session tokens that gate the
// admin surface.
type AuthService struct {
	users  userRepository
	cfg    config.JWTConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users userRepository, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, cfg: cfg, logger: logger, now: time.Now}
}

// Login verifies credentials and returns a signed session token. Lookup
// misses and password mismatches produce the same error so the response
// never reveals which part failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, appErrors.ErrValidation.Clone("Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, appErrors.ErrInvalidCredentials
		}
		return "", nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to verify credentials: %s", err.Error()))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, appErrors.ErrInvalidCredentials
	}
	if !user.Active {
		return "", nil, appErrors.ErrInactiveAccount
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, appErrors.ErrInternal.Clone("Failed to create session")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("last login not recorded", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("admin logged in", zap.String("user_id", user.ID))
	return token, user, nil
}

func (s *AuthService) issueToken(user *models.AdminUser) (string, error) {
	now := s.now()
	claims := models.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(token string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(s.cfg.Issuer))
	if err != nil || !parsed.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// CurrentUser resolves the authenticated admin behind a set of claims.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.AdminUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch user: %s", err.Error()))
	}
	if !user.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	return user, nil
}
