package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
	"github.com/kougiview/kougiview-api/internal/repository"
	"github.com/kougiview/kougiview-api/pkg/config"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

const googleProvider = "google"

type googleTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*models.GoogleUserInfo, error)
}

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id, name string, avatarURL *string) error
}

// AuthService exchanges Google ID tokens for application sessions and
// validates the JWTs it issued.
type AuthService struct {
	users    authUserRepository
	verifier googleTokenVerifier
	jwtCfg   config.JWTConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service instance.
func NewAuthService(users authUserRepository, verifier googleTokenVerifier, jwtCfg config.JWTConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, verifier: verifier, jwtCfg: jwtCfg, logger: logger, now: time.Now}
}

// Login verifies the Google ID token, finds or creates the matching user, and
// issues an access token. Concurrent first logins race on the unique provider
// identity; the loser of the race re-reads the winner's row.
func (s *AuthService) Login(ctx context.Context, idToken string) (string, *models.User, error) {
	info, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return "", nil, err
		}
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "google token verification unavailable")
	}

	user, err := s.users.FindByProvider(ctx, googleProvider, info.Subject)
	switch {
	case err == nil:
		if user.Name != info.Name || derefOrEmpty(user.AvatarURL) != info.Picture {
			avatar := optionalString(info.Picture)
			if updateErr := s.users.UpdateProfile(ctx, user.ID, info.Name, avatar); updateErr != nil {
				s.logger.Warn("failed to refresh user profile", zap.Error(updateErr))
			} else {
				user.Name = info.Name
				user.AvatarURL = avatar
			}
		}
	case errors.Is(err, sql.ErrNoRows):
		user = &models.User{
			Email:      info.Email,
			Name:       info.Name,
			Provider:   googleProvider,
			ProviderID: info.Subject,
			AvatarURL:  optionalString(info.Picture),
		}
		if createErr := s.users.Create(ctx, user); createErr != nil {
			if !repository.IsUniqueViolation(createErr) {
				return "", nil, appErrors.Wrap(createErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
			}
			user, err = s.users.FindByProvider(ctx, googleProvider, info.Subject)
			if err != nil {
				return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user after login race")
			}
		}
	default:
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	return token, user, nil
}

// Me loads the authenticated user's record.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// ValidateToken parses and validates an access token issued by this service.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now().UTC()
	claims := models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.Expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Secret))
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
