package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kougiview/kougiview-api/internal/models"
	"github.com/kougiview/kougiview-api/pkg/config"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

type verifierStub struct {
	info *models.GoogleUserInfo
	err  error
}

func (s *verifierStub) VerifyIDToken(ctx context.Context, idToken string) (*models.GoogleUserInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

type authUserRepoStub struct {
	byProvider map[string]*models.User
	createErr  error
	created    *models.User
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.byProvider {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	user, ok := s.byProvider[provider+"/"+providerID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *authUserRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	user.ID = "generated"
	s.created = user
	if s.byProvider == nil {
		s.byProvider = make(map[string]*models.User)
	}
	s.byProvider[user.Provider+"/"+user.ProviderID] = user
	return nil
}

func (s *authUserRepoStub) UpdateProfile(ctx context.Context, id, name string, avatarURL *string) error {
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "kougiview-api"}
}

func googleInfo() *models.GoogleUserInfo {
	return &models.GoogleUserInfo{
		Subject: "google-sub-1",
		Email:   "student@example.com",
		Name:    "Student A",
	}
}

func TestAuthLoginCreatesUserOnFirstLogin(t *testing.T) {
	repo := &authUserRepoStub{}
	svc := NewAuthService(repo, &verifierStub{info: googleInfo()}, testJWTConfig(), nil)

	token, user, err := svc.Login(context.Background(), "id-token")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, repo.created)
	assert.Equal(t, "student@example.com", user.Email)
	assert.Equal(t, "google", user.Provider)
	assert.Equal(t, "google-sub-1", user.ProviderID)
}

func TestAuthLoginResolvesFirstLoginRace(t *testing.T) {
	winner := &models.User{ID: "u-existing", Email: "student@example.com", Provider: "google", ProviderID: "google-sub-1"}
	repo := &raceUserRepoStub{winner: winner}
	svc := NewAuthService(repo, &verifierStub{info: googleInfo()}, testJWTConfig(), nil)

	_, user, err := svc.Login(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "u-existing", user.ID)
}

// raceUserRepoStub simulates two concurrent first logins: the first lookup
// misses, the insert hits the unique constraint, and the re-read finds the
// winner's row.
type raceUserRepoStub struct {
	winner *models.User
	looked int
}

func (s *raceUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (s *raceUserRepoStub) FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	s.looked++
	if s.looked == 1 {
		return nil, sql.ErrNoRows
	}
	return s.winner, nil
}

func (s *raceUserRepoStub) Create(ctx context.Context, user *models.User) error {
	return &pq.Error{Code: "23505"}
}

func (s *raceUserRepoStub) UpdateProfile(ctx context.Context, id, name string, avatarURL *string) error {
	return nil
}

func TestAuthLoginRejectsInvalidGoogleToken(t *testing.T) {
	svc := NewAuthService(&authUserRepoStub{}, &verifierStub{err: appErrors.Clone(appErrors.ErrInvalidGoogleToken, "")}, testJWTConfig(), nil)

	_, _, err := svc.Login(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidGoogleToken.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRoundTrip(t *testing.T) {
	repo := &authUserRepoStub{}
	svc := NewAuthService(repo, &verifierStub{info: googleInfo()}, testJWTConfig(), nil)

	token, user, err := svc.Login(context.Background(), "id-token")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&authUserRepoStub{}, &verifierStub{}, testJWTConfig(), nil)

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(&authUserRepoStub{}, &verifierStub{info: googleInfo()}, testJWTConfig(), nil)
	token, _, err := issuer.Login(context.Background(), "id-token")
	require.NoError(t, err)

	other := NewAuthService(&authUserRepoStub{}, &verifierStub{}, config.JWTConfig{Secret: "different", Expiration: time.Hour}, nil)
	_, err = other.ValidateToken(token)
	require.Error(t, err)
}
