package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oselz/projecthub-api/internal/models"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
)

type fakeUserRepo struct {
	users     map[string]*models.User
	lastLogin map[string]time.Time
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}, lastLogin: map[string]time.Time{}}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	f.lastLogin[id] = ts
	return nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "dev@example.com",
		PasswordHash: string(hash),
		FullName:     "Dev Example",
		Role:         models.RoleMember,
		Active:       true,
	}
}

func newTestAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "projecthub-test",
	})
}

func TestAuthLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "hunter22"))
	svc := newTestAuthService(repo)

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dev@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "user-1", result.User.ID)
	assert.Contains(t, repo.lastLogin, "user-1")

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleMember, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(testUser(t, "hunter22")))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dev@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "hunter22")
	user.Active = false
	svc := newTestAuthService(newFakeUserRepo(user))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dev@example.com",
		Password: "hunter22",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
