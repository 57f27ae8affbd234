package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lendana/lendana-api/internal/config"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockUserRepo struct {
	repository.UserRepository
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
	mockFindByID    func(ctx context.Context, id uint) (*models.User, error)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.mockFindByEmail(ctx, email)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

type mockRefreshTokenRepo struct {
	repository.RefreshTokenRepository
	mockFindByToken func(ctx context.Context, token string) (*models.RefreshToken, error)
	mockCreate      func(ctx context.Context, rt *models.RefreshToken) error
	mockDelete      func(ctx context.Context, token string) error
}

func (m *mockRefreshTokenRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return m.mockFindByToken(ctx, token)
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, rt *models.RefreshToken) error {
	return m.mockCreate(ctx, rt)
}

func (m *mockRefreshTokenRepo) Delete(ctx context.Context, token string) error {
	return m.mockDelete(ctx, token)
}

func authTestConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1}
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	assert.NoError(t, err)
	return &models.User{
		ID:                1,
		Email:             "borrower@example.com",
		EncryptedPassword: hash,
		Role:              models.RoleUser,
		FullName:          "Test Borrower",
		Status:            models.StatusActive,
	}
}

func TestAuthService_Login(t *testing.T) {
	user := activeUser(t, "secret123")
	users := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "borrower@example.com", email)
			return user, nil
		},
	}
	tokens := &mockRefreshTokenRepo{
		mockCreate: func(ctx context.Context, rt *models.RefreshToken) error {
			assert.Equal(t, user.ID, rt.UserID)
			assert.NotEmpty(t, rt.Token)
			return nil
		},
	}
	svc := NewAuthService(users, tokens, authTestConfig())

	result, err := svc.Login(context.Background(), "borrower@example.com", "secret123")

	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, user.Email, result.User.Email)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	user := activeUser(t, "secret123")
	users := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := NewAuthService(users, nil, authTestConfig())

	_, err := svc.Login(context.Background(), "borrower@example.com", "wrong")

	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	users := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return nil, errors.New("record not found")
		},
	}
	svc := NewAuthService(users, nil, authTestConfig())

	_, err := svc.Login(context.Background(), "nobody@example.com", "secret123")

	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthService_LoginInactiveUser(t *testing.T) {
	user := activeUser(t, "secret123")
	user.Status = models.StatusSuspended
	users := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := NewAuthService(users, nil, authTestConfig())

	_, err := svc.Login(context.Background(), "borrower@example.com", "secret123")

	assert.EqualError(t, err, "account inactive or suspended")
}

func TestAuthService_RefreshTokenRotates(t *testing.T) {
	user := activeUser(t, "secret123")
	expiresAt := time.Now().Add(time.Hour)
	var deleted []string
	users := &mockUserRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			return user, nil
		},
	}
	tokens := &mockRefreshTokenRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: user.ID, Token: token, ExpiresAt: &expiresAt}, nil
		},
		mockCreate: func(ctx context.Context, rt *models.RefreshToken) error {
			return nil
		},
		mockDelete: func(ctx context.Context, token string) error {
			deleted = append(deleted, token)
			return nil
		},
	}
	svc := NewAuthService(users, tokens, authTestConfig())

	result, err := svc.RefreshToken(context.Background(), "old-token")

	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, "old-token", result.RefreshToken)
	assert.Equal(t, []string{"old-token"}, deleted)
}

func TestAuthService_RefreshTokenExpired(t *testing.T) {
	expiresAt := time.Now().Add(-time.Hour)
	var deleted []string
	tokens := &mockRefreshTokenRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: 1, Token: token, ExpiresAt: &expiresAt}, nil
		},
		mockDelete: func(ctx context.Context, token string) error {
			deleted = append(deleted, token)
			return nil
		},
	}
	svc := NewAuthService(nil, tokens, authTestConfig())

	_, err := svc.RefreshToken(context.Background(), "stale-token")

	assert.EqualError(t, err, "token expired")
	assert.Equal(t, []string{"stale-token"}, deleted)
}

func TestAuthService_RefreshTokenUnknown(t *testing.T) {
	tokens := &mockRefreshTokenRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return nil, errors.New("record not found")
		},
	}
	svc := NewAuthService(nil, tokens, authTestConfig())

	_, err := svc.RefreshToken(context.Background(), "missing")

	assert.EqualError(t, err, "invalid token")
}

func TestAuthService_RefreshTokenInactiveUser(t *testing.T) {
	user := activeUser(t, "secret123")
	user.Status = models.StatusInactive
	expiresAt := time.Now().Add(time.Hour)
	users := &mockUserRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			return user, nil
		},
	}
	tokens := &mockRefreshTokenRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: user.ID, Token: token, ExpiresAt: &expiresAt}, nil
		},
		mockDelete: func(ctx context.Context, token string) error { return nil },
	}
	svc := NewAuthService(users, tokens, authTestConfig())

	_, err := svc.RefreshToken(context.Background(), "valid-token")

	assert.EqualError(t, err, "account inactive or suspended")
}

func TestAuthService_Logout(t *testing.T) {
	var deleted []string
	tokens := &mockRefreshTokenRepo{
		mockDelete: func(ctx context.Context, token string) error {
			deleted = append(deleted, token)
			return nil
		},
	}
	svc := NewAuthService(nil, tokens, authTestConfig())

	assert.NoError(t, svc.Logout(context.Background(), "some-token"))
	assert.Equal(t, []string{"some-token"}, deleted)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	assert.NoError(t, err)
	assert.True(t, VerifyPassword("hunter2!", hash))
	assert.False(t, VerifyPassword("hunter3!", hash))
}
