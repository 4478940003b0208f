package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderbudget/go-trip-budget/config"
	"github.com/wanderbudget/go-trip-budget/internal/api"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// MockRepository is a mock implementation of the Repository interface.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	args := m.Called(ctx, username, email, password)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*types.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockRepository) ValidateCredentials(ctx context.Context, email, password string) (*types.UserProfile, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) GetRefreshTokenOwner(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRepository) RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:     "test-secret-key",
		Issuer:        "wanderbudget",
		Audience:      "wanderbudget-api",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 30 * 24 * time.Hour,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogin_IssuesSignedTokenPair(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testJWTConfig(), testLogger())

	userID := uuid.New()
	user := &types.UserProfile{ID: userID, Email: "ana@example.com", Username: "ana", Role: "user", IsActive: true}

	repo.On("ValidateCredentials", mock.Anything, "ana@example.com", "pass1234").Return(user, nil)
	repo.On("StoreRefreshToken", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	repo.On("UpdateLastLogin", mock.Anything, userID).Return(nil)

	access, refresh, err := svc.Login(context.Background(), "ana@example.com", "pass1234")
	require.NoError(t, err)
	assert.NotEmpty(t, refresh)

	claims := &api.Claims{}
	token, err := jwt.ParseWithClaims(access, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret-key"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "wanderbudget", claims.Issuer)

	repo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testJWTConfig(), testLogger())

	repo.On("ValidateCredentials", mock.Anything, "ana@example.com", "wrong").Return(nil, ErrInvalidCredentials)

	_, _, err := svc.Login(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	repo.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_RotatesToken(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testJWTConfig(), testLogger())

	userID := uuid.New()
	user := &types.UserProfile{ID: userID, Email: "ana@example.com", Username: "ana", Role: "user", IsActive: true}

	repo.On("GetRefreshTokenOwner", mock.Anything, "old-token").Return(userID, nil)
	repo.On("GetUserByID", mock.Anything, userID).Return(user, nil)
	repo.On("RevokeRefreshToken", mock.Anything, "old-token").Return(nil)
	repo.On("StoreRefreshToken", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	access, refresh, err := svc.Refresh(context.Background(), "old-token")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, "old-token", refresh)
	repo.AssertExpectations(t)
}

func TestRefresh_RejectsInvalidToken(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, testJWTConfig(), testLogger())

	repo.On("GetRefreshTokenOwner", mock.Anything, "bogus").Return(uuid.Nil, ErrRefreshTokenInvalid)

	_, _, err := svc.Refresh(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
	repo.AssertNotCalled(t, "RevokeRefreshToken", mock.Anything, mock.Anything)
}
