package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/config"
	"github.com/wanderbudget/go-trip-budget/internal/api"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Register(ctx context.Context, username, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	Refresh(ctx context.Context, refreshToken string) (newAccess, newRefresh string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	jwtCfg config.JWTConfig
}

func NewService(repo Repository, jwtCfg config.JWTConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
	}
}

// Register creates a new account. Email uniqueness is enforced by the
// users table; the raw constraint error is wrapped, not translated.
func (s *ServiceImpl) Register(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.email", email),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("email", email))

	userID, err := s.repo.CreateUser(ctx, username, email, password)
	if err != nil {
		l.ErrorContext(ctx, "Failed to register user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to register user")
		return uuid.Nil, fmt.Errorf("failed to register user: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// Login validates credentials and issues an access/refresh token pair.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("email", email))

	user, err := s.repo.ValidateCredentials(ctx, email, password)
	if err != nil {
		l.WarnContext(ctx, "Credential validation failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid credentials")
		return "", "", err
	}

	accessToken, err := s.generateAccessToken(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to sign access token")
		return "", "", err
	}

	refreshToken, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to issue refresh token")
		return "", "", err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		// Login still succeeds; the timestamp is best-effort.
		l.WarnContext(ctx, "Failed to update last login", slog.Any("error", err))
	}

	l.InfoContext(ctx, "Login successful", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Login successful")
	return accessToken, refreshToken, nil
}

// Refresh rotates the refresh token: the presented token is revoked and a
// fresh pair is issued to the same user.
func (s *ServiceImpl) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Refresh")
	defer span.End()

	l := s.logger.With(slog.String("method", "Refresh"))

	userID, err := s.repo.GetRefreshTokenOwner(ctx, refreshToken)
	if err != nil {
		l.WarnContext(ctx, "Refresh token rejected", slog.Any("error", err))
		span.SetStatus(codes.Error, "Refresh token rejected")
		return "", "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "User lookup failed")
		return "", "", err
	}

	if err := s.repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to revoke old token")
		return "", "", err
	}

	accessToken, err := s.generateAccessToken(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to sign access token")
		return "", "", err
	}
	newRefresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to issue refresh token")
		return "", "", err
	}

	span.SetStatus(codes.Ok, "Tokens rotated")
	return accessToken, newRefresh, nil
}

// Logout revokes the presented refresh token. The access token simply
// expires; there is no server-side access-token denylist.
func (s *ServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Logout")
	defer span.End()

	if err := s.repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to revoke token")
		return err
	}
	span.SetStatus(codes.Ok, "Logged out")
	return nil
}

func (s *ServiceImpl) generateAccessToken(userID uuid.UUID, username, email, role string) (string, error) {
	now := time.Now()
	claims := api.Claims{
		UserID:   userID.String(),
		Username: username,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *ServiceImpl) issueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expiresAt := time.Now().Add(s.jwtCfg.RefreshExpiry)
	if err := s.repo.StoreRefreshToken(ctx, userID, token, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}
