package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// ErrInvalidCredentials is returned for both unknown email and wrong
// password so the two cases are indistinguishable to a caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrRefreshTokenInvalid covers unknown, expired and revoked tokens.
var ErrRefreshTokenInvalid = errors.New("refresh token invalid")

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CreateUser(ctx context.Context, username, email, password string) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserProfile, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	ValidateCredentials(ctx context.Context, email, password string) (*types.UserProfile, error)
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshTokenOwner(ctx context.Context, token string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewRepository(pgpool *pgxpool.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

// CreateUser hashes the password with bcrypt and inserts the account.
func (r *RepositoryImpl) CreateUser(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.New()
	query := `
        INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, 'user', true, now(), now())
    `
	if _, err := r.pgpool.Exec(ctx, query, id, username, email, string(hashed)); err != nil {
		r.logger.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) GetUserByEmail(ctx context.Context, email string) (*types.UserProfile, error) {
	query := `
        SELECT id, email, username, password_hash, role, is_active, last_login_at, created_at, updated_at
        FROM users
        WHERE email = $1
    `
	var u types.UserProfile
	err := r.pgpool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		r.logger.ErrorContext(ctx, "Failed to get user by email", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *RepositoryImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	query := `
        SELECT id, email, username, password_hash, role, is_active, last_login_at, created_at, updated_at
        FROM users
        WHERE id = $1
    `
	var u types.UserProfile
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		r.logger.ErrorContext(ctx, "Failed to get user by id", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

// ValidateCredentials fetches the user and compares the bcrypt hash.
func (r *RepositoryImpl) ValidateCredentials(ctx context.Context, email, password string) (*types.UserProfile, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (r *RepositoryImpl) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.pgpool.Exec(ctx, query, userID, token, expiresAt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to store refresh token", slog.Any("error", err))
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// GetRefreshTokenOwner resolves a refresh token to its user, rejecting
// expired and revoked tokens.
func (r *RepositoryImpl) GetRefreshTokenOwner(ctx context.Context, token string) (uuid.UUID, error) {
	query := `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token = $1`
	var userID uuid.UUID
	var expiresAt time.Time
	var revokedAt *time.Time
	err := r.pgpool.QueryRow(ctx, query, token).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrRefreshTokenInvalid
		}
		r.logger.ErrorContext(ctx, "Failed to look up refresh token", slog.Any("error", err))
		return uuid.Nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if revokedAt != nil || time.Now().After(expiresAt) {
		return uuid.Nil, ErrRefreshTokenInvalid
	}
	return userID, nil
}

func (r *RepositoryImpl) RevokeRefreshToken(ctx context.Context, token string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE token = $1 AND revoked_at IS NULL`
	if _, err := r.pgpool.Exec(ctx, query, token); err != nil {
		r.logger.ErrorContext(ctx, "Failed to revoke refresh token", slog.Any("error", err))
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
	if _, err := r.pgpool.Exec(ctx, query, userID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to revoke user refresh tokens", slog.Any("error", err))
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`
	if _, err := r.pgpool.Exec(ctx, query, userID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to update last login", slog.Any("error", err))
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
