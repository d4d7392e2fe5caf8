package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/db"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
)

// IVerificationTokenRepository stores single-use email tokens
type IVerificationTokenRepository interface {
	Create(ctx context.Context, token *models.VerificationToken) error
	// Consume marks the token used and returns it; expired or used tokens fail
	Consume(ctx context.Context, token string, purpose models.TokenPurpose, now time.Time) (*models.VerificationToken, error)
	DeleteForUser(ctx context.Context, userID int64, purpose models.TokenPurpose) error
}

// VerificationTokenRepository handles database operations for email verification tokens
type VerificationTokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewVerificationTokenRepository creates a new VerificationTokenRepository
func NewVerificationTokenRepository(db *pgxpool.Pool) *VerificationTokenRepository {
	return &VerificationTokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create stores a token
func (r *VerificationTokenRepository) Create(ctx context.Context, token *models.VerificationToken) error {
	sql, args, err := r.sb.Insert("verification_tokens").
		Columns("token", "user_id", "purpose", "expires_at").
		Values(token.Token, token.UserID, token.Purpose, token.ExpiresAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&token.ID, &token.CreatedAt); err != nil {
		return fmt.Errorf("error creating verification token: %w", err)
	}
	return nil
}

// Consume atomically validates and marks a token as used
func (r *VerificationTokenRepository) Consume(ctx context.Context, token string, purpose models.TokenPurpose, now time.Time) (*models.VerificationToken, error) {
	var vt models.VerificationToken
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Select("id", "token", "user_id", "purpose", "expires_at", "used_at", "created_at").
			From("verification_tokens").
			Where(squirrel.Eq{"token": token, "purpose": purpose}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&vt.ID, &vt.Token, &vt.UserID, &vt.Purpose, &vt.ExpiresAt, &vt.UsedAt, &vt.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrTokenNotFound
			}
			return fmt.Errorf("error retrieving verification token: %w", err)
		}
		if vt.UsedAt != nil {
			return apperrors.ErrTokenRevoked
		}
		if now.After(vt.ExpiresAt) {
			return apperrors.ErrTokenExpired
		}

		if _, err := tx.Exec(ctx, "UPDATE verification_tokens SET used_at = $1 WHERE id = $2", now, vt.ID); err != nil {
			return fmt.Errorf("error consuming verification token: %w", err)
		}
		vt.UsedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vt, nil
}

// DeleteForUser removes outstanding tokens of one purpose for a user
func (r *VerificationTokenRepository) DeleteForUser(ctx context.Context, userID int64, purpose models.TokenPurpose) error {
	sql, args, err := r.sb.Delete("verification_tokens").
		Where(squirrel.Eq{"user_id": userID, "purpose": purpose, "used_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error deleting verification tokens: %w", err)
	}
	return nil
}
