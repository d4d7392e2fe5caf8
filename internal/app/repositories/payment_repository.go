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
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// IPaymentRepository defines payment persistence
type IPaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	SetExternalID(ctx context.Context, id int64, externalID string) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error)
	// MarkPaid reports whether the payment changed; an already paid payment is left as is
	MarkPaid(ctx context.Context, id int64, chargeID string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64) error
	HasPaid(ctx context.Context, userID int64, purpose models.PaymentPurpose, referenceID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Payment, error)
}

var paymentColumns = []string{
	"id", "user_id", "amount", "currency", "status", "purpose", "reference_id",
	"external_id", "charge_id", "created_at", "paid_at",
}

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.Status, &p.Purpose, &p.ReferenceID,
		&p.ExternalID, &p.ChargeID, &p.CreatedAt, &p.PaidAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a pending payment
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	sql, args, err := r.sb.Insert("payments").
		Columns("user_id", "amount", "currency", "status", "purpose", "reference_id").
		Values(p.UserID, p.Amount, p.Currency, p.Status, p.Purpose, p.ReferenceID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create payment query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("userID", p.UserID).Msg("Error creating payment")
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

// SetExternalID stores the checkout session id
func (r *PaymentRepository) SetExternalID(ctx context.Context, id int64, externalID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE payments SET external_id = $1 WHERE id = $2`, externalID, id)
	if err != nil {
		return fmt.Errorf("error setting payment external id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPaymentNotFound
	}
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByExternalID retrieves a payment by checkout session id
func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	return r.getOne(ctx, squirrel.Eq{"external_id": externalID})
}

func (r *PaymentRepository) getOne(ctx context.Context, pred squirrel.Eq) (*models.Payment, error) {
	sql, args, err := r.sb.Select(paymentColumns...).From("payments").Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get payment query: %w", err)
	}

	p, err := scanPayment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("error getting payment: %w", err)
	}
	return p, nil
}

// MarkPaid moves a non-paid payment to paid
func (r *PaymentRepository) MarkPaid(ctx context.Context, id int64, chargeID string, at time.Time) (bool, error) {
	var charge *string
	if chargeID != "" {
		charge = &chargeID
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE payments SET status = $1, charge_id = COALESCE($2, charge_id), paid_at = $3 WHERE id = $4 AND status <> $1`,
		models.PaymentPaid, charge, at, id)
	if err != nil {
		return false, fmt.Errorf("error marking payment paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed moves a pending payment to failed
func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET status = $1 WHERE id = $2 AND status = $3`,
		models.PaymentFailed, id, models.PaymentPending)
	if err != nil {
		return fmt.Errorf("error marking payment failed: %w", err)
	}
	return nil
}

// HasPaid reports whether the user has a paid payment for the reference
func (r *PaymentRepository) HasPaid(ctx context.Context, userID int64, purpose models.PaymentPurpose, referenceID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE user_id = $1 AND purpose = $2 AND reference_id = $3 AND status = $4)`,
		userID, purpose, referenceID, models.PaymentPaid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking payment: %w", err)
	}
	return exists, nil
}

// ListByUser lists a user's payments, newest first
func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	sql, args, err := r.sb.Select(paymentColumns...).From("payments").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list payments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning payment row: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
