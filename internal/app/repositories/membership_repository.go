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
	"github.com/yigit/societyhub/internal/pkg/dberrors"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// IMembershipRepository defines membership persistence
type IMembershipRepository interface {
	Create(ctx context.Context, m *models.Membership) error
	GetByID(ctx context.Context, id int64) (*models.Membership, error)
	// Get returns the membership of userID in societyID, or ErrMembershipNotFound
	Get(ctx context.Context, societyID, userID int64) (*models.Membership, error)
	Approve(ctx context.Context, id int64, at time.Time) error
	UpdateRole(ctx context.Context, id int64, role models.MembershipRole) error
	Delete(ctx context.Context, id int64) error
	ListBySociety(ctx context.Context, societyID int64, status *models.MembershipStatus) ([]models.Membership, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Membership, error)
	CountApproved(ctx context.Context, societyID int64) (int, error)
}

var membershipColumns = []string{
	"m.id", "m.society_id", "m.user_id", "m.role", "m.status", "m.created_at", "m.approved_at",
	"u.email", "u.first_name", "u.last_name",
}

// MembershipRepository handles membership database operations
type MembershipRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MembershipRepository) selectMemberships() squirrel.SelectBuilder {
	return r.sb.Select(membershipColumns...).
		From("memberships m").
		Join("users u ON u.id = m.user_id")
}

func scanMembership(row pgx.Row) (*models.Membership, error) {
	m := &models.Membership{User: &models.UserSummary{}}
	err := row.Scan(&m.ID, &m.SocietyID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.ApprovedAt,
		&m.User.Email, &m.User.FirstName, &m.User.LastName)
	if err != nil {
		return nil, err
	}
	m.User.ID = m.UserID
	return m, nil
}

// Create inserts a membership
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	sql, args, err := r.sb.Insert("memberships").
		Columns("society_id", "user_id", "role", "status", "approved_at").
		Values(m.SocietyID, m.UserID, m.Role, m.Status, m.ApprovedAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create membership query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "memberships_society_user_key") {
			return apperrors.ErrAlreadyMember
		}
		logger.Error().Err(err).Int64("societyID", m.SocietyID).Int64("userID", m.UserID).Msg("Error executing create membership query")
		return fmt.Errorf("error creating membership: %w", err)
	}
	return nil
}

// GetByID retrieves a membership by ID
func (r *MembershipRepository) GetByID(ctx context.Context, id int64) (*models.Membership, error) {
	return r.getOne(ctx, squirrel.Eq{"m.id": id})
}

// Get retrieves the membership of a user in a society
func (r *MembershipRepository) Get(ctx context.Context, societyID, userID int64) (*models.Membership, error) {
	return r.getOne(ctx, squirrel.Eq{"m.society_id": societyID, "m.user_id": userID})
}

func (r *MembershipRepository) getOne(ctx context.Context, pred squirrel.Eq) (*models.Membership, error) {
	sql, args, err := r.selectMemberships().Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get membership query: %w", err)
	}

	m, err := scanMembership(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("error getting membership: %w", err)
	}
	return m, nil
}

// Approve moves a pending membership to approved
func (r *MembershipRepository) Approve(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE memberships SET status = $1, approved_at = $2 WHERE id = $3 AND status = $4`,
		models.MembershipApproved, at, id, models.MembershipPending)
	if err != nil {
		return fmt.Errorf("error approving membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMembershipNotFound
	}
	return nil
}

// UpdateRole changes the role of a membership
func (r *MembershipRepository) UpdateRole(ctx context.Context, id int64, role models.MembershipRole) error {
	tag, err := r.db.Exec(ctx, `UPDATE memberships SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("error updating membership role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMembershipNotFound
	}
	return nil
}

// Delete removes a membership
func (r *MembershipRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMembershipNotFound
	}
	return nil
}

// ListBySociety lists memberships of a society, optionally filtered by status
func (r *MembershipRepository) ListBySociety(ctx context.Context, societyID int64, status *models.MembershipStatus) ([]models.Membership, error) {
	q := r.selectMemberships().Where(squirrel.Eq{"m.society_id": societyID})
	if status != nil {
		q = q.Where(squirrel.Eq{"m.status": *status})
	}
	return r.list(ctx, q.OrderBy("m.created_at ASC"))
}

// ListByUser lists all memberships held by a user
func (r *MembershipRepository) ListByUser(ctx context.Context, userID int64) ([]models.Membership, error) {
	return r.list(ctx, r.selectMemberships().Where(squirrel.Eq{"m.user_id": userID}).OrderBy("m.created_at DESC"))
}

func (r *MembershipRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]models.Membership, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list memberships query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying memberships: %w", err)
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning membership row: %w", err)
		}
		memberships = append(memberships, *m)
	}
	return memberships, rows.Err()
}

// CountApproved counts approved members of a society
func (r *MembershipRepository) CountApproved(ctx context.Context, societyID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE society_id = $1 AND status = $2`,
		societyID, models.MembershipApproved).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting members: %w", err)
	}
	return count, nil
}
