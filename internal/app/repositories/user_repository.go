package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/dberrors"
	"github.com/yigit/societyhub/internal/pkg/helpers"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) error
	List(ctx context.Context, page, pageSize int) ([]models.User, int64, error)
	Delete(ctx context.Context, id int64) error

	// Verification lifecycle
	Activate(ctx context.Context, userID int64, at time.Time) error
	Reverify(ctx context.Context, userID int64, at time.Time) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	DeleteUnactivatedBefore(ctx context.Context, cutoff time.Time) (int, error)
	ListDueForReverification(ctx context.Context, verifiedBefore time.Time) ([]models.User, error)
	MarkReverificationRequested(ctx context.Context, userID int64, at time.Time) error
	DeactivateUnverifiedBefore(ctx context.Context, requestedBefore, at time.Time) (int, error)
	DeleteDeactivatedBefore(ctx context.Context, cutoff time.Time) (int, error)
	// CountManagersDeactivatedBefore counts deactivated users kept because they still manage a society
	CountManagersDeactivatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name", "is_staff", "is_superuser", "is_active",
	"email_verified_at", "last_verified_at", "reverification_requested_at", "deactivated_at",
	"last_login_at", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.IsStaff, &u.IsSuperuser, &u.IsActive,
		&u.EmailVerifiedAt, &u.LastVerifiedAt, &u.ReverificationRequestedAt, &u.DeactivatedAt,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a user and fills in its ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password", "first_name", "last_name", "is_staff", "is_superuser", "is_active",
			"email_verified_at", "last_verified_at").
		Values(strings.ToLower(user.Email), user.Password, user.FirstName, user.LastName, user.IsStaff,
			user.IsSuperuser, user.IsActive, user.EmailVerifiedAt, user.LastVerifiedAt).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by case-insensitive email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email))
}

func (r *UserRepository) getOne(ctx context.Context, pred interface{}) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's name
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) error {
	return r.update(ctx, userID, map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
	})
}

// List returns users ordered by ID with the total count
func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	sql, args, err := r.sb.Select(userColumns...).From("users").
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	users, err := r.queryUsers(ctx, sql, args...)
	return users, total, err
}

func (r *UserRepository) queryUsers(ctx context.Context, sql string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Delete removes a user and everything that cascades from it
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Activate marks the account verified and active
func (r *UserRepository) Activate(ctx context.Context, userID int64, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{
		"is_active":         true,
		"email_verified_at": at,
		"last_verified_at":  at,
	})
}

// Reverify refreshes the verification timestamp and lifts any deactivation
func (r *UserRepository) Reverify(ctx context.Context, userID int64, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{
		"is_active":                   true,
		"last_verified_at":            at,
		"reverification_requested_at": nil,
		"deactivated_at":              nil,
	})
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{"last_login_at": at})
}

// MarkReverificationRequested stamps the time a re-verification email went out
func (r *UserRepository) MarkReverificationRequested(ctx context.Context, userID int64, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{"reverification_requested_at": at})
}

func (r *UserRepository) update(ctx context.Context, userID int64, values map[string]interface{}) error {
	sql, args, err := r.sb.Update("users").
		SetMap(values).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// DeleteUnactivatedBefore removes accounts that were never activated and were created before cutoff
func (r *UserRepository) DeleteUnactivatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return r.deleteWhere(ctx, squirrel.And{
		squirrel.Eq{"is_staff": false, "email_verified_at": nil},
		squirrel.Lt{"created_at": cutoff},
	})
}

// ListDueForReverification lists active non-staff users last verified before the given time
// who have not been asked yet
func (r *UserRepository) ListDueForReverification(ctx context.Context, verifiedBefore time.Time) ([]models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").
		Where(squirrel.Eq{"is_staff": false, "is_active": true, "reverification_requested_at": nil}).
		Where(squirrel.Lt{"last_verified_at": verifiedBefore}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build reverification query: %w", err)
	}
	return r.queryUsers(ctx, sql, args...)
}

// DeactivateUnverifiedBefore deactivates users whose re-verification request is older than requestedBefore
func (r *UserRepository) DeactivateUnverifiedBefore(ctx context.Context, requestedBefore, at time.Time) (int, error) {
	sql, args, err := r.sb.Update("users").
		Set("is_active", false).
		Set("deactivated_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"is_staff": false, "is_active": true}).
		Where(squirrel.Lt{"reverification_requested_at": requestedBefore}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build deactivate query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deactivating users: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteDeactivatedBefore removes users deactivated before cutoff
func (r *UserRepository) DeleteDeactivatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return r.deleteWhere(ctx, deactivatedBefore(cutoff))
}

// CountManagersDeactivatedBefore counts users DeleteDeactivatedBefore skips
func (r *UserRepository) CountManagersDeactivatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("users").
		Where(deactivatedBefore(cutoff)).
		Where(squirrel.Expr(managesSociety)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count managers query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting deactivated managers: %w", err)
	}
	return n, nil
}

func deactivatedBefore(cutoff time.Time) squirrel.Sqlizer {
	return squirrel.And{
		squirrel.Eq{"is_staff": false, "is_active": false},
		squirrel.Lt{"deactivated_at": cutoff},
	}
}

// societies.manager_id has no ON DELETE action, so managers of any society row must stay
const managesSociety = "EXISTS (SELECT 1 FROM societies s WHERE s.manager_id = users.id)"

func (r *UserRepository) deleteWhere(ctx context.Context, pred squirrel.Sqlizer) (int, error) {
	sql, args, err := r.sb.Delete("users").
		Where(pred).
		Where(squirrel.Expr("NOT " + managesSociety)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete users query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing delete users query")
		return 0, fmt.Errorf("error deleting users: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
