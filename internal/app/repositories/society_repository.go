package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/db"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/dberrors"
	"github.com/yigit/societyhub/internal/pkg/helpers"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// ISocietyRepository defines society persistence
type ISocietyRepository interface {
	CreateWithManager(ctx context.Context, society *models.Society) error
	GetByID(ctx context.Context, id int64) (*models.Society, error)
	List(ctx context.Context, filter models.SocietyFilter) ([]models.Society, int64, error)
	Update(ctx context.Context, society *models.Society) error
	// UpdateStatus moves a society to status `to` only if its current status is one of `from`
	UpdateStatus(ctx context.Context, id int64, from []models.SocietyStatus, to models.SocietyStatus, reason *string) error
	CountOwned(ctx context.Context, managerID int64) (int, error)
	TransferManagement(ctx context.Context, societyID, oldManagerID, newManagerID int64) error
	SetLogo(ctx context.Context, id int64, url string) error
}

const memberCountColumn = "(SELECT COUNT(*) FROM memberships m WHERE m.society_id = s.id AND m.status = 'approved') AS member_count"

var societyColumns = []string{
	"s.id", "s.name", "s.description", "s.type", "s.status", "s.visibility", "s.manager_id",
	"s.rejection_reason", "s.join_quiz", "s.quiz_pass_percent", "s.membership_fee", "s.logo_url",
	"s.created_at", "s.updated_at", memberCountColumn,
}

// SocietyRepository handles society database operations
type SocietyRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSocietyRepository creates a new SocietyRepository
func NewSocietyRepository(db *pgxpool.Pool) *SocietyRepository {
	return &SocietyRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanSociety(row pgx.Row) (*models.Society, error) {
	s := &models.Society{}
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Type, &s.Status, &s.Visibility, &s.ManagerID,
		&s.RejectionReason, &s.JoinQuiz, &s.QuizPassPercent, &s.MembershipFee, &s.LogoURL,
		&s.CreatedAt, &s.UpdatedAt, &s.MemberCount,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func quizOrEmpty(q []models.QuizQuestion) []models.QuizQuestion {
	if q == nil {
		return []models.QuizQuestion{}
	}
	return q
}

// CreateWithManager inserts a pending society and its manager membership in one transaction
func (r *SocietyRepository) CreateWithManager(ctx context.Context, society *models.Society) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("societies").
			Columns("name", "description", "type", "status", "visibility", "manager_id",
				"join_quiz", "quiz_pass_percent", "membership_fee").
			Values(society.Name, society.Description, society.Type, society.Status, society.Visibility,
				society.ManagerID, quizOrEmpty(society.JoinQuiz), society.QuizPassPercent, society.MembershipFee).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create society query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&society.ID, &society.CreatedAt, &society.UpdatedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "societies_name_key") {
				return apperrors.ErrSocietyNameTaken
			}
			logger.Error().Err(err).Str("name", society.Name).Msg("Error executing create society query")
			return fmt.Errorf("error creating society: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO memberships (society_id, user_id, role, status, approved_at) VALUES ($1, $2, $3, $4, NOW())`,
			society.ID, society.ManagerID, models.RoleManager, models.MembershipApproved)
		if err != nil {
			return fmt.Errorf("error creating manager membership: %w", err)
		}
		society.MemberCount = 1
		return nil
	})
}

// GetByID retrieves a society by ID
func (r *SocietyRepository) GetByID(ctx context.Context, id int64) (*models.Society, error) {
	sql, args, err := r.sb.Select(societyColumns...).
		From("societies s").
		Where(squirrel.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get society query: %w", err)
	}

	society, err := scanSociety(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSocietyNotFound
		}
		logger.Error().Err(err).Int64("societyID", id).Msg("Error scanning society row")
		return nil, fmt.Errorf("error getting society: %w", err)
	}
	return society, nil
}

func applySocietyFilter(q squirrel.SelectBuilder, f models.SocietyFilter) squirrel.SelectBuilder {
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"s.status": *f.Status})
	}
	if f.Type != nil {
		q = q.Where(squirrel.Eq{"s.type": *f.Type})
	}
	if f.Search != nil && *f.Search != "" {
		pattern := helpers.ContainsPattern(*f.Search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"s.name": pattern},
			squirrel.ILike{"s.description": pattern},
		})
	}
	return q
}

// List returns a filtered page of societies ordered by name
func (r *SocietyRepository) List(ctx context.Context, filter models.SocietyFilter) ([]models.Society, int64, error) {
	countSQL, countArgs, err := applySocietyFilter(r.sb.Select("COUNT(*)").From("societies s"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count societies query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting societies: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)
	sql, args, err := applySocietyFilter(r.sb.Select(societyColumns...).From("societies s"), filter).
		OrderBy("LOWER(s.name) ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list societies query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list societies query")
		return nil, 0, fmt.Errorf("error querying societies: %w", err)
	}
	defer rows.Close()

	societies := []models.Society{}
	for rows.Next() {
		s, err := scanSociety(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning society row: %w", err)
		}
		societies = append(societies, *s)
	}
	return societies, total, rows.Err()
}

// Update saves the editable fields of a society
func (r *SocietyRepository) Update(ctx context.Context, society *models.Society) error {
	sql, args, err := r.sb.Update("societies").
		SetMap(map[string]interface{}{
			"description":       society.Description,
			"type":              society.Type,
			"visibility":        society.Visibility,
			"join_quiz":         quizOrEmpty(society.JoinQuiz),
			"quiz_pass_percent": society.QuizPassPercent,
			"membership_fee":    society.MembershipFee,
			"updated_at":        squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": society.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update society query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("societyID", society.ID).Msg("Error executing update society query")
		return fmt.Errorf("error updating society: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSocietyNotFound
	}
	return nil
}

// UpdateStatus performs a guarded status transition
func (r *SocietyRepository) UpdateStatus(ctx context.Context, id int64, from []models.SocietyStatus, to models.SocietyStatus, reason *string) error {
	q := r.sb.Update("societies").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from})
	if reason != nil {
		q = q.Set("rejection_reason", *reason)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update society status query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating society status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrInvalidStatusChange
	}
	return nil
}

// CountOwned counts societies managed by a user that still occupy an ownership slot
func (r *SocietyRepository) CountOwned(ctx context.Context, managerID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("societies").
		Where(squirrel.Eq{"manager_id": managerID}).
		Where(squirrel.NotEq{"status": []models.SocietyStatus{models.SocietyStatusRejected, models.SocietyStatusDeleted}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count owned societies query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting owned societies: %w", err)
	}
	return count, nil
}

// TransferManagement swaps the manager and co-manager roles and updates the society owner
func (r *SocietyRepository) TransferManagement(ctx context.Context, societyID, oldManagerID, newManagerID int64) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE memberships SET role = $1 WHERE society_id = $2 AND user_id = $3 AND role = $4 AND status = $5`,
			models.RoleManager, societyID, newManagerID, models.RoleCoManager, models.MembershipApproved)
		if err != nil {
			return fmt.Errorf("error promoting new manager: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewBadRequestError("new manager must be an approved co-manager of the society")
		}

		if _, err := tx.Exec(ctx,
			`UPDATE memberships SET role = $1 WHERE society_id = $2 AND user_id = $3`,
			models.RoleCoManager, societyID, oldManagerID); err != nil {
			return fmt.Errorf("error demoting old manager: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE societies SET manager_id = $1, updated_at = NOW() WHERE id = $2`,
			newManagerID, societyID); err != nil {
			return fmt.Errorf("error updating society manager: %w", err)
		}
		return nil
	})
}

// SetLogo stores the logo URL
func (r *SocietyRepository) SetLogo(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `UPDATE societies SET logo_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("error updating society logo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSocietyNotFound
	}
	return nil
}
