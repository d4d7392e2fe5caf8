package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/helpers"
)

// ICommentRepository defines comment persistence
type ICommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListBySociety(ctx context.Context, societyID int64, page, pageSize int) ([]models.Comment, int64, error)
	Delete(ctx context.Context, id int64) error
}

const commentSelect = `SELECT c.id, c.society_id, c.user_id, c.content, c.created_at, u.email, u.first_name, u.last_name
	FROM comments c JOIN users u ON u.id = c.user_id`

// CommentRepository handles comment database operations
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	c := &models.Comment{User: &models.UserSummary{}}
	if err := row.Scan(&c.ID, &c.SocietyID, &c.UserID, &c.Content, &c.CreatedAt,
		&c.User.Email, &c.User.FirstName, &c.User.LastName); err != nil {
		return nil, err
	}
	c.User.ID = c.UserID
	return c, nil
}

// Create inserts a comment
func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO comments (society_id, user_id, content) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.SocietyID, c.UserID, c.Content).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment with its author
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, fmt.Errorf("error getting comment: %w", err)
	}
	return c, nil
}

// ListBySociety returns a page of a society's comments, newest first
func (r *CommentRepository) ListBySociety(ctx context.Context, societyID int64, page, pageSize int) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE society_id = $1`, societyID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting comments: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	rows, err := r.db.Query(ctx,
		commentSelect+` WHERE c.society_id = $1 ORDER BY c.created_at DESC, c.id DESC LIMIT $2 OFFSET $3`,
		societyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, total, rows.Err()
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}
