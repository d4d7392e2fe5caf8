package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
)

// IHallOfFameRepository defines hall of fame persistence
type IHallOfFameRepository interface {
	Create(ctx context.Context, h *models.HallOfFame) error
	ListBySociety(ctx context.Context, societyID int64) ([]models.HallOfFame, error)
	// Delete removes an entry belonging to societyID
	Delete(ctx context.Context, societyID, id int64) error
}

// HallOfFameRepository handles hall of fame database operations
type HallOfFameRepository struct {
	db *pgxpool.Pool
}

// NewHallOfFameRepository creates a new HallOfFameRepository
func NewHallOfFameRepository(db *pgxpool.Pool) *HallOfFameRepository {
	return &HallOfFameRepository{db: db}
}

// Create inserts an award
func (r *HallOfFameRepository) Create(ctx context.Context, h *models.HallOfFame) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO hall_of_fame (society_id, user_id, title, description, awarded_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW())) RETURNING id, awarded_at`,
		h.SocietyID, h.UserID, h.Title, h.Description, nullTime(h.AwardedAt),
	).Scan(&h.ID, &h.AwardedAt)
	if err != nil {
		return fmt.Errorf("error creating hall of fame entry: %w", err)
	}
	return nil
}

// ListBySociety lists a society's awards, newest first
func (r *HallOfFameRepository) ListBySociety(ctx context.Context, societyID int64) ([]models.HallOfFame, error) {
	rows, err := r.db.Query(ctx,
		`SELECT h.id, h.society_id, h.user_id, h.title, h.description, h.awarded_at, u.email, u.first_name, u.last_name
		 FROM hall_of_fame h JOIN users u ON u.id = h.user_id
		 WHERE h.society_id = $1 ORDER BY h.awarded_at DESC, h.id DESC`, societyID)
	if err != nil {
		return nil, fmt.Errorf("error querying hall of fame: %w", err)
	}
	defer rows.Close()

	entries := []models.HallOfFame{}
	for rows.Next() {
		h := models.HallOfFame{User: &models.UserSummary{}}
		if err := rows.Scan(&h.ID, &h.SocietyID, &h.UserID, &h.Title, &h.Description, &h.AwardedAt,
			&h.User.Email, &h.User.FirstName, &h.User.LastName); err != nil {
			return nil, fmt.Errorf("error scanning hall of fame row: %w", err)
		}
		h.User.ID = h.UserID
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// Delete removes an award
func (r *HallOfFameRepository) Delete(ctx context.Context, societyID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM hall_of_fame WHERE id = $1 AND society_id = $2`, id, societyID)
	if err != nil {
		return fmt.Errorf("error deleting hall of fame entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("hall of fame entry not found")
	}
	return nil
}
