package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/dberrors"
)

// IMatchRepository defines match, rating and leaderboard persistence
type IMatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id int64) (*models.Match, error)
	ListBySociety(ctx context.Context, societyID int64) ([]models.Match, error)
	Delete(ctx context.Context, id int64) error
	AddRating(ctx context.Context, rating *models.MemberRating) error
	ListRatings(ctx context.Context, matchID int64) ([]models.MemberRating, error)
	// Leaderboard aggregates ratings per member across the society's matches
	Leaderboard(ctx context.Context, societyID int64) ([]models.LeaderboardEntry, error)
}

// MatchRepository handles match database operations
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new MatchRepository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a match
func (r *MatchRepository) Create(ctx context.Context, m *models.Match) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO matches (society_id, title, played_at, notes) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		m.SocietyID, m.Title, m.PlayedAt, m.Notes).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating match: %w", err)
	}
	return nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	m := &models.Match{}
	err := r.db.QueryRow(ctx,
		`SELECT id, society_id, title, played_at, notes, created_at FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &m.SocietyID, &m.Title, &m.PlayedAt, &m.Notes, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMatchNotFound
		}
		return nil, fmt.Errorf("error getting match: %w", err)
	}
	return m, nil
}

// ListBySociety lists a society's matches, most recent first
func (r *MatchRepository) ListBySociety(ctx context.Context, societyID int64) ([]models.Match, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, society_id, title, played_at, notes, created_at FROM matches WHERE society_id = $1 ORDER BY played_at DESC`,
		societyID)
	if err != nil {
		return nil, fmt.Errorf("error querying matches: %w", err)
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.SocietyID, &m.Title, &m.PlayedAt, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning match row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Delete removes a match and its ratings
func (r *MatchRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMatchNotFound
	}
	return nil
}

// AddRating inserts a member rating; a member is rated once per match
func (r *MatchRepository) AddRating(ctx context.Context, rating *models.MemberRating) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO member_ratings (match_id, user_id, rating, comment, rated_by) VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rating.MatchID, rating.UserID, rating.Rating, rating.Comment, rating.RatedBy,
	).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "member_ratings_match_user_key") {
			return apperrors.ErrAlreadyRated
		}
		return fmt.Errorf("error creating member rating: %w", err)
	}
	return nil
}

// ListRatings lists ratings given in a match
func (r *MatchRepository) ListRatings(ctx context.Context, matchID int64) ([]models.MemberRating, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, match_id, user_id, rating, comment, COALESCE(rated_by, 0), created_at
		 FROM member_ratings WHERE match_id = $1 ORDER BY rating DESC, user_id ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("error querying member ratings: %w", err)
	}
	defer rows.Close()

	ratings := []models.MemberRating{}
	for rows.Next() {
		var mr models.MemberRating
		if err := rows.Scan(&mr.ID, &mr.MatchID, &mr.UserID, &mr.Rating, &mr.Comment, &mr.RatedBy, &mr.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning member rating row: %w", err)
		}
		ratings = append(ratings, mr)
	}
	return ratings, rows.Err()
}

// Leaderboard returns unsorted aggregates; ranking is applied by the caller
func (r *MatchRepository) Leaderboard(ctx context.Context, societyID int64) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT mr.user_id, AVG(mr.rating)::float8, COUNT(*), u.email, u.first_name, u.last_name
		 FROM member_ratings mr
		 JOIN matches m ON m.id = mr.match_id
		 JOIN users u ON u.id = mr.user_id
		 WHERE m.society_id = $1
		 GROUP BY mr.user_id, u.email, u.first_name, u.last_name`, societyID)
	if err != nil {
		return nil, fmt.Errorf("error querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		e := models.LeaderboardEntry{User: &models.UserSummary{}}
		if err := rows.Scan(&e.UserID, &e.AverageRating, &e.RatingCount, &e.User.Email, &e.User.FirstName, &e.User.LastName); err != nil {
			return nil, fmt.Errorf("error scanning leaderboard row: %w", err)
		}
		e.User.ID = e.UserID
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
