package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/pkg/helpers"
)

// ISearchRepository defines the name lookups behind site search
type ISearchRepository interface {
	SearchSocieties(ctx context.Context, query string, limit int) ([]dto.SearchResult, error)
	SearchEvents(ctx context.Context, query string, now time.Time, limit int) ([]dto.SearchResult, error)
	// Vocabulary returns every searchable name so callers can build a word list
	Vocabulary(ctx context.Context, now time.Time) ([]string, error)
}

// SearchRepository runs search queries
type SearchRepository struct {
	db *pgxpool.Pool
}

// NewSearchRepository creates a new SearchRepository
func NewSearchRepository(db *pgxpool.Pool) *SearchRepository {
	return &SearchRepository{db: db}
}

// SearchSocieties matches approved society names case-insensitively
func (r *SearchRepository) SearchSocieties(ctx context.Context, query string, limit int) ([]dto.SearchResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name FROM societies
		 WHERE status = 'approved' AND name ILIKE $1
		 ORDER BY name ASC LIMIT $2`, helpers.ContainsPattern(query), limit)
	if err != nil {
		return nil, fmt.Errorf("error searching societies: %w", err)
	}
	defer rows.Close()

	results := []dto.SearchResult{}
	for rows.Next() {
		res := dto.SearchResult{Kind: "society"}
		if err := rows.Scan(&res.ID, &res.Name); err != nil {
			return nil, fmt.Errorf("error scanning society search row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// SearchEvents matches upcoming event names case-insensitively
func (r *SearchRepository) SearchEvents(ctx context.Context, query string, now time.Time, limit int) ([]dto.SearchResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, starts_at FROM events
		 WHERE starts_at >= $2 AND name ILIKE $1
		 ORDER BY starts_at ASC LIMIT $3`, helpers.ContainsPattern(query), now, limit)
	if err != nil {
		return nil, fmt.Errorf("error searching events: %w", err)
	}
	defer rows.Close()

	results := []dto.SearchResult{}
	for rows.Next() {
		res := dto.SearchResult{Kind: "event"}
		var startsAt time.Time
		if err := rows.Scan(&res.ID, &res.Name, &startsAt); err != nil {
			return nil, fmt.Errorf("error scanning event search row: %w", err)
		}
		res.StartsAt = &startsAt
		results = append(results, res)
	}
	return results, rows.Err()
}

// Vocabulary returns approved society names and upcoming event names
func (r *SearchRepository) Vocabulary(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name FROM societies WHERE status = 'approved'
		 UNION
		 SELECT name FROM events WHERE starts_at >= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("error loading search vocabulary: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning vocabulary row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
