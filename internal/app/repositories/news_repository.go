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
	"github.com/yigit/societyhub/internal/pkg/helpers"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// INewsRepository defines news persistence
type INewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	GetByID(ctx context.Context, id int64) (*models.News, error)
	Update(ctx context.Context, news *models.News) error
	SetPublished(ctx context.Context, id int64, publishedAt *time.Time) error
	SetImage(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
	ListPublished(ctx context.Context, filter models.NewsFilter) ([]models.News, int64, error)
	ListDrafts(ctx context.Context, societyID int64) ([]models.News, error)
	// AddViews adds delta to the stored view counter
	AddViews(ctx context.Context, id int64, delta int64) error
}

var newsColumns = []string{
	"id", "society_id", "event_id", "title", "content", "image_url", "published", "published_at",
	"views", "COALESCE(author_id, 0)", "created_at", "updated_at",
}

// NewsRepository handles news database operations
type NewsRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNewsRepository creates a new NewsRepository
func NewNewsRepository(db *pgxpool.Pool) *NewsRepository {
	return &NewsRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanNews(row pgx.Row) (*models.News, error) {
	n := &models.News{}
	err := row.Scan(&n.ID, &n.SocietyID, &n.EventID, &n.Title, &n.Content, &n.ImageURL, &n.Published,
		&n.PublishedAt, &n.Views, &n.AuthorID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func insertNews(ctx context.Context, q db.Querier, sb squirrel.StatementBuilderType, news *models.News) error {
	sql, args, err := sb.Insert("news").
		Columns("society_id", "event_id", "title", "content", "image_url", "published", "published_at", "author_id").
		Values(news.SocietyID, news.EventID, news.Title, news.Content, news.ImageURL, news.Published, news.PublishedAt, news.AuthorID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create news query: %w", err)
	}
	if err := q.QueryRow(ctx, sql, args...).Scan(&news.ID, &news.CreatedAt, &news.UpdatedAt); err != nil {
		return fmt.Errorf("error creating news: %w", err)
	}
	return nil
}

// Create inserts a news item
func (r *NewsRepository) Create(ctx context.Context, news *models.News) error {
	if err := insertNews(ctx, r.db, r.sb, news); err != nil {
		logger.Error().Err(err).Int64("societyID", news.SocietyID).Msg("Error creating news")
		return err
	}
	return nil
}

// GetByID retrieves a news item by ID
func (r *NewsRepository) GetByID(ctx context.Context, id int64) (*models.News, error) {
	sql, args, err := r.sb.Select(newsColumns...).From("news").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get news query: %w", err)
	}

	n, err := scanNews(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNewsNotFound
		}
		return nil, fmt.Errorf("error getting news: %w", err)
	}
	return n, nil
}

// Update saves title and content
func (r *NewsRepository) Update(ctx context.Context, news *models.News) error {
	sql, args, err := r.sb.Update("news").
		Set("title", news.Title).
		Set("content", news.Content).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": news.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update news query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&news.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNewsNotFound
		}
		return fmt.Errorf("error updating news: %w", err)
	}
	return nil
}

// SetPublished publishes the item at publishedAt, or unpublishes it when nil
func (r *NewsRepository) SetPublished(ctx context.Context, id int64, publishedAt *time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE news SET published = $1, published_at = $2, updated_at = NOW() WHERE id = $3`,
		publishedAt != nil, publishedAt, id)
	if err != nil {
		return fmt.Errorf("error updating news publication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNewsNotFound
	}
	return nil
}

// SetImage stores the image URL of a news item
func (r *NewsRepository) SetImage(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `UPDATE news SET image_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("error updating news image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNewsNotFound
	}
	return nil
}

// Delete removes a news item
func (r *NewsRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting news: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNewsNotFound
	}
	return nil
}

// ListPublished lists published news of approved societies, newest first
func (r *NewsRepository) ListPublished(ctx context.Context, filter models.NewsFilter) ([]models.News, int64, error) {
	conds := squirrel.And{
		squirrel.Eq{"published": true},
		squirrel.Expr("society_id IN (SELECT id FROM societies WHERE status IN ('approved', 'request_delete'))"),
	}
	if filter.SocietyID != nil {
		conds = append(conds, squirrel.Eq{"society_id": *filter.SocietyID})
	}
	if filter.EventID != nil {
		conds = append(conds, squirrel.Eq{"event_id": *filter.EventID})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("news").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count news query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting news: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)
	sql, args, err := r.sb.Select(newsColumns...).From("news").Where(conds).
		OrderBy("published_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list news query: %w", err)
	}

	news, err := r.list(ctx, sql, args)
	if err != nil {
		return nil, 0, err
	}
	return news, total, nil
}

// ListDrafts lists unpublished news of a society
func (r *NewsRepository) ListDrafts(ctx context.Context, societyID int64) ([]models.News, error) {
	sql, args, err := r.sb.Select(newsColumns...).From("news").
		Where(squirrel.Eq{"society_id": societyID, "published": false}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list drafts query: %w", err)
	}
	return r.list(ctx, sql, args)
}

func (r *NewsRepository) list(ctx context.Context, sql string, args []interface{}) ([]models.News, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying news: %w", err)
	}
	defer rows.Close()

	items := []models.News{}
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning news row: %w", err)
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

// AddViews adds delta to a news item's view counter
func (r *NewsRepository) AddViews(ctx context.Context, id int64, delta int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE news SET views = views + $1 WHERE id = $2`, delta, id); err != nil {
		return fmt.Errorf("error adding news views: %w", err)
	}
	return nil
}
