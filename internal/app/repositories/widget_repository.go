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
)

// IWidgetRepository defines widget persistence
type IWidgetRepository interface {
	Create(ctx context.Context, w *models.Widget) error
	GetByID(ctx context.Context, id int64) (*models.Widget, error)
	Update(ctx context.Context, w *models.Widget) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, societyID int64, includeHidden bool) ([]models.Widget, error)
	// Reorder sets positions following ids, which must be exactly the society's widgets
	Reorder(ctx context.Context, societyID int64, ids []int64) error
}

var widgetColumns = []string{"id", "society_id", "type", "title", "config", "position", "visible", "created_at", "updated_at"}

// WidgetRepository handles widget database operations
type WidgetRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewWidgetRepository creates a new WidgetRepository
func NewWidgetRepository(db *pgxpool.Pool) *WidgetRepository {
	return &WidgetRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanWidget(row pgx.Row) (*models.Widget, error) {
	w := &models.Widget{}
	err := row.Scan(&w.ID, &w.SocietyID, &w.Type, &w.Title, &w.Config, &w.Position, &w.Visible, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func configOrEmpty(c map[string]interface{}) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	return c
}

// Create appends a widget after the society's existing ones
func (r *WidgetRepository) Create(ctx context.Context, w *models.Widget) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO widgets (society_id, type, title, config, visible, position)
		 VALUES ($1, $2, $3, $4, $5, (SELECT COALESCE(MAX(position), -1) + 1 FROM widgets WHERE society_id = $1))
		 RETURNING id, position, created_at, updated_at`,
		w.SocietyID, w.Type, w.Title, configOrEmpty(w.Config), w.Visible,
	).Scan(&w.ID, &w.Position, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating widget: %w", err)
	}
	return nil
}

// GetByID retrieves a widget by ID
func (r *WidgetRepository) GetByID(ctx context.Context, id int64) (*models.Widget, error) {
	sql, args, err := r.sb.Select(widgetColumns...).From("widgets").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get widget query: %w", err)
	}

	w, err := scanWidget(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWidgetNotFound
		}
		return nil, fmt.Errorf("error getting widget: %w", err)
	}
	return w, nil
}

// Update saves title, config and visibility
func (r *WidgetRepository) Update(ctx context.Context, w *models.Widget) error {
	sql, args, err := r.sb.Update("widgets").
		Set("title", w.Title).
		Set("config", configOrEmpty(w.Config)).
		Set("visible", w.Visible).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": w.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update widget query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrWidgetNotFound
		}
		return fmt.Errorf("error updating widget: %w", err)
	}
	return nil
}

// Delete removes a widget
func (r *WidgetRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM widgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting widget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrWidgetNotFound
	}
	return nil
}

// List returns a society's widgets in display order
func (r *WidgetRepository) List(ctx context.Context, societyID int64, includeHidden bool) ([]models.Widget, error) {
	q := r.sb.Select(widgetColumns...).From("widgets").Where(squirrel.Eq{"society_id": societyID})
	if !includeHidden {
		q = q.Where(squirrel.Eq{"visible": true})
	}
	sql, args, err := q.OrderBy("position ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list widgets query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying widgets: %w", err)
	}
	defer rows.Close()

	widgets := []models.Widget{}
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning widget row: %w", err)
		}
		widgets = append(widgets, *w)
	}
	return widgets, rows.Err()
}

// Reorder rewrites widget positions in one transaction
func (r *WidgetRepository) Reorder(ctx context.Context, societyID int64, ids []int64) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM widgets WHERE society_id = $1 FOR UPDATE`, societyID)
		if err != nil {
			return fmt.Errorf("error locking widgets: %w", err)
		}
		existing := map[int64]bool{}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("error scanning widget id: %w", err)
			}
			existing[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error reading widget ids: %w", err)
		}

		if len(ids) != len(existing) {
			return apperrors.NewValidationError("widget order must list every widget of the society exactly once")
		}
		seen := map[int64]bool{}
		for _, id := range ids {
			if !existing[id] || seen[id] {
				return apperrors.NewValidationError("widget order must list every widget of the society exactly once")
			}
			seen[id] = true
		}

		for position, id := range ids {
			if _, err := tx.Exec(ctx, `UPDATE widgets SET position = $1, updated_at = NOW() WHERE id = $2`, position, id); err != nil {
				return fmt.Errorf("error updating widget position: %w", err)
			}
		}
		return nil
	})
}
