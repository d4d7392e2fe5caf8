package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
)

// IGalleryRepository defines gallery and image persistence
type IGalleryRepository interface {
	Create(ctx context.Context, g *models.Gallery) error
	GetByID(ctx context.Context, id int64) (*models.Gallery, error)
	ListBySociety(ctx context.Context, societyID int64) ([]models.Gallery, error)
	Delete(ctx context.Context, id int64) error
	AddImage(ctx context.Context, img *models.Image) error
	GetImage(ctx context.Context, id int64) (*models.Image, error)
	DeleteImage(ctx context.Context, id int64) error
}

// GalleryRepository handles gallery database operations
type GalleryRepository struct {
	db *pgxpool.Pool
}

// NewGalleryRepository creates a new GalleryRepository
func NewGalleryRepository(db *pgxpool.Pool) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// Create inserts a gallery
func (r *GalleryRepository) Create(ctx context.Context, g *models.Gallery) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO galleries (society_id, title) VALUES ($1, $2) RETURNING id, created_at`,
		g.SocietyID, g.Title).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating gallery: %w", err)
	}
	return nil
}

// GetByID retrieves a gallery with its images
func (r *GalleryRepository) GetByID(ctx context.Context, id int64) (*models.Gallery, error) {
	g := &models.Gallery{}
	err := r.db.QueryRow(ctx,
		`SELECT id, society_id, title, created_at FROM galleries WHERE id = $1`, id,
	).Scan(&g.ID, &g.SocietyID, &g.Title, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGalleryNotFound
		}
		return nil, fmt.Errorf("error getting gallery: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, gallery_id, url, caption, COALESCE(uploaded_by, 0), created_at
		 FROM gallery_images WHERE gallery_id = $1 ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("error querying gallery images: %w", err)
	}
	defer rows.Close()

	g.Images = []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.GalleryID, &img.URL, &img.Caption, &img.UploadedBy, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning gallery image row: %w", err)
		}
		g.Images = append(g.Images, img)
	}
	return g, rows.Err()
}

// ListBySociety lists a society's galleries without images
func (r *GalleryRepository) ListBySociety(ctx context.Context, societyID int64) ([]models.Gallery, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, society_id, title, created_at FROM galleries WHERE society_id = $1 ORDER BY created_at DESC`, societyID)
	if err != nil {
		return nil, fmt.Errorf("error querying galleries: %w", err)
	}
	defer rows.Close()

	galleries := []models.Gallery{}
	for rows.Next() {
		var g models.Gallery
		if err := rows.Scan(&g.ID, &g.SocietyID, &g.Title, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning gallery row: %w", err)
		}
		galleries = append(galleries, g)
	}
	return galleries, rows.Err()
}

// Delete removes a gallery and its image rows
func (r *GalleryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM galleries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrGalleryNotFound
	}
	return nil
}

// AddImage inserts an image row
func (r *GalleryRepository) AddImage(ctx context.Context, img *models.Image) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO gallery_images (gallery_id, url, caption, uploaded_by) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		img.GalleryID, img.URL, img.Caption, img.UploadedBy).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating gallery image: %w", err)
	}
	return nil
}

// GetImage retrieves an image by ID
func (r *GalleryRepository) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	img := &models.Image{}
	err := r.db.QueryRow(ctx,
		`SELECT id, gallery_id, url, caption, COALESCE(uploaded_by, 0), created_at FROM gallery_images WHERE id = $1`, id,
	).Scan(&img.ID, &img.GalleryID, &img.URL, &img.Caption, &img.UploadedBy, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrImageNotFound
		}
		return nil, fmt.Errorf("error getting gallery image: %w", err)
	}
	return img, nil
}

// DeleteImage removes an image row
func (r *GalleryRepository) DeleteImage(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gallery_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting gallery image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrImageNotFound
	}
	return nil
}
