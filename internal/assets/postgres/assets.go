package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/database"
	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
)

// AssetRepository implements assets.Repository using PostgreSQL.
type AssetRepository struct {
	pool database.DBTX
}

// NewAssetRepository creates a new PostgreSQL-backed asset repository.
func NewAssetRepository(pool database.DBTX) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// Create inserts a new site asset record into the database.
func (r *AssetRepository) Create(ctx context.Context, a *domain.SiteAsset) error {
	query := `
		INSERT INTO site_assets (id, folder, path, url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, a.ID, a.Folder, a.Path, a.URL, a.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert site asset: %w", err)
	}

	return nil
}

// GetByID retrieves a site asset by its ID.
func (r *AssetRepository) GetByID(ctx context.Context, id string) (*domain.SiteAsset, error) {
	query := `
		SELECT id, folder, path, url, uploaded_at
		FROM site_assets
		WHERE id = $1`

	var a domain.SiteAsset
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Folder, &a.Path, &a.URL, &a.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("site_asset", id)
		}
		return nil, fmt.Errorf("scan site asset: %w", err)
	}

	return &a, nil
}

// ListByFolder returns a folder's assets ordered newest first.
func (r *AssetRepository) ListByFolder(ctx context.Context, folder string) ([]domain.SiteAsset, error) {
	query := `
		SELECT id, folder, path, url, uploaded_at
		FROM site_assets
		WHERE folder = $1
		ORDER BY uploaded_at DESC`

	rows, err := r.pool.Query(ctx, query, folder)
	if err != nil {
		return nil, fmt.Errorf("list site assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.SiteAsset
	for rows.Next() {
		var a domain.SiteAsset
		if err := rows.Scan(&a.ID, &a.Folder, &a.Path, &a.URL, &a.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan site asset row: %w", err)
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site asset rows: %w", err)
	}

	if assets == nil {
		assets = []domain.SiteAsset{}
	}

	return assets, nil
}

// Delete removes a site asset record by its ID.
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM site_assets WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete site asset: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("site_asset", id)
	}

	return nil
}

// DeleteByPath removes a site asset record by its storage path. Deleting an
// absent path is not an error; retention sweeps race with admin deletes.
func (r *AssetRepository) DeleteByPath(ctx context.Context, path string) error {
	query := `DELETE FROM site_assets WHERE path = $1`

	if _, err := r.pool.Exec(ctx, query, path); err != nil {
		return fmt.Errorf("delete site asset by path: %w", err)
	}

	return nil
}
