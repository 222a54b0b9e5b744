package assets

import (
	"context"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
)

// Repository persists site asset records.
type Repository interface {
	Create(ctx context.Context, a *domain.SiteAsset) error
	GetByID(ctx context.Context, id string) (*domain.SiteAsset, error)
	// ListByFolder returns a folder's assets ordered newest first.
	ListByFolder(ctx context.Context, folder string) ([]domain.SiteAsset, error)
	Delete(ctx context.Context, id string) error
	DeleteByPath(ctx context.Context, path string) error
}
