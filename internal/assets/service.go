// Package assets manages site-wide images (logos, banners): admin-guarded
// upload through the image pipeline, a database record per stored asset, and
// per-folder retention that keeps only the newest uploads.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/blobstore"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/bus"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/event"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/identity"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/imagepipe"
)

// Optimization bounds applied to site assets before upload.
const (
	optimizeMaxWidth  = 1200
	optimizeMaxHeight = 1200
)

// EventPublisher publishes asset lifecycle events; satisfied by event.Producer.
type EventPublisher interface {
	PublishAssetUploaded(ctx context.Context, data event.AssetUploadedData) error
	PublishAssetDeleted(ctx context.Context, path string) error
}

// Service coordinates asset uploads, records, and retention.
type Service struct {
	pipeline *imagepipe.Pipeline
	store    blobstore.Store
	repo     Repository
	bus      *bus.Bus
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(pipeline *imagepipe.Pipeline, store blobstore.Store, repo Repository, b *bus.Bus, events EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		pipeline: pipeline,
		store:    store,
		repo:     repo,
		bus:      b,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Upload validates, optimizes, and stores a site asset, records it, and runs
// the folder's retention sweep. Only admins may upload; logos are validated
// strictly (tighter size and dimension bounds). Returns the stored asset and
// the upload result; a failed upload returns the result with a nil asset.
func (s *Service) Upload(ctx context.Context, actor *identity.Identity, folder string, f imagepipe.File, onProgress blobstore.ProgressFunc) (*domain.SiteAsset, imagepipe.UploadResult, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, imagepipe.UploadResult{}, apperrors.Forbidden("only admins may manage site assets")
	}
	if domain.KeepCountForFolder(folder) == 0 {
		return nil, imagepipe.UploadResult{}, apperrors.InvalidInput(fmt.Sprintf("unknown asset folder %q", folder))
	}

	strict := folder == domain.LogoFolder
	if err := s.pipeline.Validate(f, strict); err != nil {
		return nil, imagepipe.UploadResult{}, err
	}

	optimized := s.pipeline.Optimize(f, optimizeMaxWidth, optimizeMaxHeight, imagepipe.DefaultQuality)

	res := s.pipeline.Upload(ctx, optimized, folder, onProgress)
	if !res.Success {
		return nil, res, nil
	}

	asset := &domain.SiteAsset{
		ID:         uuid.NewString(),
		Folder:     folder,
		Path:       res.Path,
		URL:        res.URL,
		UploadedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		// The blob is stored but unrecorded; the next retention sweep
		// reconciles it.
		s.logger.Error("recording uploaded asset failed",
			slog.String("path", res.Path),
			slog.String("error", err.Error()),
		)
		return nil, res, fmt.Errorf("recording asset %s: %w", res.Path, err)
	}

	s.retain(ctx, folder)

	s.bus.Emit(bus.KindAssetUploaded, bus.AssetUploadedPayload{
		Folder: folder,
		Path:   res.Path,
		URL:    res.URL,
	})
	s.bus.Emit(bus.KindNotification, bus.NotificationPayload{
		Level:   bus.LevelSuccess,
		Message: fmt.Sprintf("Uploaded %s to %s", f.Name, folder),
	})
	if s.events != nil {
		if err := s.events.PublishAssetUploaded(ctx, event.AssetUploadedData{
			Path:        res.Path,
			URL:         res.URL,
			Folder:      folder,
			ContentType: res.ContentType,
			Size:        res.Size,
		}); err != nil {
			s.logger.Warn("asset event publish failed", slog.String("error", err.Error()))
		}
	}

	return asset, res, nil
}

// retain enforces the folder's keep-count on both the blob store and the
// asset records. Failures are logged; retention is best-effort.
func (s *Service) retain(ctx context.Context, folder string) {
	keep := domain.KeepCountForFolder(folder)
	if keep == 0 {
		return
	}

	deleted := s.pipeline.CleanupRetained(ctx, folder, keep)
	if deleted > 0 {
		s.logger.Info("retention sweep",
			slog.String("folder", folder),
			slog.Int("deleted", deleted),
		)
	}

	rows, err := s.repo.ListByFolder(ctx, folder)
	if err != nil {
		s.logger.Warn("retention record listing failed", slog.String("error", err.Error()))
		return
	}
	for i := keep; i < len(rows); i++ {
		if err := s.repo.Delete(ctx, rows[i].ID); err != nil {
			s.logger.Warn("retention record delete failed",
				slog.String("id", rows[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if s.events != nil {
			if err := s.events.PublishAssetDeleted(ctx, rows[i].Path); err != nil {
				s.logger.Warn("asset event publish failed", slog.String("error", err.Error()))
			}
		}
	}
}

// List returns a folder's assets, newest first.
func (s *Service) List(ctx context.Context, folder string) ([]domain.SiteAsset, error) {
	return s.repo.ListByFolder(ctx, folder)
}

// Delete removes an asset's blob and record. Only admins may delete.
func (s *Service) Delete(ctx context.Context, actor *identity.Identity, id string) error {
	if actor == nil || !actor.IsAdmin() {
		return apperrors.Forbidden("only admins may manage site assets")
	}

	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, asset.Path); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("deleting asset blob %s: %w", asset.Path, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.PublishAssetDeleted(ctx, asset.Path); err != nil {
			s.logger.Warn("asset event publish failed", slog.String("error", err.Error()))
		}
	}
	return nil
}
