// Package imagepipe turns user-selected image files into validated,
// size-bounded, deterministically named blobs in the remote blob store,
// with optional progress reporting, cancellation, and retention cleanup.
package imagepipe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/blobstore"
)

// Size ceilings and strict-mode dimension bounds for Validate.
const (
	MaxSizeStrict = 2 << 20 // 2 MiB
	MaxSizeLoose  = 5 << 20 // 5 MiB
	MaxWidth      = 500
	MaxHeight     = 300
)

// Default encoding parameters.
const (
	DefaultQuality   = 0.8
	ThumbnailQuality = 0.7
)

// File is an in-memory image file as received from the client.
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// UploadResult is the outcome of a single upload. Failures are carried in
// the result rather than as an error; cancellation reports the reason
// "Upload cancelled".
type UploadResult struct {
	Success     bool   `json:"success"`
	URL         string `json:"url,omitempty"`
	Path        string `json:"path,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchFailure records one file rejected during a batch upload.
type BatchFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Pipeline validates, optimizes, and uploads image files.
type Pipeline struct {
	store  blobstore.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store blobstore.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{store: store, logger: logger, now: time.Now}
}

var allowedTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/webp":    {},
	"image/svg+xml": {},
	"image/gif":     {},
}

func (f File) contentType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return http.DetectContentType(f.Data)
}

// Validate checks a file's type, size, and (in strict mode) dimensions.
// Dimension checking is best-effort: a file the decoder cannot parse passes.
func (p *Pipeline) Validate(f File, strict bool) error {
	ct := f.contentType()
	if _, ok := allowedTypes[ct]; !ok {
		return &apperrors.AppError{
			Code:    "INVALID_TYPE",
			Message: fmt.Sprintf("unsupported image type %q", ct),
			Status:  http.StatusBadRequest,
			Err:     apperrors.ErrInvalidInput,
		}
	}

	limit := int64(MaxSizeLoose)
	if strict {
		limit = MaxSizeStrict
	}
	if int64(len(f.Data)) > limit {
		return &apperrors.AppError{
			Code:    "TOO_LARGE",
			Message: fmt.Sprintf("image exceeds %d bytes", limit),
			Status:  http.StatusBadRequest,
			Err:     apperrors.ErrInvalidInput,
		}
	}

	if strict && ct != "image/svg+xml" {
		w, h, err := decodeDimensions(f.Data)
		if err == nil && (w > MaxWidth || h > MaxHeight) {
			return &apperrors.AppError{
				Code:    "DIMENSIONS_EXCEEDED",
				Message: fmt.Sprintf("image is %dx%d, max %dx%d", w, h, MaxWidth, MaxHeight),
				Status:  http.StatusBadRequest,
				Err:     apperrors.ErrInvalidInput,
			}
		}
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9.]+`)

// sanitizeName lowercases a file name and collapses every run of characters
// outside [a-z0-9.] into a single underscore.
func sanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_")
}

// ObjectPath builds the deterministic destination path for a file.
func (p *Pipeline) ObjectPath(folder, name string) string {
	return fmt.Sprintf("%s/%d_%s", folder, p.now().UnixMilli(), sanitizeName(name))
}

// StartUpload begins a resumable upload and returns its transfer handle, for
// callers that need mid-flight cancellation. onProgress may be nil.
func (p *Pipeline) StartUpload(ctx context.Context, f File, folder string, onProgress blobstore.ProgressFunc) (blobstore.Transfer, string, error) {
	path := p.ObjectPath(folder, f.Name)
	t, err := p.store.PutResumable(ctx, blobstore.PutInput{
		Path:        path,
		Data:        f.Data,
		ContentType: f.contentType(),
		Metadata:    map[string]string{"original_name": f.Name},
	}, onProgress)
	if err != nil {
		return nil, "", fmt.Errorf("starting upload to %s: %w", path, err)
	}
	return t, path, nil
}

// Await blocks until the transfer finishes and converts its outcome into an
// UploadResult. Cancellation is a failure result, not an error.
func Await(t blobstore.Transfer) UploadResult {
	obj, err := t.Result()
	if err != nil {
		reason := err.Error()
		if apperrors.IsCanceled(err) {
			reason = "Upload cancelled"
		}
		return UploadResult{Success: false, Error: reason}
	}
	return UploadResult{
		Success:     true,
		URL:         obj.URL,
		Path:        obj.Path,
		Size:        obj.Size,
		ContentType: obj.ContentType,
	}
}

// Upload stores a file at <folder>/<timestamp>_<sanitized name>. With a
// progress callback the transfer is resumable; without one it is single-shot.
// All expected failures come back in the result.
func (p *Pipeline) Upload(ctx context.Context, f File, folder string, onProgress blobstore.ProgressFunc) UploadResult {
	if onProgress != nil {
		t, _, err := p.StartUpload(ctx, f, folder, onProgress)
		if err != nil {
			return UploadResult{Success: false, Error: err.Error()}
		}
		res := Await(t)
		p.observeUpload(folder, res)
		return res
	}

	path := p.ObjectPath(folder, f.Name)
	obj, err := p.store.Put(ctx, blobstore.PutInput{
		Path:        path,
		Data:        f.Data,
		ContentType: f.contentType(),
		Metadata:    map[string]string{"original_name": f.Name},
	})
	if err != nil {
		res := UploadResult{Success: false, Error: err.Error()}
		p.observeUpload(folder, res)
		return res
	}
	res := UploadResult{
		Success:     true,
		URL:         obj.URL,
		Path:        obj.Path,
		Size:        obj.Size,
		ContentType: obj.ContentType,
	}
	p.observeUpload(folder, res)
	return res
}

func (p *Pipeline) observeUpload(folder string, res UploadResult) {
	result := "success"
	if !res.Success {
		result = "failure"
		if res.Error == "Upload cancelled" {
			result = "cancelled"
		}
		p.logger.Warn("upload failed",
			slog.String("folder", folder),
			slog.String("reason", res.Error),
		)
	}
	uploadsTotal.WithLabelValues(folder, result).Inc()
}

// CleanupRetained deletes every object in folder beyond the keepCount
// most-recently-created ones. Deletions are independent; failures are logged
// and do not stop the sweep. Returns the number deleted.
func (p *Pipeline) CleanupRetained(ctx context.Context, folder string, keepCount int) int {
	items, _, err := p.store.List(ctx, folder)
	if err != nil {
		p.logger.Warn("retention listing failed",
			slog.String("folder", folder),
			slog.String("error", err.Error()),
		)
		return 0
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	deleted := 0
	for i := keepCount; i < len(items); i++ {
		if err := p.store.Delete(ctx, items[i].Path); err != nil {
			p.logger.Warn("retention delete failed",
				slog.String("path", items[i].Path),
				slog.String("error", err.Error()),
			)
			continue
		}
		deleted++
		retainedDeletedTotal.WithLabelValues(folder).Inc()
	}
	return deleted
}

// UploadMultiple uploads files sequentially so a single combined progress
// value stays meaningful. Files failing validation are collected and
// skipped; the batch continues. Overall progress is
// completed/total*100 + currentFileProgress/total, clamped to 100 and
// reported monotonically.
func (p *Pipeline) UploadMultiple(ctx context.Context, files []File, folder string, strict bool, onProgress func(float64)) ([]UploadResult, []BatchFailure) {
	total := float64(len(files))
	if total == 0 {
		return nil, nil
	}

	var (
		results   []UploadResult
		failures  []BatchFailure
		completed int
		reported  float64
	)

	report := func(v float64) {
		if onProgress == nil {
			return
		}
		if v > 100 {
			v = 100
		}
		if v < reported {
			return
		}
		reported = v
		onProgress(v)
	}

	for _, f := range files {
		if err := p.Validate(f, strict); err != nil {
			failures = append(failures, BatchFailure{Name: f.Name, Reason: err.Error()})
			completed++
			report(float64(completed) / total * 100)
			continue
		}

		res := p.Upload(ctx, f, folder, func(fileProgress float64) {
			report(float64(completed)/total*100 + fileProgress/total)
		})
		results = append(results, res)
		completed++
		report(float64(completed) / total * 100)
	}

	return results, failures
}
