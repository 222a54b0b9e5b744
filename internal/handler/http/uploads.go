package http

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/httputil"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/logger"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/assets"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/imagepipe"
)

// maxUploadBytes bounds a whole multipart request body. Individual file
// ceilings are lower and enforced by validation.
const maxUploadBytes = 32 << 20

// UploadHandler handles image upload endpoints.
type UploadHandler struct {
	pipeline *imagepipe.Pipeline
	assets   *assets.Service
}

// NewUploadHandler creates a new upload HTTP handler.
func NewUploadHandler(pipeline *imagepipe.Pipeline, assetService *assets.Service) *UploadHandler {
	return &UploadHandler{pipeline: pipeline, assets: assetService}
}

func readFormFile(fh *multipart.FileHeader) (imagepipe.File, error) {
	f, err := fh.Open()
	if err != nil {
		return imagepipe.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return imagepipe.File{}, err
	}

	return imagepipe.File{
		Name:        fh.Filename,
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

// UploadProductImage handles POST /api/v1/uploads/products.
func (h *UploadHandler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	_, fh, err := r.FormFile("file")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "file is required: " + err.Error()},
		})
		return
	}

	file, err := readFormFile(fh)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "reading file: " + err.Error()},
		})
		return
	}

	if err := h.pipeline.Validate(file, false); err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	optimized := h.pipeline.Optimize(file, 1200, 1200, imagepipe.DefaultQuality)
	res := h.pipeline.Upload(r.Context(), optimized, domain.ProductImageDir, nil)
	if !res.Success {
		httputil.WriteJSON(w, http.StatusBadGateway, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UPLOAD_FAILED", Message: res.Error},
		})
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: res})
}

// UploadBatch handles POST /api/v1/uploads/products/batch.
func (h *UploadHandler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "at least one file is required"},
		})
		return
	}

	files := make([]imagepipe.File, 0, len(headers))
	for _, fh := range headers {
		file, err := readFormFile(fh)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "reading " + fh.Filename + ": " + err.Error()},
			})
			return
		}
		files = append(files, file)
	}

	results, failures := h.pipeline.UploadMultiple(r.Context(), files, domain.ProductImageDir, false, nil)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"results":  results,
		"failures": failures,
	}})
}

// UploadSiteAsset handles POST /api/v1/assets/{folder} (admin only).
func (h *UploadHandler) UploadSiteAsset(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "failed to parse multipart form: " + err.Error()},
		})
		return
	}

	_, fh, err := r.FormFile("file")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "file is required: " + err.Error()},
		})
		return
	}

	file, err := readFormFile(fh)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "reading file: " + err.Error()},
		})
		return
	}

	actor := IdentityFromContext(r.Context())
	asset, res, err := h.assets.Upload(r.Context(), actor, folder, file, nil)
	if err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}
	if !res.Success {
		httputil.WriteJSON(w, http.StatusBadGateway, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UPLOAD_FAILED", Message: res.Error},
		})
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: asset})
}

// ListSiteAssets handles GET /api/v1/assets/{folder}.
func (h *UploadHandler) ListSiteAssets(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")

	list, err := h.assets.List(r.Context(), folder)
	if err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}

// DeleteSiteAsset handles DELETE /api/v1/assets/{id} (admin only).
func (h *UploadHandler) DeleteSiteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "asset id is required"},
		})
		return
	}

	actor := IdentityFromContext(r.Context())
	if err := h.assets.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "deleted"}})
}
