package transport

import (
	"errors"
	"net/http"
	"strconv"

	"ryven-shop/internal/gateway"
	"ryven-shop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ObjectStore opens stored bucket objects
type ObjectStore interface {
	Open(bucket, name string) (afero.File, gateway.ObjectMeta, error)
}

// StorageHandler serves public bucket objects under the same paths PublicURL builds
type StorageHandler struct {
	objects ObjectStore
	logger  *zap.Logger
}

// NewStorageHandler creates a new StorageHandler
func NewStorageHandler(objects ObjectStore, logger *zap.Logger) *StorageHandler {
	return &StorageHandler{objects: objects, logger: logger}
}

// RegisterRoutes registers the public object route
func (h *StorageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/storage/v1/object/public/{bucket}/*", h.Serve)
}

// Serve writes one object with its stored content type and cache control
func (h *StorageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	name := chi.URLParam(r, "*")

	f, meta, err := h.objects.Open(bucket, name)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrObjectMissing), errors.Is(err, gateway.ErrInvalidPath):
			middleware.RespondWithError(w, http.StatusNotFound, "object not found")
		default:
			h.logger.Error("Failed to open object", zap.String("bucket", bucket), zap.String("name", name), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to read object")
		}
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	if cc := cacheControl(meta.CacheControl); cc != "" {
		w.Header().Set("Cache-Control", cc)
	}
	http.ServeContent(w, r, name, meta.UploadedAt, f)
}

// cacheControl accepts either a bare max-age in seconds or a full directive
func cacheControl(stored string) string {
	if _, err := strconv.Atoi(stored); err == nil {
		return "max-age=" + stored
	}
	return stored
}
