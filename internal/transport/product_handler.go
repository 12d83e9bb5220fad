package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"ryven-shop/internal/middleware"
	"ryven-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	multipartMemory = 8 << 20
	// room for the text fields and multipart framing on top of the image
	formOverhead = 1 << 20
)

// ProductHandler serves the admin catalog screen
type ProductHandler struct {
	sessions      *service.Registry
	maxImageBytes int64
	logger        *zap.Logger
}

// NewProductHandler creates a new ProductHandler. maxImageBytes bounds how much
// of an uploaded file is read before the size check rejects it.
func NewProductHandler(sessions *service.Registry, maxImageBytes int64, logger *zap.Logger) *ProductHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = service.DefaultMaxImageBytes
	}
	return &ProductHandler{
		sessions:      sessions,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// RegisterRoutes registers the catalog routes on an admin-only router
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.View)
		r.Post("/", h.Save)
		r.Post("/refresh", h.Refresh)
		r.Delete("/edit", h.ResetForm)
		r.Post("/{id}/edit", h.Edit)
		r.Post("/{id}/delete-request", h.RequestRemove)
		r.Delete("/{id}/delete-request", h.CancelRemove)
		r.Delete("/{id}", h.ConfirmRemove)
	})
}

// View renders the catalog and the product form
func (h *ProductHandler) View(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.State()))
}

// Refresh reloads the catalog
func (h *ProductHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	if err := sess.Catalog.Refresh(r.Context()); err != nil {
		h.logger.Debug("Catalog refresh failed", zap.String("session", sess.ID), zap.Error(err))
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.State()))
}

// Save creates a product, or updates the one selected for editing. The body
// is a multipart form carrying the product fields and an optional image file.
func (h *ProductHandler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+formOverhead)

	form, img, err := h.readForm(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Debug("Product form too large", zap.Int64("limit", tooLarge.Limit))
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.logger.Debug("Unreadable product form", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if err := sess.Catalog.Save(r.Context(), form, img); err != nil {
		respondError(w, h.logger, err, "failed to save product")
		return
	}

	h.logger.Info("Product saved", zap.String("session", sess.ID), zap.String("name", form.Name))
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.State()))
}

func (h *ProductHandler) readForm(r *http.Request) (service.ProductForm, *service.ImageUpload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return service.ProductForm{}, nil, err
		}
		if err := r.ParseForm(); err != nil {
			return service.ProductForm{}, nil, err
		}
	}

	form := service.ProductForm{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Category:    r.FormValue("category"),
		IconName:    r.FormValue("icon_name"),
		ImageURL:    r.FormValue("image_url"),
	}

	if r.MultipartForm == nil {
		return form, nil, nil
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil
	}
	if err != nil {
		return form, nil, fmt.Errorf("failed to read image: %w", err)
	}
	defer file.Close()

	// one byte past the limit is enough for the size check to reject it
	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return form, nil, fmt.Errorf("failed to read image: %w", err)
	}
	return form, &service.ImageUpload{Filename: header.Filename, Data: data}, nil
}

// Edit selects a product and returns the view with its form filled in
func (h *ProductHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if _, err := sess.Catalog.Edit(id); err != nil {
		respondError(w, h.logger, err, "failed to select product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.State()))
}

// ResetForm leaves editing mode
func (h *ProductHandler) ResetForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.ResetForm()))
}

// RequestRemove asks for confirmation before a product is deleted
func (h *ProductHandler) RequestRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if service.FindProduct(sess.Catalog.State(), id) == nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.RequestRemove(id)))
}

// CancelRemove drops the pending removal
func (h *ProductHandler) CancelRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.CancelRemove()))
}

// ConfirmRemove deletes the product whose removal was requested
func (h *ProductHandler) ConfirmRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	sess, ok := sessionFor(w, r, h.sessions)
	if !ok {
		return
	}

	if err := sess.Catalog.ConfirmRemove(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("session", sess.ID), zap.Int64("id", id))
	middleware.RespondWithJSON(w, http.StatusOK, RenderCatalog(sess.Catalog.State()))
}
