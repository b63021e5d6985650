package handlers

import (
	"io"
	"net/http"
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/catalog"
	"tableside-order-services/internal/media"
	"tableside-order-services/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) CatalogMenu(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	menu, err := h.Catalog.Menu(r.Context(), t.ID, false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, menu)
}

// CategorySave creates on POST and updates the {id} category on PUT.
func (h *Handler) CategorySave(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var c catalog.Category
	if err := decodeJSON(r, &c); err != nil {
		h.writeError(w, r, err)
		return
	}
	c.ID = readPathString(r, "id")
	if err := h.Catalog.SaveCategory(r.Context(), t.ID, &c); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, c)
}

func (h *Handler) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteCategory(r.Context(), t.ID, readPathString(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}

func (h *Handler) ProductSave(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var p catalog.Product
	if err := decodeJSON(r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	p.ID = readPathString(r, "id")
	if p.CategoryID != nil && strings.TrimSpace(*p.CategoryID) == "" {
		p.CategoryID = nil
	}
	if err := h.Catalog.SaveProduct(r.Context(), t.ID, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, p)
}

func (h *Handler) ProductDelete(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteProduct(r.Context(), t.ID, readPathString(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}

// ProductImageUpload normalises the uploaded file to JPEG, stores it and
// points the product at it. The previous image is removed afterwards.
func (h *Handler) ProductImageUpload(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.Images == nil {
		h.writeError(w, r, apperr.Remote("Image storage is not configured", nil))
		return
	}
	productID := readPathString(r, "id")
	products, err := h.Catalog.Products(r.Context(), t.ID, []string{productID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	product, ok := products[productID]
	if !ok {
		h.writeError(w, r, apperr.NotFound("PRODUCT_NOT_FOUND", "Product not found"))
		return
	}

	data, err := h.readUpload(w, r, "file")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jpeg, meta, err := media.ProductJPEG(data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	url, err := h.Images.PutProductImage(r.Context(), t.ID, productID, jpeg, h.now())
	if err != nil {
		h.writeError(w, r, apperr.Remote("Failed to store image", err))
		return
	}
	if err := h.Catalog.SetProductImage(r.Context(), t.ID, productID, url); err != nil {
		_ = h.Images.DeleteURL(r.Context(), url)
		h.writeError(w, r, err)
		return
	}
	if product.ImageURL != nil && *product.ImageURL != "" {
		if err := h.Images.DeleteURL(r.Context(), *product.ImageURL); err != nil {
			h.logger().Warn("failed to delete replaced product image", zap.String("productId", productID), zap.Error(err))
		}
	}
	response.Success(w, map[string]any{"imageUrl": url, "meta": meta})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	maxBytes := h.Config.MaxFileSizeBytes
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, apperr.Validation("FILE_REQUIRED", "File is required")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, apperr.Validation("FILE_READ_FAILED", "Failed to read file")
	}
	if int64(len(data)) > maxBytes {
		return nil, apperr.Validation("FILE_TOO_LARGE", "File is too large").
			WithDetails(map[string]any{"maxBytes": maxBytes})
	}
	if !media.Allowed(media.DetectContentType(data)) {
		return nil, apperr.Validation("INVALID_FILE_TYPE", "Invalid file type. Please upload an image file.")
	}
	return data, nil
}

// OptionSave creates an option under {id} on POST and updates {optionId} on
// PUT.
func (h *Handler) OptionSave(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var o catalog.Option
	if err := decodeJSON(r, &o); err != nil {
		h.writeError(w, r, err)
		return
	}
	if productID := readPathString(r, "id"); productID != "" {
		o.ProductID = productID
	}
	o.ID = readPathString(r, "optionId")
	if o.ID == "" && o.ProductID == "" {
		h.writeError(w, r, apperr.Validation("VALIDATION_ERROR", "Product is required"))
		return
	}
	if err := h.Catalog.SaveOption(r.Context(), t.ID, &o); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, o)
}

func (h *Handler) OptionDelete(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.DeleteOption(r.Context(), t.ID, readPathString(r, "optionId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}
