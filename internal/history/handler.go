package history

import (
	"net/http"

	"places_backend/platform/httpkit"
	"places_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes the history endpoints.
type Handler struct {
	cache *Cache
	val   *validator.Validator
}

func NewHandler(cache *Cache, val *validator.Validator) *Handler {
	return &Handler{cache: cache, val: val}
}

// List handles GET /api/v1/history.
func (h *Handler) List(c *gin.Context) {
	httpkit.OK(c, ListResponse{Items: h.cache.Load(c.Request.Context())})
}

// Add handles POST /api/v1/history with an already-resolved place.
func (h *Handler) Add(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	if err := h.cache.UpsertMostRecent(c.Request.Context(), req.Place); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ListResponse{Items: h.cache.List()})
}

// Delete handles POST /api/v1/history/delete.
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	removed := h.cache.DeleteMany(c.Request.Context(), req.PlaceIDs)
	httpkit.OK(c, DeleteResponse{Removed: removed, Items: h.cache.List()})
}

// Clear handles DELETE /api/v1/history.
func (h *Handler) Clear(c *gin.Context) {
	h.cache.Clear(c.Request.Context())
	httpkit.NoContent(c)
}

// Selected handles GET /api/v1/selection.
func (h *Handler) Selected(c *gin.Context) {
	httpkit.OK(c, SelectedResponse{Place: h.cache.Selected()})
}
