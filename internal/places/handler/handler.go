// Package handler exposes the place lookup HTTP endpoints.
package handler

import (
	"net/http"

	"places_backend/internal/places/service"
	"places_backend/internal/places/transport"
	"places_backend/platform/apperr"
	"places_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves /places routes.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Suggest handles GET /api/v1/places/suggest?q=...
func (h *Handler) Suggest(c *gin.Context) {
	var req transport.SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", nil)
		return
	}
	if h.rejectWhileAdvisory(c) {
		return
	}

	httpkit.OK(c, transport.ListResponse[transport.Suggestion]{
		Items: h.svc.Suggest(c.Request.Context(), req.Query),
	})
}

// Search handles GET /api/v1/places/search?q=...
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required", nil)
		return
	}
	if h.rejectWhileAdvisory(c) {
		return
	}

	results := h.svc.SearchText(c.Request.Context(), req.Query)
	items := make([]transport.SearchItem, 0, len(results))
	for _, r := range results {
		item := transport.SearchItem{PlaceDetail: r}
		if url, ok := h.svc.PhotoURL(r.FirstPhoto(), 0); ok {
			item.PhotoURL = url
		}
		items = append(items, item)
	}

	httpkit.OK(c, transport.ListResponse[transport.SearchItem]{Items: items})
}

// PhotoURL handles GET /api/v1/places/photo-url?ref=...&maxWidth=...
func (h *Handler) PhotoURL(c *gin.Context) {
	var req transport.PhotoURLRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'ref' is required", nil)
		return
	}

	url, ok := h.svc.PhotoURL(req.Reference, req.MaxWidth)
	if !ok {
		httpkit.HandleError(c, apperr.NotFound("no photo for reference"))
		return
	}
	httpkit.OK(c, transport.PhotoURLResponse{URL: url})
}

// GetAdvisory handles GET /api/v1/places/advisory.
func (h *Handler) GetAdvisory(c *gin.Context) {
	httpkit.OK(c, h.svc.Advisory())
}

// CheckAdvisory handles POST /api/v1/places/advisory/check.
func (h *Handler) CheckAdvisory(c *gin.Context) {
	advisory, err := h.svc.CheckCredential(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "credential check failed", advisory)
		return
	}
	httpkit.OK(c, advisory)
}

// ClearAdvisory handles DELETE /api/v1/places/advisory.
func (h *Handler) ClearAdvisory(c *gin.Context) {
	h.svc.ClearAdvisory(c.Request.Context())
	httpkit.OK(c, h.svc.Advisory())
}

func (h *Handler) rejectWhileAdvisory(c *gin.Context) bool {
	advisory := h.svc.Advisory()
	if !advisory.Active {
		return false
	}
	httpkit.HandleError(c, apperr.Unavailable(advisory.Message).WithDetails(advisory))
	return true
}
