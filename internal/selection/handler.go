package selection

import (
	"net/http"

	"places_backend/internal/domain"
	"places_backend/platform/httpkit"
	"places_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// PlaceRequest is the body of POST /selection/place.
type PlaceRequest struct {
	Slot  string       `json:"slot"`
	Place domain.Place `json:"place"`
}

// StatusRequest is the query of GET /selection/status.
type StatusRequest struct {
	Slot string `form:"slot"`
}

// Handler exposes the selection endpoints.
type Handler struct {
	coord *Coordinator
	val   *validator.Validator
}

func NewHandler(coord *Coordinator, val *validator.Validator) *Handler {
	return &Handler{coord: coord, val: val}
}

// SelectByID handles POST /api/v1/selection.
func (h *Handler) SelectByID(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	outcome, err := h.coord.SelectByID(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	writeOutcome(c, outcome)
}

// SelectPlace handles POST /api/v1/selection/place.
func (h *Handler) SelectPlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	outcome, err := h.coord.SelectPlace(c.Request.Context(), req.Slot, req.Place)
	if httpkit.HandleError(c, err) {
		return
	}
	writeOutcome(c, outcome)
}

// Status handles GET /api/v1/selection/status?slot=...
func (h *Handler) Status(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	httpkit.OK(c, h.coord.Status(req.Slot))
}

// writeOutcome answers 200 on success, 409 when superseded and 422 when the
// place could not be resolved.
func writeOutcome(c *gin.Context, outcome Outcome) {
	switch outcome.State {
	case StateSucceeded:
		httpkit.OK(c, outcome)
	case StateSuperseded:
		httpkit.JSON(c, http.StatusConflict, outcome)
	default:
		httpkit.JSON(c, http.StatusUnprocessableEntity, outcome)
	}
}
