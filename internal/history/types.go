package history

import "places_backend/internal/domain"

// AddRequest is the body of POST /history.
type AddRequest struct {
	Place domain.Place `json:"place"`
}

// DeleteRequest is the body of POST /history/delete.
type DeleteRequest struct {
	PlaceIDs []string `json:"placeIds" validate:"required,min=1,dive,placeid"`
}

// ListResponse is the history payload, most recent first.
type ListResponse struct {
	Items []domain.Place `json:"items"`
}

// DeleteResponse reports how many entries a delete removed.
type DeleteResponse struct {
	Removed int            `json:"removed"`
	Items   []domain.Place `json:"items"`
}

// SelectedResponse is the body of GET /selection. Place is null when nothing
// is selected.
type SelectedResponse struct {
	Place *domain.Place `json:"place"`
}
