// Package transport holds the place lookup types shared by the client,
// service and HTTP layers.
package transport

import (
	"strings"
	"time"

	"places_backend/internal/domain"
)

// Suggestion is one autocomplete prediction.
type Suggestion struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// Location is a provider point in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceDetail is the detail-shaped record returned by details and text search.
// Location is nil when the provider returned no geometry.
type PlaceDetail struct {
	PlaceID          string    `json:"placeId"`
	Name             string    `json:"name"`
	FormattedAddress string    `json:"formattedAddress,omitempty"`
	Location         *Location `json:"location,omitempty"`
	PhotoReferences  []string  `json:"photoReferences,omitempty"`
}

// HasGeometry reports whether the record carries a usable location.
func (d PlaceDetail) HasGeometry() bool {
	return d.Location != nil
}

// FirstPhoto returns the first photo reference, or "" when there is none.
func (d PlaceDetail) FirstPhoto() string {
	if len(d.PhotoReferences) == 0 {
		return ""
	}
	return d.PhotoReferences[0]
}

// ToPlace builds the persisted place record with the detail viewport span.
// The record is keyed by requestedID, the id the caller selected, even when
// the provider answers with a different canonical place_id. The response id
// is only used when requestedID is empty.
func (d PlaceDetail) ToPlace(requestedID string) (domain.Place, error) {
	if !d.HasGeometry() {
		return domain.Place{}, domain.ErrInvalidCoordinates
	}

	id := strings.TrimSpace(requestedID)
	if id == "" {
		id = d.PlaceID
	}

	place := domain.NewPlace(
		id,
		d.Name,
		d.FormattedAddress,
		domain.NewCoordinates(d.Location.Lat, d.Location.Lng, domain.DetailSpan),
		d.FirstPhoto(),
	)
	if err := place.Validate(); err != nil {
		return domain.Place{}, err
	}
	return place, nil
}

// SearchItem is a text search hit decorated with a ready photo URL.
type SearchItem struct {
	PlaceDetail
	PhotoURL string `json:"photoUrl,omitempty"`
}

// Advisory is the credential state of the lookup provider. While Active,
// search and selection are disabled.
type Advisory struct {
	Active    bool      `json:"active"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checkedAt,omitempty"`
}

// LookupFailure describes the most recent degraded provider call.
type LookupFailure struct {
	Operation  string    `json:"operation"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SuggestRequest is the query of GET /places/suggest.
type SuggestRequest struct {
	Query string `form:"q"`
}

// SearchRequest is the query of GET /places/search.
type SearchRequest struct {
	Query string `form:"q" binding:"required"`
}

// PhotoURLRequest is the query of GET /places/photo-url.
type PhotoURLRequest struct {
	Reference string `form:"ref" binding:"required"`
	MaxWidth  int    `form:"maxWidth" binding:"omitempty,min=1,max=1600"`
}

// ListResponse wraps list payloads.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// PhotoURLResponse is the body of GET /places/photo-url.
type PhotoURLResponse struct {
	URL string `json:"url"`
}
