// Package domain holds the place record shared by lookup, history and
// selection. Values are immutable: updates build a new Place.
package domain

import (
	"errors"
	"math"
	"strings"

	"github.com/golang/geo/s2"
)

const (
	// DetailSpan is the viewport span for a resolved place.
	DetailSpan = 0.01
	// CoarseSpan is the viewport span for current-location and other coarse results.
	CoarseSpan = 0.05
	// HistoryLimit bounds the recent-history list.
	HistoryLimit = 10
)

var (
	ErrMissingPlaceID     = errors.New("place id is required")
	ErrInvalidCoordinates = errors.New("coordinates are out of range")
)

// Coordinates is a point plus a suggested map viewport span.
type Coordinates struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// NewCoordinates builds a region centred on lat/lng with a square span.
func NewCoordinates(lat, lng, span float64) Coordinates {
	return Coordinates{
		Latitude:       lat,
		Longitude:      lng,
		LatitudeDelta:  span,
		LongitudeDelta: span,
	}
}

// CurrentLocation is the coarse region used when the map centres on the device.
func CurrentLocation(lat, lng float64) Coordinates {
	return NewCoordinates(lat, lng, CoarseSpan)
}

// Valid reports whether the point is a real position on the globe and the
// span is positive.
func (c Coordinates) Valid() bool {
	for _, v := range []float64{c.Latitude, c.Longitude, c.LatitudeDelta, c.LongitudeDelta} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if c.LatitudeDelta <= 0 || c.LongitudeDelta <= 0 {
		return false
	}
	return s2.LatLngFromDegrees(c.Latitude, c.Longitude).IsValid()
}

// Place is a denormalized record of a selectable location. PlaceID is the
// equality key everywhere.
type Place struct {
	PlaceID        string      `json:"place_id"`
	Name           string      `json:"name"`
	Address        string      `json:"address,omitempty"`
	Coordinates    Coordinates `json:"coords"`
	PhotoReference string      `json:"photo_reference,omitempty"`
}

// NewPlace trims the textual fields and returns the value.
func NewPlace(placeID, name, address string, coords Coordinates, photoReference string) Place {
	return Place{
		PlaceID:        strings.TrimSpace(placeID),
		Name:           strings.TrimSpace(name),
		Address:        strings.TrimSpace(address),
		Coordinates:    coords,
		PhotoReference: strings.TrimSpace(photoReference),
	}
}

// Validate checks the invariants a place must hold before it may enter the
// history or the selected slot.
func (p Place) Validate() error {
	if strings.TrimSpace(p.PlaceID) == "" {
		return ErrMissingPlaceID
	}
	if !p.Coordinates.Valid() {
		return ErrInvalidCoordinates
	}
	return nil
}

// HasPhoto reports whether a photo reference is present.
func (p Place) HasPhoto() bool {
	return p.PhotoReference != ""
}
