// Package places provides the place lookup bounded context.
// This file defines the public interface exposed to other domains.
package places

import (
	"context"

	"places_backend/internal/places/transport"
)

// Lookup is what other domains need from the lookup provider. Failures are
// already degraded: a lookup error looks like an absent result.
type Lookup interface {
	// Details resolves a place id. ok is false when the place could not be
	// resolved or has no geometry.
	Details(ctx context.Context, placeID string) (detail *transport.PlaceDetail, ok bool)

	// AdvisoryActive reports whether the credential advisory disables lookups.
	AdvisoryActive() bool
}
