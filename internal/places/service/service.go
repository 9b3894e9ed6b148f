// Package service provides the place lookup logic: input normalisation,
// outbound rate limiting, failure degradation and the credential advisory.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"places_backend/internal/events"
	"places_backend/internal/places/client"
	"places_backend/internal/places/transport"
	"places_backend/platform/logger"
	"places_backend/platform/sanitize"

	"golang.org/x/time/rate"
)

const (
	// DefaultPhotoWidth is used when a caller passes no positive width.
	DefaultPhotoWidth = 400

	msgMissingKey = "Google Maps API key is not set. Please check your environment variables."
	msgDeniedKey  = "Google Maps API key is invalid or restricted."
)

// Service wraps the Places client. Failures never escape it: lookups degrade
// to empty or absent results and are reported through LastFailure and the
// places.lookup_failed event.
type Service struct {
	client  *client.Client
	limiter *rate.Limiter
	bus     events.Bus
	log     *logger.Logger

	mu          sync.RWMutex
	advisory    transport.Advisory
	lastFailure *transport.LookupFailure
}

// New creates a lookup service. A nil limiter disables outbound limiting.
func New(c *client.Client, limiter *rate.Limiter, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		client:  c,
		limiter: limiter,
		bus:     bus,
		log:     log,
	}
}

// NewLimiter builds the outbound limiter. qps <= 0 means unlimited.
func NewLimiter(qps float64, burst int) *rate.Limiter {
	if qps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(qps), burst)
}

// Suggest returns autocomplete predictions for text. Blank input returns an
// empty result without calling the provider.
func (s *Service) Suggest(ctx context.Context, text string) []transport.Suggestion {
	query := sanitize.Query(text)
	if query == "" || s.AdvisoryActive() {
		return []transport.Suggestion{}
	}
	if err := s.wait(ctx); err != nil {
		s.recordFailure(ctx, "suggest", err)
		return []transport.Suggestion{}
	}

	suggestions, err := s.client.Autocomplete(ctx, query)
	if err != nil {
		s.recordFailure(ctx, "suggest", err)
		return []transport.Suggestion{}
	}

	for i := range suggestions {
		suggestions[i].Description = sanitize.Label(suggestions[i].Description)
	}
	if suggestions == nil {
		suggestions = []transport.Suggestion{}
	}
	return suggestions
}

// Details resolves placeID. The result is absent on any failure and when the
// provider returned no geometry.
func (s *Service) Details(ctx context.Context, placeID string) (*transport.PlaceDetail, bool) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" || s.AdvisoryActive() {
		return nil, false
	}
	if err := s.wait(ctx); err != nil {
		s.recordFailure(ctx, "details", err)
		return nil, false
	}

	detail, err := s.client.Details(ctx, placeID)
	if err != nil {
		s.recordFailure(ctx, "details", err)
		return nil, false
	}
	if detail == nil {
		return nil, false
	}
	if !detail.HasGeometry() {
		s.log.Debug("place details without geometry", "placeId", placeID)
		return nil, false
	}

	cleaned := cleanDetail(*detail)
	return &cleaned, true
}

// SearchText runs a free-text search.
func (s *Service) SearchText(ctx context.Context, query string) []transport.PlaceDetail {
	query = sanitize.Query(query)
	if query == "" || s.AdvisoryActive() {
		return []transport.PlaceDetail{}
	}
	if err := s.wait(ctx); err != nil {
		s.recordFailure(ctx, "search", err)
		return []transport.PlaceDetail{}
	}

	results, err := s.client.TextSearch(ctx, query)
	if err != nil {
		s.recordFailure(ctx, "search", err)
		return []transport.PlaceDetail{}
	}

	out := make([]transport.PlaceDetail, 0, len(results))
	for _, r := range results {
		out = append(out, cleanDetail(r))
	}
	return out
}

// PhotoURL builds a photo URL. It is absent for an empty reference.
func (s *Service) PhotoURL(reference string, maxWidth int) (string, bool) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", false
	}
	if maxWidth <= 0 {
		maxWidth = DefaultPhotoWidth
	}
	return s.client.PhotoURL(reference, maxWidth), true
}

// CheckCredential runs the validation probe and updates the advisory. A
// transport failure leaves the advisory untouched and is returned.
func (s *Service) CheckCredential(ctx context.Context) (transport.Advisory, error) {
	if !s.client.HasAPIKey() {
		s.setAdvisory(ctx, true, msgMissingKey)
		return s.Advisory(), nil
	}

	if err := s.wait(ctx); err != nil {
		s.recordFailure(ctx, "credential_probe", err)
		return s.Advisory(), err
	}

	err := s.client.ProbeCredential(ctx)
	switch {
	case err == nil:
		s.setAdvisory(ctx, false, "")
	case errors.Is(err, client.ErrRequestDenied):
		s.setAdvisory(ctx, true, deniedMessage(err))
	default:
		s.recordFailure(ctx, "credential_probe", err)
		return s.Advisory(), err
	}
	return s.Advisory(), nil
}

// ClearAdvisory lifts the advisory without probing.
func (s *Service) ClearAdvisory(ctx context.Context) {
	s.setAdvisory(ctx, false, "")
}

// Advisory returns the current credential advisory.
func (s *Service) Advisory() transport.Advisory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.advisory
}

// AdvisoryActive reports whether lookups are currently disabled.
func (s *Service) AdvisoryActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.advisory.Active
}

// LastFailure returns the most recent degraded call, if any.
func (s *Service) LastFailure() (transport.LookupFailure, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastFailure == nil {
		return transport.LookupFailure{}, false
	}
	return *s.lastFailure, true
}

func (s *Service) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *Service) recordFailure(ctx context.Context, op string, err error) {
	s.log.WithContext(ctx).LookupFailure(op, err)

	failure := transport.LookupFailure{Operation: op, Error: err.Error(), OccurredAt: time.Now()}
	s.mu.Lock()
	s.lastFailure = &failure
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(ctx, events.LookupFailed{
			BaseEvent: events.NewBaseEvent(),
			Operation: op,
			Error:     failure.Error,
		})
	}

	// A denial on a regular call means the key stopped working.
	if errors.Is(err, client.ErrRequestDenied) {
		s.setAdvisory(ctx, true, deniedMessage(err))
	}
}

func (s *Service) setAdvisory(ctx context.Context, active bool, message string) {
	s.mu.Lock()
	changed := s.advisory.Active != active || s.advisory.Message != message
	s.advisory = transport.Advisory{Active: active, Message: message, CheckedAt: time.Now()}
	s.mu.Unlock()

	if !changed {
		return
	}

	if active {
		s.log.Warn("places advisory raised", "message", message)
	} else {
		s.log.Info("places advisory cleared")
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.AdvisoryChanged{
			BaseEvent: events.NewBaseEvent(),
			Active:    active,
			Message:   message,
		})
	}
}

func deniedMessage(err error) string {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return msgDeniedKey
}

func cleanDetail(d transport.PlaceDetail) transport.PlaceDetail {
	d.Name = sanitize.Label(d.Name)
	d.FormattedAddress = sanitize.Label(d.FormattedAddress)
	return d
}
