// Package client provides the HTTP client for the Google Places web service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"places_backend/internal/places/transport"
	"places_backend/platform/logger"
)

const (
	statusOK            = "OK"
	statusZeroResults   = "ZERO_RESULTS"
	statusNotFound      = "NOT_FOUND"
	statusRequestDenied = "REQUEST_DENIED"

	probeInput = "test"
)

// ErrRequestDenied matches any StatusError carrying REQUEST_DENIED, i.e. a
// missing, invalid or restricted API key.
var ErrRequestDenied = errors.New("places request denied")

// StatusError is a non-OK provider status.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("places status %s: %s", e.Status, e.Message)
	}
	return "places status " + e.Status
}

// Is makes errors.Is(err, ErrRequestDenied) work for denial statuses.
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestDenied && e.Status == statusRequestDenied
}

// Client is the HTTP client for the Places API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// New creates a Places client. baseURL is the API root, normally
// https://maps.googleapis.com/maps/api.
func New(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		log:        log,
	}
}

// HasAPIKey reports whether a key is configured at all.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Autocomplete fetches predictions for input.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]transport.Suggestion, error) {
	params := url.Values{}
	params.Set("input", input)

	var resp apiResponse
	empty, err := c.doRequest(ctx, "/place/autocomplete/json", params, &resp)
	if err != nil || empty {
		return nil, err
	}

	suggestions := make([]transport.Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		if p.PlaceID == "" {
			continue
		}
		suggestions = append(suggestions, transport.Suggestion{PlaceID: p.PlaceID, Description: p.Description})
	}
	return suggestions, nil
}

// Details fetches a single place. It returns nil without error when the
// provider does not know the id.
func (c *Client) Details(ctx context.Context, placeID string) (*transport.PlaceDetail, error) {
	params := url.Values{}
	params.Set("place_id", placeID)

	var resp apiResponse
	empty, err := c.doRequest(ctx, "/place/details/json", params, &resp)
	if err != nil || empty || resp.Result == nil {
		return nil, err
	}

	detail := resp.Result.toTransport()
	if detail.PlaceID == "" {
		detail.PlaceID = placeID
	}
	return &detail, nil
}

// TextSearch runs a free-text search. The query is wrapped in wildcards so
// partial names match.
func (c *Client) TextSearch(ctx context.Context, query string) ([]transport.PlaceDetail, error) {
	params := url.Values{}
	params.Set("query", "*"+query+"*")

	var resp apiResponse
	empty, err := c.doRequest(ctx, "/place/textsearch/json", params, &resp)
	if err != nil || empty {
		return nil, err
	}

	results := make([]transport.PlaceDetail, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, r.toTransport())
	}
	return results, nil
}

// ProbeCredential issues a minimal autocomplete request to validate the key.
// It returns a *StatusError matching ErrRequestDenied when the key is
// rejected; any other provider status counts as a working key.
func (c *Client) ProbeCredential(ctx context.Context) error {
	params := url.Values{}
	params.Set("input", probeInput)

	var resp apiResponse
	_, err := c.doRequest(ctx, "/place/autocomplete/json", params, &resp)
	if err == nil || errors.Is(err, ErrRequestDenied) {
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return nil
	}
	return err
}

// PhotoURL builds the photo endpoint URL. No request is made.
func (c *Client) PhotoURL(reference string, maxWidth int) string {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photoreference", reference)
	params.Set("key", c.apiKey)
	return c.baseURL + "/place/photo?" + params.Encode()
}

// doRequest performs the GET and decodes into out. empty is true for the
// statuses that mean "nothing found".
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, out *apiResponse) (bool, error) {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("places upstream error", "status", resp.StatusCode, "path", path)
		return false, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	switch out.Status {
	case statusOK:
		return false, nil
	case statusZeroResults, statusNotFound:
		c.log.Debug("places no results", "path", path, "status", out.Status)
		return true, nil
	default:
		return false, &StatusError{Status: out.Status, Message: out.ErrorMessage}
	}
}

// apiResponse is the shared envelope of the JSON endpoints.
type apiResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Predictions  []apiPrediction `json:"predictions"`
	Result       *apiPlace       `json:"result"`
	Results      []apiPlace      `json:"results"`
}

type apiPrediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type apiPlace struct {
	PlaceID          string       `json:"place_id"`
	Name             string       `json:"name"`
	FormattedAddress string       `json:"formatted_address"`
	Geometry         *apiGeometry `json:"geometry"`
	Photos           []apiPhoto   `json:"photos"`
}

type apiGeometry struct {
	Location *apiLocation `json:"location"`
}

type apiLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type apiPhoto struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

func (a apiPlace) toTransport() transport.PlaceDetail {
	detail := transport.PlaceDetail{
		PlaceID:          a.PlaceID,
		Name:             a.Name,
		FormattedAddress: a.FormattedAddress,
	}

	if a.Geometry != nil && a.Geometry.Location != nil {
		detail.Location = &transport.Location{Lat: a.Geometry.Location.Lat, Lng: a.Geometry.Location.Lng}
	}

	for _, p := range a.Photos {
		if p.PhotoReference != "" {
			detail.PhotoReferences = append(detail.PhotoReferences, p.PhotoReference)
		}
	}

	return detail
}
