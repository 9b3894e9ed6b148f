package selection

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"places_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newTestHandlerRouter(t *testing.T, lookup *fakeLookup) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	coord, _ := newTestCoordinator(t, lookup)
	h := NewHandler(coord, validator.New())

	r := gin.New()
	r.POST("/selection", h.SelectByID)
	r.GET("/selection/status", h.Status)
	return r
}

func post(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerSelectByID(t *testing.T) {
	lookup := newFakeLookup()
	lookup.add("A", "Place A", 10, 10)
	r := newTestHandlerRouter(t, lookup)

	w := post(r, "/selection", Request{PlaceID: "A"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var outcome Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.State != StateSucceeded || outcome.Place == nil || outcome.Place.PlaceID != "A" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	req := httptest.NewRequest(http.MethodGet, "/selection/status", nil)
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, req)
	var attempt Attempt
	if err := json.Unmarshal(sw.Body.Bytes(), &attempt); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if attempt.Slot != DefaultSlot || attempt.State != StateSucceeded {
		t.Fatalf("unexpected status %+v", attempt)
	}
}

func TestHandlerUnresolvedPlace(t *testing.T) {
	r := newTestHandlerRouter(t, newFakeLookup())

	w := post(r, "/selection", Request{PlaceID: "unknown"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestHandlerAdvisoryBlocksSelection(t *testing.T) {
	lookup := newFakeLookup()
	lookup.advisory = true
	r := newTestHandlerRouter(t, lookup)

	w := post(r, "/selection", Request{PlaceID: "A"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHandlerRejectsBlankPlaceID(t *testing.T) {
	r := newTestHandlerRouter(t, newFakeLookup())

	w := post(r, "/selection", Request{PlaceID: ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
