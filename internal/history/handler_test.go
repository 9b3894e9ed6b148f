package history

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"places_backend/internal/adapters/storage"
	"places_backend/platform/logger"
	"places_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Cache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := NewCache(storage.NewMemoryStore(), Options{}, logger.Discard())
	t.Cleanup(cache.Close)
	h := NewHandler(cache, validator.New())

	r := gin.New()
	r.GET("/history", h.List)
	r.POST("/history", h.Add)
	r.POST("/history/delete", h.Delete)
	r.DELETE("/history", h.Clear)
	r.GET("/selection", h.Selected)
	return r, cache
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerAddListDelete(t *testing.T) {
	r, cache := newTestRouter(t)

	for _, id := range []string{"a", "b"} {
		w := doJSON(r, http.MethodPost, "/history", AddRequest{Place: place(id)})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 adding %s, got %d: %s", id, w.Code, w.Body.String())
		}
	}

	w := doJSON(r, http.MethodGet, "/history", nil)
	var list ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if !equalIDs(list.Items, "b", "a") {
		t.Fatalf("expected [b a], got %v", ids(list.Items))
	}

	w = doJSON(r, http.MethodPost, "/history/delete", DeleteRequest{PlaceIDs: []string{"a", "missing"}})
	var deleted DeleteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &deleted); err != nil {
		t.Fatalf("decode delete: %v", err)
	}
	if deleted.Removed != 1 || !equalIDs(deleted.Items, "b") {
		t.Fatalf("expected one removal leaving [b], got %+v", deleted)
	}

	w = doJSON(r, http.MethodDelete, "/history", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(cache.List()) != 0 {
		t.Fatalf("expected empty history after clear")
	}
}

func TestHandlerRejectsInvalidInput(t *testing.T) {
	r, _ := newTestRouter(t)

	bad := place("a")
	bad.Coordinates.Latitude = 200
	if w := doJSON(r, http.MethodPost, "/history", AddRequest{Place: bad}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid place, got %d", w.Code)
	}

	if w := doJSON(r, http.MethodPost, "/history/delete", DeleteRequest{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty id list, got %d", w.Code)
	}
}

func TestHandlerSelectedIsNullInitially(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/selection", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"place":null}` {
		t.Fatalf("expected null place, got %s", got)
	}
}
