package transport

import "testing"

func TestToPlaceKeepsRequestedID(t *testing.T) {
	detail := PlaceDetail{
		PlaceID:  "p1-canonical",
		Name:     "Cafe X",
		Location: &Location{Lat: 1, Lng: 2},
	}

	place, err := detail.ToPlace("p1")
	if err != nil {
		t.Fatalf("ToPlace: %v", err)
	}
	if place.PlaceID != "p1" {
		t.Fatalf("expected requested id p1, got %q", place.PlaceID)
	}

	place, err = detail.ToPlace("")
	if err != nil {
		t.Fatalf("ToPlace: %v", err)
	}
	if place.PlaceID != "p1-canonical" {
		t.Fatalf("expected response id without a request id, got %q", place.PlaceID)
	}
}

func TestToPlaceRequiresGeometry(t *testing.T) {
	if _, err := (PlaceDetail{PlaceID: "p1"}).ToPlace("p1"); err == nil {
		t.Fatalf("expected missing geometry to be rejected")
	}
}
