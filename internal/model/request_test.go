package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusPending, false},
		{StatusRejected, StatusPending, false},
		{StatusRejected, StatusAccepted, false},
		{StatusCompleted, StatusPending, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusAccepted.Terminal() {
		t.Error("PENDING and ACCEPTED must not be terminal")
	}
	if !StatusRejected.Terminal() || !StatusCompleted.Terminal() {
		t.Error("REJECTED and COMPLETED must be terminal")
	}
}

func TestGeoPointDecodeGeoJSON(t *testing.T) {
	var p GeoPoint
	if err := json.Unmarshal([]byte(`{"type":"Point","coordinates":[80.2707,13.0827]}`), &p); err != nil {
		t.Fatalf("unmarshaling geojson point: %v", err)
	}
	if p.Lat() != 13.0827 || p.Lng() != 80.2707 {
		t.Errorf("got lat=%v lng=%v", p.Lat(), p.Lng())
	}
}

func TestGeoPointDecodeLegacyXY(t *testing.T) {
	var p GeoPoint
	if err := json.Unmarshal([]byte(`{"x":80.2707,"y":13.0827}`), &p); err != nil {
		t.Fatalf("unmarshaling legacy point: %v", err)
	}
	if p.Lat() != 13.0827 || p.Lng() != 80.2707 {
		t.Errorf("got lat=%v lng=%v", p.Lat(), p.Lng())
	}
}

func TestGeoPointDecodeEmpty(t *testing.T) {
	var p GeoPoint
	if err := json.Unmarshal([]byte(`{}`), &p); err != nil {
		t.Fatalf("unmarshaling empty point: %v", err)
	}
	if p.Valid() {
		t.Error("empty point must not be valid")
	}
}

func TestTimeDecodeZoneless(t *testing.T) {
	var req RepairRequest
	payload := `{"id":"r1","status":"PENDING","createdAt":"2025-03-04T10:30:00"}`
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unmarshaling request: %v", err)
	}

	want := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	if !req.CreatedAt.Equal(want) {
		t.Errorf("got %v, want %v", req.CreatedAt.Time, want)
	}
}

func TestTimeDecodeNull(t *testing.T) {
	var req RepairRequest
	payload := `{"id":"r1","status":"PENDING","acceptedAt":null}`
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unmarshaling request: %v", err)
	}
	if !req.AcceptedAt.IsZero() {
		t.Errorf("null timestamp must decode as zero, got %v", req.AcceptedAt.Time)
	}
}
