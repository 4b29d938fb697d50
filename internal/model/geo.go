package model

import "encoding/json"

// Position is a plain latitude/longitude pair. Only the most recent
// device fix is ever retained.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoPoint is the server's GeoJSON representation of a location:
// {"type": "Point", "coordinates": [longitude, latitude]}. Some legacy
// records instead carry {"x": longitude, "y": latitude}; decoding
// accepts both shapes.
type GeoPoint struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
}

// NewGeoPoint builds a GeoJSON point from a latitude/longitude pair.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Valid reports whether the point carries usable coordinates.
func (p GeoPoint) Valid() bool {
	return len(p.Coordinates) == 2
}

// Lat returns the latitude, or 0 when the point is empty.
func (p GeoPoint) Lat() float64 {
	if !p.Valid() {
		return 0
	}
	return p.Coordinates[1]
}

// Lng returns the longitude, or 0 when the point is empty.
func (p GeoPoint) Lng() float64 {
	if !p.Valid() {
		return 0
	}
	return p.Coordinates[0]
}

// Position converts the point to a Position.
func (p GeoPoint) Position() Position {
	return Position{Latitude: p.Lat(), Longitude: p.Lng()}
}

// UnmarshalJSON decodes either the GeoJSON shape or the legacy x/y shape.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
		X           *float64  `json:"x"`
		Y           *float64  `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Coordinates) == 2 {
		p.Type = raw.Type
		p.Coordinates = raw.Coordinates
		return nil
	}
	if raw.X != nil && raw.Y != nil {
		p.Type = "Point"
		p.Coordinates = []float64{*raw.X, *raw.Y}
		return nil
	}

	*p = GeoPoint{}
	return nil
}

// LocationUpdate is a live position report tied to an accepted request,
// streamed over the push channel while the job is underway.
type LocationUpdate struct {
	RequestID  string  `json:"requestId"`
	InstanceID string  `json:"instanceId,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}
