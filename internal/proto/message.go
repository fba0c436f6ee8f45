package proto

import (
	"encoding/json"
	"fmt"
	"time"
)

// WSPath is the WebSocket endpoint path, relative to the page origin.
const WSPath = "/ws"

// Location is the single wire record exchanged over the socket, one per text frame.
// Clients send it without a timestamp; the server stamps it before fan-out.
type Location struct {
	ID         string     `json:"id"`
	Lat        Coordinate `json:"lat"`
	Lng        Coordinate `json:"lng"`
	Long       Coordinate `json:"long,omitzero"`
	DeviceType string     `json:"deviceType"`
	Timestamp  time.Time  `json:"timestamp,omitzero"`
}

// NewLocation builds an outbound record with valid coordinates.
func NewLocation(id string, lat, lng float64, deviceType string) Location {
	return Location{
		ID:         id,
		Lat:        Coord(lat),
		Lng:        Coord(lng),
		DeviceType: deviceType,
	}
}

// Coordinates returns the numeric latitude and longitude.
// "long" is consulted only when "lng" is absent or unusable.
func (l Location) Coordinates() (lat, lng float64, ok bool) {
	lngCoord := l.Lng
	if !lngCoord.Valid {
		lngCoord = l.Long
	}
	if !l.Lat.Valid || !lngCoord.Valid {
		return 0, 0, false
	}
	return l.Lat.Value, lngCoord.Value, true
}

// Normalized folds "long" into "lng" so outbound frames only carry one spelling.
func (l Location) Normalized() Location {
	if !l.Lng.Valid && l.Long.Valid {
		l.Lng = l.Long
	}
	l.Long = Coordinate{}
	return l
}

// Decode parses a single frame. Syntax errors and a non-string id are
// reported; unusable coordinates are not, see Coordinates.
func Decode(data []byte) (Location, error) {
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return Location{}, fmt.Errorf("decode location: %w", err)
	}
	return loc, nil
}

// Encode renders a record as a frame payload.
func Encode(loc Location) ([]byte, error) {
	data, err := json.Marshal(loc.Normalized())
	if err != nil {
		return nil, fmt.Errorf("encode location: %w", err)
	}
	return data, nil
}
