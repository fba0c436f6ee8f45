package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a participant has no stored location.
var ErrNotFound = errors.New("not found")

// Location is the persisted last known position of one participant.
type Location struct {
	ParticipantID string
	Lat           float64
	Lng           float64
	DeviceType    string
	// Samples counts how many records were stored for this participant.
	Samples   int64
	FirstSeen time.Time
	UpdatedAt time.Time
}

// LocationStore handles last-location persistence.
type LocationStore interface {
	// SaveLocation upserts the participant's last location and bumps its sample count.
	SaveLocation(ctx context.Context, loc Location) error

	// GetLocation returns the stored location for one participant.
	GetLocation(ctx context.Context, participantID string) (*Location, error)

	// ListLocations returns every stored location ordered by participant id.
	ListLocations(ctx context.Context) ([]*Location, error)

	// CountLocations returns the number of tracked participants.
	CountLocations(ctx context.Context) (int, error)
}

// Store combines all persistence interfaces.
type Store interface {
	LocationStore

	// Close releases database resources.
	Close() error
}
