package core

import "errors"

var (
	// ErrHubStopped is returned by hub requests after Run has exited.
	ErrHubStopped = errors.New("hub stopped")
	// ErrInvalidLocation wraps every record rejected by ValidateLocation.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrInvalidCoordinate means lat or lng is missing or not a finite number.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)
